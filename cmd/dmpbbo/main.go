package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/gangLJG/dmpbbo/internal/bbo"
	"github.com/gangLJG/dmpbbo/internal/config"
	"github.com/gangLJG/dmpbbo/internal/dmp"
	"github.com/gangLJG/dmpbbo/internal/funcapprox"
	"github.com/gangLJG/dmpbbo/internal/rollout"
	"github.com/gangLJG/dmpbbo/internal/storage"
	"github.com/gangLJG/dmpbbo/internal/trajectory"
	"github.com/gangLJG/dmpbbo/internal/tui"
)

var (
	configFile string
	preset     string
	saveDir    string
	overwrite  bool
	seed       int64
	live       bool
	nUpdates   int
	nSamples   int
	// train output
	outputFile string
	// optimize-cost parameters
	costDim      int
	initialMean  float64
	costVariance float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dmpbbo",
		Short: "dynamical movement primitives with black-box optimization",
	}

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "train a movement primitive on a min-jerk demonstration",
		RunE:  runTrain,
	}
	trainCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	trainCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	trainCmd.Flags().StringVar(&outputFile, "output", "", "write the reproduced trajectory to this file")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "optimize primitive parameters against a viapoint task",
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	optimizeCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	optimizeCmd.Flags().StringVar(&saveDir, "save-dir", "", "checkpoint directory")
	optimizeCmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow overwriting existing checkpoints")
	optimizeCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	optimizeCmd.Flags().IntVar(&nUpdates, "updates", 0, "override number of updates")
	optimizeCmd.Flags().IntVar(&nSamples, "samples", 0, "override samples per update")
	optimizeCmd.Flags().BoolVar(&live, "live", false, "show a live monitor while optimizing")

	optimizeCostCmd := &cobra.Command{
		Use:   "optimize-cost",
		Short: "optimize a synthetic quadratic cost function",
		RunE:  runOptimizeCost,
	}
	optimizeCostCmd.Flags().IntVar(&costDim, "dim", 2, "search space dimensionality")
	optimizeCostCmd.Flags().Float64Var(&initialMean, "mean", 5.0, "initial mean for every dimension")
	optimizeCostCmd.Flags().Float64Var(&costVariance, "variance", 1.0, "initial diagonal variance")
	optimizeCostCmd.Flags().IntVar(&nUpdates, "updates", 20, "number of updates")
	optimizeCostCmd.Flags().IntVar(&nSamples, "samples", 15, "samples per update")
	optimizeCostCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	optimizeCostCmd.Flags().StringVar(&saveDir, "save-dir", "", "checkpoint directory")
	optimizeCostCmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow overwriting existing checkpoints")

	curveCmd := &cobra.Command{
		Use:   "curve [directory]",
		Short: "plot a saved learning curve",
		Args:  cobra.ExactArgs(1),
		RunE:  runCurve,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [experiment]",
		Short: "list available presets for an experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for experiment: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(trainCmd, optimizeCmd, optimizeCostCmd, curveCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset("viapoint", preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets("viapoint"))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPrimitive trains a primitive on a min-jerk demonstration between the
// configured start and goal.
func buildPrimitive(cfg *config.Config) (*dmp.Dmp, *trajectory.Trajectory, error) {
	nDofs := len(cfg.Dmp.Y0)
	n := int(math.Round(cfg.Dmp.Tau/cfg.Solver.Dt)) + 1
	ts := trajectory.Linspace(0, cfg.Dmp.Tau, n)
	demo, err := trajectory.NewMinJerk(ts, cfg.Dmp.Y0, cfg.Dmp.Goal)
	if err != nil {
		return nil, nil, err
	}

	fas := make([]funcapprox.FunctionApproximator, nDofs)
	for j := range fas {
		fas[j] = funcapprox.NewRBFN(cfg.Dmp.NBasis)
	}
	d, err := dmp.New(cfg.Dmp.Tau, cfg.Dmp.Y0, cfg.Dmp.Goal, fas)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Train(demo); err != nil {
		return nil, nil, err
	}
	if len(cfg.Dmp.Selected) > 0 {
		if err := d.SetSelectedParameters(cfg.Dmp.Selected); err != nil {
			return nil, nil, err
		}
	}
	return d, demo, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, demo, err := buildPrimitive(cfg)
	if err != nil {
		return err
	}

	ts := demo.Times
	xs, xds, _, err := d.AnalyticalSolution(ts)
	if err != nil {
		return err
	}
	reproduced, err := d.StatesAsTrajectory(ts, xs, xds)
	if err != nil {
		return err
	}

	maxErr := 0.0
	for i := 0; i < demo.Len(); i++ {
		for j := 0; j < demo.Dim(); j++ {
			if e := math.Abs(reproduced.Ys.At(i, j) - demo.Ys.At(i, j)); e > maxErr {
				maxErr = e
			}
		}
	}

	fmt.Printf("trained %d-dof primitive, %d basis functions per dof\n", d.DimDofs(), cfg.Dmp.NBasis)
	fmt.Printf("tau: %.3fs, %d time steps\n", d.Tau(), demo.Len())
	fmt.Printf("max position reproduction error: %.6f\n\n", maxErr)

	data := make([]float64, reproduced.Len())
	for i := range data {
		data[i] = reproduced.Ys.At(i, 0)
	}
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("reproduced position, dof 0"),
	))

	if outputFile != "" {
		dir, name := filepath.Split(outputFile)
		if dir == "" {
			dir = "."
		}
		if err := reproduced.SaveToFile(dir, name, true); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", outputFile)
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if nUpdates > 0 {
		cfg.Optimization.NUpdates = nUpdates
	}
	if nSamples > 0 {
		cfg.Optimization.NSamplesPerUpdate = nSamples
	}
	if !cmd.Flags().Changed("seed") && cfg.Seed != 0 {
		seed = cfg.Seed
	}

	d, _, err := buildPrimitive(cfg)
	if err != nil {
		return err
	}
	solver, err := rollout.NewDmpSolver(d, cfg.Solver.Dt, cfg.Solver.ExtendFactor, cfg.Solver.Normalized)
	if err != nil {
		return err
	}
	task := &rollout.TaskViapoint{
		Viapoint:           cfg.Task.Viapoint,
		ViapointTime:       cfg.Task.ViapointTime,
		ViapointWeight:     cfg.Task.ViapointWeight,
		AccelerationWeight: cfg.Task.AccelerationWeight,
	}
	updater, err := bbo.NewUpdaterCovarDecay(cfg.Optimization.Eliteness, cfg.Optimization.DecayFactor)
	if err != nil {
		return err
	}

	dists := make([]*bbo.DistributionGaussian, d.DimDofs())
	for g := 0; g < d.DimDofs(); g++ {
		size := d.FunctionApproximator(g).ParameterVectorSelectedSize()
		mean := make([]float64, size)
		if !cfg.Solver.Normalized {
			copy(mean, d.FunctionApproximator(g).ParameterVectorSelected())
		}
		dists[g] = bbo.NewDiagonalDistribution(mean, cfg.Optimization.Variance)
	}

	opts := bbo.Options{
		NUpdates:          cfg.Optimization.NUpdates,
		NSamplesPerUpdate: cfg.Optimization.NSamplesPerUpdate,
		SaveDirectory:     saveDir,
		Overwrite:         overwrite,
	}
	rng := rand.New(rand.NewSource(seed))

	var curve bbo.LearningCurve
	if live {
		err = tui.RunMonitor("viapoint optimization", opts.NUpdates, func(report func(tui.ProgressMsg)) error {
			opts.Progress = func(info bbo.ProgressInfo) {
				report(tui.ProgressMsg{
					Update:      info.Update,
					Cost:        info.Point.CostEval,
					Exploration: info.Point.Exploration,
				})
			}
			c, runErr := rollout.RunOptimizationTask(task, solver, dists, updater, opts, rng)
			curve = c
			return runErr
		})
	} else {
		opts.Progress = func(info bbo.ProgressInfo) {
			fmt.Printf("update %3d  cost %12.6g  exploration %10.4g\n",
				info.Update, info.Point.CostEval, info.Point.Exploration)
		}
		curve, err = rollout.RunOptimizationTask(task, solver, dists, updater, opts, rng)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	plotCurve(curve)
	if saveDir != "" {
		fmt.Printf("\ncheckpoints written to %s\n", saveDir)
	}
	return nil
}

func runOptimizeCost(cmd *cobra.Command, args []string) error {
	if costDim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", costDim)
	}

	mean := make([]float64, costDim)
	for i := range mean {
		mean[i] = initialMean
	}
	initial := bbo.NewDiagonalDistribution(mean, costVariance)
	updater, err := bbo.NewUpdaterCovarDecay(10, 0.9)
	if err != nil {
		return err
	}
	quadratic := bbo.CostFunctionFunc(func(x []float64) float64 {
		sum := 0.0
		for _, v := range x {
			sum += v * v
		}
		return sum
	})

	curve, err := bbo.RunOptimization(quadratic, initial, updater, bbo.Options{
		NUpdates:          nUpdates,
		NSamplesPerUpdate: nSamples,
		SaveDirectory:     saveDir,
		Overwrite:         overwrite,
		Progress: func(info bbo.ProgressInfo) {
			fmt.Printf("update %3d  cost %12.6g  exploration %10.4g\n",
				info.Update, info.Point.CostEval, info.Point.Exploration)
		},
	}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	fmt.Println()
	plotCurve(curve)
	return nil
}

func runCurve(cmd *cobra.Command, args []string) error {
	path := filepath.Join(args[0], "learning_curve.txt")
	m, err := storage.LoadMatrix(path)
	if err != nil {
		return err
	}
	rows, cols := m.Dims()
	if cols != 3 {
		return fmt.Errorf("%s has %d columns, expected 3", path, cols)
	}

	curve := make(bbo.LearningCurve, rows)
	for i := 0; i < rows; i++ {
		curve[i] = bbo.CurvePoint{
			NumSamples:  int(m.At(i, 0)),
			CostEval:    m.At(i, 1),
			Exploration: m.At(i, 2),
		}
	}
	fmt.Printf("learning curve: %d updates\n\n", rows)
	plotCurve(curve)
	return nil
}

func plotCurve(curve bbo.LearningCurve) {
	if len(curve) < 2 {
		for _, p := range curve {
			fmt.Printf("samples %5d  cost %12.6g  exploration %10.4g\n",
				p.NumSamples, p.CostEval, p.Exploration)
		}
		return
	}
	costs := make([]float64, len(curve))
	for i, p := range curve {
		costs[i] = p.CostEval
	}
	fmt.Println(asciigraph.Plot(costs,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("cost at distribution mean per update"),
	))
}
