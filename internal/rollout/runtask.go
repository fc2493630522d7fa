package rollout

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/bbo"
)

// RunOptimizationTask optimizes a task over a movement primitive with one
// independent search distribution per degree of freedom. The per-iteration
// protocol of bbo.RunOptimization applies elementwise across the groups; the
// task scores whole rollouts, so every group shares the per-sample costs.
// Checkpoints use the parallel naming scheme (n_parallel.txt plus per-group
// distribution files) with the per-group samples concatenated row-wise.
func RunOptimizationTask(task Task, solver *DmpSolver, initial []*bbo.DistributionGaussian,
	updater bbo.Updater, opts bbo.Options, rng *rand.Rand) (bbo.LearningCurve, error) {

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	nGroups := solver.Primitive().DimDofs()
	if len(initial) != nGroups {
		return nil, fmt.Errorf("%d distributions for %d dofs", len(initial), nGroups)
	}

	dists := make([]*bbo.DistributionGaussian, nGroups)
	totalDim := 0
	for g, d := range initial {
		dists[g] = d.Clone()
		totalDim += d.Dim()
	}

	curve := make(bbo.LearningCurve, 0, opts.NUpdates)
	n := opts.NSamplesPerUpdate

	for iUpdate := 0; iUpdate < opts.NUpdates; iUpdate++ {
		// 1. Cost of a rollout at the distribution means, diagnostic only.
		costEval, err := evaluateMeans(task, solver, dists)
		if err != nil {
			return curve, fmt.Errorf("update %d: %w", iUpdate, err)
		}

		// 2. Sample each group independently.
		groupSamples := make([]*mat.Dense, nGroups)
		for g, d := range dists {
			groupSamples[g], err = d.GenerateSamples(n, rng)
			if err != nil {
				return curve, fmt.Errorf("update %d group %d: %w", iUpdate, g, err)
			}
		}

		// 3. Roll out and score.
		costVars, err := solver.PerformRollouts(groupSamples)
		if err != nil {
			return curve, fmt.Errorf("update %d: %w", iUpdate, err)
		}
		costs := make([]float64, n)
		for k := 0; k < n; k++ {
			costs[k], err = task.EvaluateRollout(costVars.RawRowView(k))
			if err != nil {
				return curve, fmt.Errorf("update %d rollout %d: %w", iUpdate, k, err)
			}
		}

		// 4. Update every group against the shared costs. The weights are
		// a pure function of the costs, so each group produces the same
		// vector; the first group's copy goes to the checkpoint.
		distsNew := make([]*bbo.DistributionGaussian, nGroups)
		var weights []float64
		for g, d := range dists {
			w, dNew, err := updater.Update(d, groupSamples[g], costs)
			if err != nil {
				return curve, fmt.Errorf("update %d group %d: %w", iUpdate, g, err)
			}
			distsNew[g] = dNew
			if g == 0 {
				weights = w
			}
		}

		// 5. Learning curve: exploration is the widest spread across groups.
		maxEig := 0.0
		for g, d := range dists {
			eig, err := d.MaxEigenvalue()
			if err != nil {
				return curve, fmt.Errorf("update %d group %d: %w", iUpdate, g, err)
			}
			if eig > maxEig {
				maxEig = eig
			}
		}
		point := bbo.CurvePoint{
			NumSamples:  iUpdate * n,
			CostEval:    costEval,
			Exploration: math.Sqrt(maxEig),
		}
		curve = append(curve, point)

		// 6. Checkpoint with concatenated sample rows.
		if opts.SaveDirectory != "" && !opts.OnlyLearningCurve {
			samples := concatColumns(groupSamples, n, totalDim)
			err := bbo.SaveUpdate(opts.SaveDirectory, iUpdate, dists, &costEval,
				samples, costs, weights, distsNew, opts.Overwrite)
			if err != nil {
				return curve, fmt.Errorf("checkpoint update %d: %w", iUpdate, err)
			}
		}

		if opts.Progress != nil {
			opts.Progress(bbo.ProgressInfo{Update: iUpdate, Point: point, Current: dists[0], New: distsNew[0]})
		}

		// 7. Replace.
		dists = distsNew
	}

	if opts.SaveDirectory != "" {
		if err := curve.Save(opts.SaveDirectory, opts.Overwrite); err != nil {
			return curve, fmt.Errorf("save learning curve: %w", err)
		}
	}
	return curve, nil
}

func evaluateMeans(task Task, solver *DmpSolver, dists []*bbo.DistributionGaussian) (float64, error) {
	means := make([]*mat.Dense, len(dists))
	for g, d := range dists {
		means[g] = mat.NewDense(1, d.Dim(), d.Mean())
	}
	costVars, err := solver.PerformRollouts(means)
	if err != nil {
		return 0, err
	}
	return task.EvaluateRollout(costVars.RawRowView(0))
}

func concatColumns(groups []*mat.Dense, rows, totalCols int) *mat.Dense {
	out := mat.NewDense(rows, totalCols, nil)
	offset := 0
	for _, g := range groups {
		_, cols := g.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, offset+j, g.At(i, j))
			}
		}
		offset += cols
	}
	return out
}
