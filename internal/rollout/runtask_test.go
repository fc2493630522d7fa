package rollout

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/gangLJG/dmpbbo/internal/bbo"
)

// viapointSetup trains a primitive and builds a normalized solver plus one
// zero-mean offset distribution per dof.
func viapointSetup(t *testing.T, nDofs int, variance float64) (*DmpSolver, []*bbo.DistributionGaussian) {
	t.Helper()
	d := trainedDmp(t, nDofs)
	solver, err := NewDmpSolver(d, 0.05, 1.2, true)
	if err != nil {
		t.Fatal(err)
	}
	dists := make([]*bbo.DistributionGaussian, nDofs)
	for g := 0; g < nDofs; g++ {
		size := d.FunctionApproximator(g).ParameterVectorSelectedSize()
		dists[g] = bbo.NewDiagonalDistribution(make([]float64, size), variance)
	}
	return solver, dists
}

func TestTaskOptimizationImprovesViapointCost(t *testing.T) {
	solver, dists := viapointSetup(t, 1, 100)

	// the min-jerk movement 0 -> 1 passes well below 0.5 at t=0.2
	task := NewTaskViapoint([]float64{0.5}, 0.2)
	updater, err := bbo.NewUpdaterCovarDecay(10, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	curve, err := RunOptimizationTask(task, solver, dists, updater, bbo.Options{
		NUpdates:          15,
		NSamplesPerUpdate: 12,
	}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("task optimization failed: %v", err)
	}

	if len(curve) != 15 {
		t.Fatalf("learning curve has %d rows, want 15", len(curve))
	}
	if curve[len(curve)-1].CostEval >= curve[0].CostEval {
		t.Errorf("mean-rollout cost did not improve: %g -> %g",
			curve[0].CostEval, curve[len(curve)-1].CostEval)
	}
}

func TestTaskOptimizationParallelCheckpoints(t *testing.T) {
	dir := t.TempDir()
	solver, dists := viapointSetup(t, 2, 25)
	task := NewTaskViapoint([]float64{0.5, 1.0}, 0.3)
	updater, _ := bbo.NewUpdaterCovarDecay(10, 0.9)

	_, err := RunOptimizationTask(task, solver, dists, updater, bbo.Options{
		NUpdates:          2,
		NSamplesPerUpdate: 5,
		SaveDirectory:     dir,
		Overwrite:         true,
	}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("task optimization failed: %v", err)
	}

	updateDir := filepath.Join(dir, "update00000")
	for _, name := range []string{
		"n_parallel.txt",
		"distribution_000_mean.txt", "distribution_000_covar.txt",
		"distribution_001_mean.txt", "distribution_001_covar.txt",
		"cost_eval.txt", "samples.txt", "costs.txt", "weights.txt",
		"distribution_new_000_mean.txt", "distribution_new_001_covar.txt",
	} {
		if _, err := os.Stat(filepath.Join(updateDir, name)); err != nil {
			t.Errorf("missing checkpoint file %s", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "learning_curve.txt")); err != nil {
		t.Error("missing learning_curve.txt")
	}
}

func TestTaskOptimizationDistributionCountMismatch(t *testing.T) {
	solver, dists := viapointSetup(t, 2, 25)
	task := NewTaskViapoint([]float64{0.5, 1.0}, 0.3)
	updater, _ := bbo.NewUpdaterCovarDecay(10, 0.9)

	_, err := RunOptimizationTask(task, solver, dists[:1], updater, bbo.Options{
		NUpdates:          1,
		NSamplesPerUpdate: 3,
	}, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Error("distribution count not matching the dofs should fail")
	}
}
