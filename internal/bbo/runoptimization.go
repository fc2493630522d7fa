package bbo

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/storage"
)

// CurvePoint is one learning-curve row: how many samples have been consumed,
// the cost at the distribution mean, and the exploration magnitude (square
// root of the largest covariance eigenvalue).
type CurvePoint struct {
	NumSamples  int
	CostEval    float64
	Exploration float64
}

// LearningCurve is append-only, one point per completed update.
type LearningCurve []CurvePoint

func (lc LearningCurve) AsMatrix() *mat.Dense {
	m := mat.NewDense(len(lc), 3, nil)
	for i, p := range lc {
		m.Set(i, 0, float64(p.NumSamples))
		m.Set(i, 1, p.CostEval)
		m.Set(i, 2, p.Exploration)
	}
	return m
}

// Save writes the curve as learning_curve.txt in dir.
func (lc LearningCurve) Save(dir string, overwrite bool) error {
	return storage.SaveMatrix(dir, "learning_curve.txt", lc.AsMatrix(), overwrite)
}

// ProgressInfo is passed to the optional progress callback after each update.
type ProgressInfo struct {
	Update  int
	Point   CurvePoint
	Current *DistributionGaussian
	New     *DistributionGaussian
}

// Options configures an optimization run.
type Options struct {
	NUpdates          int
	NSamplesPerUpdate int
	// SaveDirectory enables checkpointing when non-empty.
	SaveDirectory string
	Overwrite     bool
	// OnlyLearningCurve skips per-update checkpoints but still writes the
	// final learning curve.
	OnlyLearningCurve bool
	Progress          func(ProgressInfo)
}

// Validate rejects option combinations the loop cannot run with.
func (o Options) Validate() error {
	if o.NUpdates <= 0 {
		return fmt.Errorf("n_updates must be positive, got %d", o.NUpdates)
	}
	if o.NSamplesPerUpdate <= 0 {
		return fmt.Errorf("n_samples_per_update must be positive, got %d", o.NSamplesPerUpdate)
	}
	return nil
}

// RunOptimization runs the evaluate-sample-score-update loop for exactly
// opts.NUpdates iterations; there is no implicit convergence stop. A
// checkpoint failure aborts the run: a partial checkpoint trail would break
// resumability.
func RunOptimization(cost CostFunction, initial *DistributionGaussian, updater Updater,
	opts Options, rng *rand.Rand) (LearningCurve, error) {

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	distribution := initial.Clone()
	curve := make(LearningCurve, 0, opts.NUpdates)

	for iUpdate := 0; iUpdate < opts.NUpdates; iUpdate++ {
		// 1. Cost at the mean, diagnostic only.
		costEval := cost.Evaluate(distribution.Mean())

		// 2. Sample.
		samples, err := distribution.GenerateSamples(opts.NSamplesPerUpdate, rng)
		if err != nil {
			return curve, fmt.Errorf("update %d: %w", iUpdate, err)
		}

		// 3. Score.
		costs := make([]float64, opts.NSamplesPerUpdate)
		for k := 0; k < opts.NSamplesPerUpdate; k++ {
			costs[k] = cost.Evaluate(samples.RawRowView(k))
		}

		// 4. Update the distribution.
		weights, distributionNew, err := updater.Update(distribution, samples, costs)
		if err != nil {
			return curve, fmt.Errorf("update %d: %w", iUpdate, err)
		}

		// 5. Learning curve bookkeeping.
		maxEig, err := distribution.MaxEigenvalue()
		if err != nil {
			return curve, fmt.Errorf("update %d: %w", iUpdate, err)
		}
		point := CurvePoint{
			NumSamples:  iUpdate * opts.NSamplesPerUpdate,
			CostEval:    costEval,
			Exploration: math.Sqrt(maxEig),
		}
		curve = append(curve, point)

		// 6. Checkpoint.
		if opts.SaveDirectory != "" && !opts.OnlyLearningCurve {
			err := SaveUpdate(opts.SaveDirectory, iUpdate,
				[]*DistributionGaussian{distribution}, &costEval,
				samples, costs, weights,
				[]*DistributionGaussian{distributionNew}, opts.Overwrite)
			if err != nil {
				return curve, fmt.Errorf("checkpoint update %d: %w", iUpdate, err)
			}
		}

		if opts.Progress != nil {
			opts.Progress(ProgressInfo{Update: iUpdate, Point: point, Current: distribution, New: distributionNew})
		}

		// 7. The new distribution replaces the current one.
		distribution = distributionNew
	}

	if opts.SaveDirectory != "" {
		if err := curve.Save(opts.SaveDirectory, opts.Overwrite); err != nil {
			return curve, fmt.Errorf("save learning curve: %w", err)
		}
	}
	return curve, nil
}
