package bbo

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/storage"
)

// SaveUpdate checkpoints one optimization iteration under
// <dir>/update<5-digit index>/. With a single distribution the files are
// distribution_{mean,covar}.txt and distribution_new_{mean,covar}.txt; with
// several parallel distributions, n_parallel.txt plus
// distribution_<3-digit group>_{mean,covar}.txt variants. Empty matrices are
// omitted; costEval is written only when non-nil.
func SaveUpdate(dir string, iUpdate int, dists []*DistributionGaussian, costEval *float64,
	samples *mat.Dense, costs, weights []float64, distsNew []*DistributionGaussian, overwrite bool) error {

	if len(dists) != len(distsNew) {
		return fmt.Errorf("%d current distributions, %d new", len(dists), len(distsNew))
	}
	updateDir := filepath.Join(dir, fmt.Sprintf("update%05d", iUpdate))

	if len(dists) == 1 {
		if err := saveDistribution(updateDir, "distribution", dists[0], overwrite); err != nil {
			return err
		}
	} else {
		nParallel := mat.NewDense(1, 1, []float64{float64(len(dists))})
		if err := storage.SaveMatrix(updateDir, "n_parallel.txt", nParallel, overwrite); err != nil {
			return err
		}
		for g, d := range dists {
			name := fmt.Sprintf("distribution_%03d", g)
			if err := saveDistribution(updateDir, name, d, overwrite); err != nil {
				return err
			}
		}
	}

	if costEval != nil {
		ce := mat.NewDense(1, 1, []float64{*costEval})
		if err := storage.SaveMatrix(updateDir, "cost_eval.txt", ce, overwrite); err != nil {
			return err
		}
	}

	if samples != nil {
		if rows, _ := samples.Dims(); rows > 0 {
			if err := storage.SaveMatrix(updateDir, "samples.txt", samples, overwrite); err != nil {
				return err
			}
		}
	}
	if len(costs) > 0 {
		if err := storage.SaveVector(updateDir, "costs.txt", costs, overwrite); err != nil {
			return err
		}
	}
	if len(weights) > 0 {
		if err := storage.SaveVector(updateDir, "weights.txt", weights, overwrite); err != nil {
			return err
		}
	}

	if len(distsNew) == 1 {
		return saveDistribution(updateDir, "distribution_new", distsNew[0], overwrite)
	}
	for g, d := range distsNew {
		name := fmt.Sprintf("distribution_new_%03d", g)
		if err := saveDistribution(updateDir, name, d, overwrite); err != nil {
			return err
		}
	}
	return nil
}

func saveDistribution(dir, prefix string, d *DistributionGaussian, overwrite bool) error {
	mean := mat.NewDense(d.Dim(), 1, d.Mean())
	if err := storage.SaveMatrix(dir, prefix+"_mean.txt", mean, overwrite); err != nil {
		return err
	}
	return storage.SaveMatrix(dir, prefix+"_covar.txt", d.Covar(), overwrite)
}
