package bbo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Updater turns a scored sample population into a new search distribution.
// It must return one weight per sample and a valid (symmetric PSD
// covariance) distribution; how it weighs costs and adapts the covariance is
// its own business.
type Updater interface {
	Update(d *DistributionGaussian, samples *mat.Dense, costs []float64) (weights []float64, newDist *DistributionGaussian, err error)
}

// UpdaterCovarDecay performs reward-weighted averaging: costs are mapped to
// weights with an exponentiation controlled by Eliteness, the new mean is the
// weighted average of the samples, and the covariance is multiplied by
// DecayFactor squared. The decayed covariance stays symmetric PSD by
// construction.
type UpdaterCovarDecay struct {
	Eliteness   float64
	DecayFactor float64
}

func NewUpdaterCovarDecay(eliteness, decayFactor float64) (*UpdaterCovarDecay, error) {
	if eliteness <= 0 {
		return nil, fmt.Errorf("eliteness must be positive, got %f", eliteness)
	}
	if decayFactor <= 0 || decayFactor > 1 {
		return nil, fmt.Errorf("decay factor must be in (0, 1], got %f", decayFactor)
	}
	return &UpdaterCovarDecay{Eliteness: eliteness, DecayFactor: decayFactor}, nil
}

func (u *UpdaterCovarDecay) Update(d *DistributionGaussian, samples *mat.Dense, costs []float64) ([]float64, *DistributionGaussian, error) {
	n, dim := samples.Dims()
	if dim != d.Dim() {
		return nil, nil, fmt.Errorf("samples have %d columns, distribution has %d dims", dim, d.Dim())
	}
	if len(costs) != n {
		return nil, nil, fmt.Errorf("%d costs for %d samples", len(costs), n)
	}

	weights := u.costsToWeights(costs)

	newMean := make([]float64, dim)
	for k := 0; k < n; k++ {
		row := samples.RawRowView(k)
		for i := 0; i < dim; i++ {
			newMean[i] += weights[k] * row[i]
		}
	}

	decay2 := u.DecayFactor * u.DecayFactor
	newCovar := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			newCovar.SetSym(i, j, decay2*d.covar.At(i, j))
		}
	}

	newDist, err := NewDistributionGaussian(newMean, newCovar)
	if err != nil {
		return nil, nil, err
	}
	return weights, newDist, nil
}

// costsToWeights maps costs to normalized weights in [0,1]:
// w_k = exp(-eliteness * (c_k - min) / (max - min)), then normalized to sum 1.
func (u *UpdaterCovarDecay) costsToWeights(costs []float64) []float64 {
	min, max := costs[0], costs[0]
	for _, c := range costs {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}

	weights := make([]float64, len(costs))
	if max == min {
		for k := range weights {
			weights[k] = 1.0 / float64(len(costs))
		}
		return weights
	}

	sum := 0.0
	for k, c := range costs {
		weights[k] = math.Exp(-u.Eliteness * (c - min) / (max - min))
		sum += weights[k]
	}
	for k := range weights {
		weights[k] /= sum
	}
	return weights
}
