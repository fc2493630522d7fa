// Package bbo implements distribution-based black-box optimization: a
// Gaussian search distribution is sampled, candidates are scored by a cost
// function, and a pluggable updater moves the distribution toward lower cost.
package bbo

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DistributionGaussian is a multivariate Gaussian search distribution. The
// covariance stays symmetric positive semi-definite across updates; updaters
// construct new instances rather than mutating fields.
type DistributionGaussian struct {
	mean  *mat.VecDense
	covar *mat.SymDense
}

// NewDistributionGaussian copies mean and covar into a new distribution.
func NewDistributionGaussian(mean []float64, covar *mat.SymDense) (*DistributionGaussian, error) {
	if covar.SymmetricDim() != len(mean) {
		return nil, fmt.Errorf("mean has %d dims, covariance is %dx%d",
			len(mean), covar.SymmetricDim(), covar.SymmetricDim())
	}
	c := mat.NewSymDense(covar.SymmetricDim(), nil)
	c.CopySym(covar)
	return &DistributionGaussian{
		mean:  mat.NewVecDense(len(mean), append([]float64(nil), mean...)),
		covar: c,
	}, nil
}

// NewDiagonalDistribution builds a distribution with covariance
// variance * identity.
func NewDiagonalDistribution(mean []float64, variance float64) *DistributionGaussian {
	n := len(mean)
	covar := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		covar.SetSym(i, i, variance)
	}
	d, _ := NewDistributionGaussian(mean, covar)
	return d
}

func (d *DistributionGaussian) Dim() int { return d.mean.Len() }

// Mean returns the mean as a plain slice copy.
func (d *DistributionGaussian) Mean() []float64 {
	out := make([]float64, d.mean.Len())
	copy(out, d.mean.RawVector().Data)
	return out
}

// MeanVec returns the mean vector for read-only use.
func (d *DistributionGaussian) MeanVec() *mat.VecDense { return d.mean }

// Covar returns the covariance for read-only use.
func (d *DistributionGaussian) Covar() *mat.SymDense { return d.covar }

func (d *DistributionGaussian) Clone() *DistributionGaussian {
	c, _ := NewDistributionGaussian(d.Mean(), d.covar)
	return c
}

// GenerateSamples draws n i.i.d. samples, one per row of the returned
// n x Dim() matrix, using the Cholesky factor of the covariance. A covariance
// that cannot be factorized (numerically degenerate) is an error; recovery is
// the updater's concern, not the sampler's.
func (d *DistributionGaussian) GenerateSamples(n int, rng *rand.Rand) (*mat.Dense, error) {
	dim := d.Dim()

	var chol mat.Cholesky
	if !chol.Factorize(d.covar) {
		return nil, fmt.Errorf("covariance is not positive definite")
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	samples := mat.NewDense(n, dim, nil)
	z := mat.NewVecDense(dim, nil)
	y := mat.NewVecDense(dim, nil)
	for k := 0; k < n; k++ {
		for i := 0; i < dim; i++ {
			z.SetVec(i, rng.NormFloat64())
		}
		y.MulVec(&lower, z)
		for i := 0; i < dim; i++ {
			samples.Set(k, i, d.mean.AtVec(i)+y.AtVec(i))
		}
	}
	return samples, nil
}

// MaxEigenvalue returns the largest eigenvalue of the covariance. Its square
// root is the spread diagnostic recorded on the learning curve.
func (d *DistributionGaussian) MaxEigenvalue() (float64, error) {
	var eig mat.EigenSym
	if !eig.Factorize(d.covar, false) {
		return 0, fmt.Errorf("eigendecomposition of covariance failed")
	}
	maxEig := math.Inf(-1)
	for _, v := range eig.Values(nil) {
		if v > maxEig {
			maxEig = v
		}
	}
	return maxEig, nil
}

func (d *DistributionGaussian) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "N(mean=%v", d.Mean())
	fmt.Fprintf(&b, ", covar=%.4g)", mat.Formatted(d.covar, mat.Prefix(""), mat.Squeeze()))
	return b.String()
}
