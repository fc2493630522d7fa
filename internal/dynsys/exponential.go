package dynsys

import "math"

// ExponentialSystem decays its state exponentially toward zero:
// tau * xd = -alpha * x. It drives the canonical phase of a movement
// primitive, so its closed-form solution matters more than its step path.
type ExponentialSystem struct {
	tau   float64
	x0    float64
	alpha float64
}

func NewExponentialSystem(tau, x0, alpha float64) *ExponentialSystem {
	return &ExponentialSystem{tau: tau, x0: x0, alpha: alpha}
}

func (s *ExponentialSystem) Dim() int         { return 1 }
func (s *ExponentialSystem) Tau() float64     { return s.tau }
func (s *ExponentialSystem) SetTau(t float64) { s.tau = t }

func (s *ExponentialSystem) IntegrateStart(x, xd State) {
	x[0] = s.x0
	s.Differential(x, xd)
}

func (s *ExponentialSystem) Differential(x, xd State) {
	xd[0] = -s.alpha * x[0] / s.tau
}

// ValueAt returns the closed-form solution x(t) = x0 * exp(-alpha*t/tau).
func (s *ExponentialSystem) ValueAt(t float64) float64 {
	return s.x0 * math.Exp(-s.alpha*t/s.tau)
}

// AnalyticalSolution fills xs and xds with the closed-form state and rate at
// each time point. Times need not be ordered.
func (s *ExponentialSystem) AnalyticalSolution(ts []float64, xs, xds []float64) {
	for i, t := range ts {
		xs[i] = s.ValueAt(t)
		xds[i] = -s.alpha * xs[i] / s.tau
	}
}
