package dynsys

import "math"

// SpringDamperSystem is a D-dimensional damped spring pulled toward an
// attractor: tau*zd = alpha*(beta*(goal-y) - z), tau*yd = z. The state is
// [y(D), z(D)] where z is the scaled velocity tau*yd. With beta = alpha/4 the
// system is critically damped.
type SpringDamperSystem struct {
	tau   float64
	y0    []float64
	goal  []float64
	alpha float64
	beta  float64
}

func NewSpringDamperSystem(tau float64, y0, goal []float64, alpha float64) *SpringDamperSystem {
	return &SpringDamperSystem{
		tau:   tau,
		y0:    append([]float64(nil), y0...),
		goal:  append([]float64(nil), goal...),
		alpha: alpha,
		beta:  alpha / 4.0,
	}
}

func (s *SpringDamperSystem) Dim() int        { return 2 * len(s.y0) }
func (s *SpringDamperSystem) DimDofs() int    { return len(s.y0) }
func (s *SpringDamperSystem) Tau() float64    { return s.tau }
func (s *SpringDamperSystem) Alpha() float64  { return s.alpha }
func (s *SpringDamperSystem) Beta() float64   { return s.beta }
func (s *SpringDamperSystem) Goal() []float64 { return s.goal }
func (s *SpringDamperSystem) Y0() []float64   { return s.y0 }

// Reconfigure replaces tau, start and attractor. Called when a primitive is
// retrained on a new trajectory.
func (s *SpringDamperSystem) Reconfigure(tau float64, y0, goal []float64) {
	s.tau = tau
	s.y0 = append(s.y0[:0], y0...)
	s.goal = append(s.goal[:0], goal...)
}

func (s *SpringDamperSystem) IntegrateStart(x, xd State) {
	d := s.DimDofs()
	for i := 0; i < d; i++ {
		x[i] = s.y0[i]
		x[d+i] = 0
	}
	s.Differential(x, xd)
}

func (s *SpringDamperSystem) Differential(x, xd State) {
	d := s.DimDofs()
	for i := 0; i < d; i++ {
		y, z := x[i], x[d+i]
		xd[i] = z / s.tau
		xd[d+i] = s.alpha * (s.beta*(s.goal[i]-y) - z) / s.tau
	}
}

// AnalyticalSolution fills the T x 2D matrices xs and xds (row-major slices of
// stride 2D) with the closed-form solution of the unforced, critically damped
// system. Valid only when beta == alpha/4.
func (s *SpringDamperSystem) AnalyticalSolution(ts []float64, xs, xds [][]float64) {
	d := s.DimDofs()
	// Critically damped: y(t) = g + (A + B t) e^{-omega t}, omega = alpha/(2 tau).
	omega := s.alpha / (2.0 * s.tau)
	for i, t := range ts {
		e := math.Exp(-omega * t)
		for j := 0; j < d; j++ {
			a := s.y0[j] - s.goal[j] // y(0) - g, with yd(0) = 0
			b := omega * a
			y := s.goal[j] + (a+b*t)*e
			yd := (b - omega*(a+b*t)) * e
			ydd := (-2*omega*b + omega*omega*(a+b*t)) * e
			xs[i][j] = y
			xs[i][d+j] = s.tau * yd
			xds[i][j] = yd
			xds[i][d+j] = s.tau * ydd
		}
	}
}
