// Package dmp implements dynamical movement primitives: a critically damped
// spring-damper system per degree of freedom, shaped by a learned forcing
// term that is driven by an exponentially decaying phase variable.
package dmp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/dynsys"
	"github.com/gangLJG/dmpbbo/internal/funcapprox"
	"github.com/gangLJG/dmpbbo/internal/trajectory"
)

const (
	// DefaultAlphaSpring gives a critically damped spring with beta = alpha/4.
	DefaultAlphaSpring = 20.0
	// DefaultAlphaPhase decays the phase to exp(-6) ~ 0.25% at t = tau.
	DefaultAlphaPhase = 6.0
)

// Dmp couples a spring-damper system with one trained function approximator
// per degree of freedom. State layout: [y (D), z (D), phase (1)] where
// z = tau*yd. The forcing term for dof d is fa_d(phase) * phase, so it
// vanishes as the phase decays and the attractor dynamics take over.
type Dmp struct {
	tau        float64
	alphaPhase float64

	spring *dynsys.SpringDamperSystem
	phase  *dynsys.ExponentialSystem
	fas    []funcapprox.FunctionApproximator

	rk4 *dynsys.RK4

	// Step-path scratch, sized once at construction.
	faIn, faOut []float64

	// Selected parameter values captured at training time, per dof. The
	// reference point for normalized (offset) parameter updates.
	baseline [][]float64
}

// New constructs a Dmp for len(y0) degrees of freedom. The function
// approximators may be untrained; the forcing term is zero until Train.
func New(tau float64, y0, goal []float64, fas []funcapprox.FunctionApproximator) (*Dmp, error) {
	if len(y0) == 0 {
		return nil, fmt.Errorf("dmp needs at least one degree of freedom")
	}
	if len(goal) != len(y0) {
		return nil, fmt.Errorf("y0 has %d dims, goal has %d", len(y0), len(goal))
	}
	if len(fas) != len(y0) {
		return nil, fmt.Errorf("%d function approximators for %d dofs", len(fas), len(y0))
	}
	if tau <= 0 {
		return nil, fmt.Errorf("tau must be positive, got %f", tau)
	}

	d := &Dmp{
		tau:        tau,
		alphaPhase: DefaultAlphaPhase,
		spring:     dynsys.NewSpringDamperSystem(tau, y0, goal, DefaultAlphaSpring),
		phase:      dynsys.NewExponentialSystem(tau, 1.0, DefaultAlphaPhase),
		fas:        fas,
		faIn:       make([]float64, 1),
		faOut:      make([]float64, 1),
		baseline:   make([][]float64, len(y0)),
	}
	d.rk4 = dynsys.NewRK4(d.Dim())
	return d, nil
}

func (d *Dmp) Tau() float64    { return d.tau }
func (d *Dmp) DimDofs() int    { return d.spring.DimDofs() }
func (d *Dmp) Dim() int        { return 2*d.spring.DimDofs() + 1 }
func (d *Dmp) Y0() []float64   { return d.spring.Y0() }
func (d *Dmp) Goal() []float64 { return d.spring.Goal() }

// forcing evaluates the forcing term of one dof at the given phase. An
// untrained model contributes no forcing.
func (d *Dmp) forcing(phase float64, dof int) float64 {
	fa := d.fas[dof]
	if !fa.IsTrained() {
		return 0
	}
	d.faIn[0] = phase
	// Lengths are fixed at 1 and the model is trained; Predict cannot fail.
	_ = fa.Predict(d.faIn, d.faOut)
	return d.faOut[0] * phase
}

// Differential implements dynsys.System. It does not allocate.
func (d *Dmp) Differential(x, xd dynsys.State) {
	nd := d.DimDofs()
	phase := x[2*nd]
	alpha, beta := d.spring.Alpha(), d.spring.Beta()
	goal := d.spring.Goal()

	for i := 0; i < nd; i++ {
		y, z := x[i], x[nd+i]
		xd[i] = z / d.tau
		xd[nd+i] = (alpha*(beta*(goal[i]-y)-z) + d.forcing(phase, i)) / d.tau
	}
	xd[2*nd] = -d.alphaPhase * phase / d.tau
}

// IntegrateStart writes the initial state and its rate. x and xd must have
// length Dim().
func (d *Dmp) IntegrateStart(x, xd dynsys.State) error {
	if len(x) != d.Dim() {
		return dynsys.DimensionError{What: "state", Got: len(x), Expected: d.Dim()}
	}
	if len(xd) != d.Dim() {
		return dynsys.DimensionError{What: "state rate", Got: len(xd), Expected: d.Dim()}
	}
	nd := d.DimDofs()
	y0 := d.spring.Y0()
	for i := 0; i < nd; i++ {
		x[i] = y0[i]
		x[nd+i] = 0
	}
	x[2*nd] = 1.0
	d.Differential(x, xd)
	return nil
}

// IntegrateStep advances the state by dt with a single RK4 step. All scratch
// buffers are pre-sized; nothing allocates on this path.
func (d *Dmp) IntegrateStep(dt float64, x, xNext, xdNext dynsys.State) error {
	return d.rk4.Step(d, x, dt, xNext, xdNext)
}

// AnalyticalSolution evaluates the system over the time grid ts, time-major:
// xs and xds are T x Dim(), forcingTerms is T x D. The phase and the forcing
// terms are closed-form at every node; the spring states are advanced across
// the grid using those exact nodal values. ts must be non-decreasing.
func (d *Dmp) AnalyticalSolution(ts []float64) (xs, xds, forcingTerms *mat.Dense, err error) {
	xs = mat.NewDense(len(ts), d.Dim(), nil)
	xds = mat.NewDense(len(ts), d.Dim(), nil)
	forcingTerms = mat.NewDense(len(ts), d.DimDofs(), nil)
	if err := d.AnalyticalSolutionInto(ts, xs, xds, forcingTerms); err != nil {
		return nil, nil, nil, err
	}
	return xs, xds, forcingTerms, nil
}

// AnalyticalSolutionInto is AnalyticalSolution writing into caller-supplied
// buffers. Each buffer may be shaped time-major (T x N) or dimension-major
// (N x T); the orientation is matched per buffer.
func (d *Dmp) AnalyticalSolutionInto(ts []float64, xs, xds, forcingTerms *mat.Dense) error {
	n := len(ts)
	if n == 0 {
		return fmt.Errorf("analytical solution needs at least one time point")
	}
	for i := 1; i < n; i++ {
		if ts[i] < ts[i-1] {
			return fmt.Errorf("times not non-decreasing at index %d", i)
		}
	}
	if err := checkBufferShape("xs", xs, n, d.Dim()); err != nil {
		return err
	}
	if err := checkBufferShape("xds", xds, n, d.Dim()); err != nil {
		return err
	}
	if err := checkBufferShape("forcing terms", forcingTerms, n, d.DimDofs()); err != nil {
		return err
	}

	nd := d.DimDofs()
	alpha, beta := d.spring.Alpha(), d.spring.Beta()
	goal, y0 := d.spring.Goal(), d.spring.Y0()

	// Closed-form phase and forcing at every node.
	phases := make([]float64, n)
	for i, t := range ts {
		phases[i] = d.phase.ValueAt(t - ts[0])
	}
	forcing := make([][]float64, nd)
	for j := 0; j < nd; j++ {
		forcing[j] = make([]float64, n)
		if d.fas[j].IsTrained() {
			if err := d.fas[j].Predict(phases, forcing[j]); err != nil {
				return err
			}
		}
		for i := range forcing[j] {
			forcing[j][i] *= phases[i]
		}
	}

	xsTimeMajor := isTimeMajor(xs, n, d.Dim())
	xdsTimeMajor := isTimeMajor(xds, n, d.Dim())
	forcingTimeMajor := isTimeMajor(forcingTerms, n, d.DimDofs())

	x := make([]float64, d.Dim())
	xd := make([]float64, d.Dim())
	rates := func(i int) {
		for j := 0; j < nd; j++ {
			xd[j] = x[nd+j] / d.tau
			xd[nd+j] = (alpha*(beta*(goal[j]-x[j])-x[nd+j]) + forcing[j][i]) / d.tau
		}
		xd[2*nd] = -d.alphaPhase * phases[i] / d.tau
	}

	for i := 0; i < n; i++ {
		if i == 0 {
			for j := 0; j < nd; j++ {
				x[j] = y0[j]
				x[nd+j] = 0
			}
		} else {
			dt := ts[i] - ts[i-1]
			for j := 0; j < 2*nd; j++ {
				x[j] += dt * xd[j]
			}
		}
		x[2*nd] = phases[i]
		rates(i)

		setOriented(xs, xsTimeMajor, i, x)
		setOriented(xds, xdsTimeMajor, i, xd)
		for j := 0; j < nd; j++ {
			if forcingTimeMajor {
				forcingTerms.Set(i, j, forcing[j][i])
			} else {
				forcingTerms.Set(j, i, forcing[j][i])
			}
		}
	}
	return nil
}

func checkBufferShape(name string, m *mat.Dense, n, dim int) error {
	rows, cols := m.Dims()
	if (rows == n && cols == dim) || (rows == dim && cols == n) {
		return nil
	}
	return fmt.Errorf("%s buffer is %dx%d, expected %dx%d or %dx%d", name, rows, cols, n, dim, dim, n)
}

// isTimeMajor reports whether the buffer is laid out T x dim. A square
// buffer is treated as time-major, the default layout.
func isTimeMajor(m *mat.Dense, n, dim int) bool {
	rows, cols := m.Dims()
	return rows == n && cols == dim
}

// setOriented writes time step i of a result into the buffer, transposing
// when the buffer is dimension-major.
func setOriented(m *mat.Dense, timeMajor bool, i int, values []float64) {
	if timeMajor {
		m.SetRow(i, values)
		return
	}
	for j, v := range values {
		m.Set(j, i, v)
	}
}

// StatesAsTrajectory converts time-major state matrices from
// AnalyticalSolution into a physical trajectory: positions y, velocities
// z/tau and accelerations zd/tau.
func (d *Dmp) StatesAsTrajectory(ts []float64, xs, xds *mat.Dense) (*trajectory.Trajectory, error) {
	n, nd := len(ts), d.DimDofs()
	rows, cols := xs.Dims()
	if rows != n || cols != d.Dim() {
		return nil, fmt.Errorf("xs is %dx%d, expected time-major %dx%d", rows, cols, n, d.Dim())
	}
	rows, cols = xds.Dims()
	if rows != n || cols != d.Dim() {
		return nil, fmt.Errorf("xds is %dx%d, expected time-major %dx%d", rows, cols, n, d.Dim())
	}

	ys := mat.NewDense(n, nd, nil)
	yds := mat.NewDense(n, nd, nil)
	ydds := mat.NewDense(n, nd, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nd; j++ {
			ys.Set(i, j, xs.At(i, j))
			yds.Set(i, j, xs.At(i, nd+j)/d.tau)
			ydds.Set(i, j, xds.At(i, nd+j)/d.tau)
		}
	}
	return trajectory.New(ts, ys, yds, ydds)
}

// Train fits each dof's function approximator so that the trajectory is
// reproduced: tau, start and attractor are taken from the trajectory and the
// forcing profile is derived by inverting the dynamics equation.
func (d *Dmp) Train(tr *trajectory.Trajectory) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	if tr.Dim() != d.DimDofs() {
		return dynsys.DimensionError{What: "trajectory dofs", Got: tr.Dim(), Expected: d.DimDofs()}
	}

	d.tau = tr.Duration()
	if d.tau <= 0 {
		return fmt.Errorf("trajectory duration must be positive, got %f", d.tau)
	}
	d.spring.Reconfigure(d.tau, tr.Start(), tr.End())
	d.phase.SetTau(d.tau)

	n := tr.Len()
	phases := make([]float64, n)
	for i := 0; i < n; i++ {
		phases[i] = d.phase.ValueAt(tr.Times[i] - tr.Times[0])
	}

	alpha, beta := d.spring.Alpha(), d.spring.Beta()
	goal := d.spring.Goal()
	targets := make([]float64, n)
	for j := 0; j < d.DimDofs(); j++ {
		for i := 0; i < n; i++ {
			y := tr.Ys.At(i, j)
			yd := tr.Yds.At(i, j)
			ydd := tr.Ydds.At(i, j)
			// Invert tau*zd = alpha*(beta*(g-y)-z) + f with z = tau*yd.
			f := d.tau*d.tau*ydd - alpha*(beta*(goal[j]-y)-d.tau*yd)
			targets[i] = f / phases[i]
		}
		if err := d.fas[j].Train(phases, targets); err != nil {
			return fmt.Errorf("train dof %d: %w", j, err)
		}
		d.baseline[j] = d.fas[j].ParameterVectorSelected()
	}
	return nil
}
