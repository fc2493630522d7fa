package dynsys

// RK4 advances a System with classical fourth-order Runge-Kutta steps. All
// scratch is allocated once, so Step is safe inside a control loop.
type RK4 struct {
	k1, k2, k3, k4 State
	scratch        State
}

func NewRK4(dim int) *RK4 {
	return &RK4{
		k1:      make(State, dim),
		k2:      make(State, dim),
		k3:      make(State, dim),
		k4:      make(State, dim),
		scratch: make(State, dim),
	}
}

// Resize re-sizes the scratch buffers. Invoked only when the system
// dimensionality changes, never on the step path.
func (r *RK4) Resize(dim int) {
	if len(r.k1) == dim {
		return
	}
	r.k1 = make(State, dim)
	r.k2 = make(State, dim)
	r.k3 = make(State, dim)
	r.k4 = make(State, dim)
	r.scratch = make(State, dim)
}

// Step writes the state after dt into xNext and the rate at xNext into
// xdNext. x, xNext and xdNext must all have the system's dimension.
func (r *RK4) Step(sys System, x State, dt float64, xNext, xdNext State) error {
	n := sys.Dim()
	if err := checkDim("state", len(x), n); err != nil {
		return err
	}
	if err := checkDim("next state", len(xNext), n); err != nil {
		return err
	}
	if err := checkDim("next state rate", len(xdNext), n); err != nil {
		return err
	}

	sys.Differential(x, r.k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	sys.Differential(r.scratch, r.k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	sys.Differential(r.scratch, r.k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	sys.Differential(r.scratch, r.k4)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		xNext[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	sys.Differential(xNext, xdNext)
	return nil
}
