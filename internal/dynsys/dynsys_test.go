package dynsys

import (
	"math"
	"testing"
)

func TestExponentialClosedFormMatchesStepping(t *testing.T) {
	sys := NewExponentialSystem(1.0, 1.0, 6.0)
	rk4 := NewRK4(1)

	x := make(State, 1)
	xd := make(State, 1)
	sys.IntegrateStart(x, xd)

	dt := 0.001
	xNext := make(State, 1)
	xdNext := make(State, 1)
	for i := 0; i < 500; i++ {
		if err := rk4.Step(sys, x, dt, xNext, xdNext); err != nil {
			t.Fatalf("step failed: %v", err)
		}
		copy(x, xNext)
	}

	want := sys.ValueAt(0.5)
	if math.Abs(x[0]-want) > 1e-9 {
		t.Errorf("stepped %g, closed form %g", x[0], want)
	}
}

func TestSpringDamperConvergesToGoal(t *testing.T) {
	sys := NewSpringDamperSystem(0.5, []float64{0, 1}, []float64{2, -1}, 20.0)
	rk4 := NewRK4(sys.Dim())

	x := make(State, sys.Dim())
	xd := make(State, sys.Dim())
	sys.IntegrateStart(x, xd)

	if x[0] != 0 || x[1] != 1 {
		t.Fatalf("start state wrong: %v", x)
	}

	dt := 0.001
	xNext := make(State, sys.Dim())
	xdNext := make(State, sys.Dim())
	for i := 0; i < 3000; i++ { // 3 s >> tau
		if err := rk4.Step(sys, x, dt, xNext, xdNext); err != nil {
			t.Fatal(err)
		}
		copy(x, xNext)
	}

	for j, g := range sys.Goal() {
		if math.Abs(x[j]-g) > 1e-3 {
			t.Errorf("dof %d did not converge: %g, goal %g", j, x[j], g)
		}
	}
}

func TestSpringDamperAnalyticalMatchesStepping(t *testing.T) {
	sys := NewSpringDamperSystem(1.0, []float64{0}, []float64{1}, 20.0)

	n := 101
	ts := make([]float64, n)
	xs := make([][]float64, n)
	xds := make([][]float64, n)
	for i := range ts {
		ts[i] = float64(i) * 0.01
		xs[i] = make([]float64, sys.Dim())
		xds[i] = make([]float64, sys.Dim())
	}
	sys.AnalyticalSolution(ts, xs, xds)

	rk4 := NewRK4(sys.Dim())
	x := make(State, sys.Dim())
	xd := make(State, sys.Dim())
	sys.IntegrateStart(x, xd)
	xNext := make(State, sys.Dim())
	xdNext := make(State, sys.Dim())

	for i := 1; i < n; i++ {
		if err := rk4.Step(sys, x, 0.01, xNext, xdNext); err != nil {
			t.Fatal(err)
		}
		copy(x, xNext)
		if math.Abs(x[0]-xs[i][0]) > 1e-4 {
			t.Fatalf("step %d: stepped y=%g, analytical y=%g", i, x[0], xs[i][0])
		}
	}
}

func TestRK4RejectsWrongStateLength(t *testing.T) {
	sys := NewExponentialSystem(1, 1, 6)
	rk4 := NewRK4(1)
	err := rk4.Step(sys, make(State, 2), 0.01, make(State, 1), make(State, 1))
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if _, ok := err.(DimensionError); !ok {
		t.Errorf("expected DimensionError, got %T", err)
	}
}

func BenchmarkRK4SpringDamper(b *testing.B) {
	sys := NewSpringDamperSystem(1.0, []float64{0, 0, 0}, []float64{1, 1, 1}, 20.0)
	rk4 := NewRK4(sys.Dim())
	x := make(State, sys.Dim())
	xd := make(State, sys.Dim())
	sys.IntegrateStart(x, xd)
	xNext := make(State, sys.Dim())
	xdNext := make(State, sys.Dim())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rk4.Step(sys, x, 0.001, xNext, xdNext)
		x, xNext = xNext, x
	}
}
