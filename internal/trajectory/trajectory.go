package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/storage"
)

// Trajectory is a time-indexed sequence of position, velocity and
// acceleration vectors, one column per degree of freedom, plus optional
// auxiliary (misc) channels aligned to the same time grid.
type Trajectory struct {
	Times []float64
	Ys    *mat.Dense // T x D positions
	Yds   *mat.Dense // T x D velocities
	Ydds  *mat.Dense // T x D accelerations
	Misc  *mat.Dense // T x M auxiliary channels, may be nil
}

// New validates the shapes and the time ordering invariant and wraps the
// matrices in a Trajectory. The matrices are not copied.
func New(times []float64, ys, yds, ydds *mat.Dense) (*Trajectory, error) {
	tr := &Trajectory{Times: times, Ys: ys, Yds: yds, Ydds: ydds}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return tr, nil
}

func (tr *Trajectory) Validate() error {
	n := len(tr.Times)
	if n == 0 {
		return fmt.Errorf("trajectory has no time steps")
	}
	for i := 1; i < n; i++ {
		if tr.Times[i] < tr.Times[i-1] {
			return fmt.Errorf("times not non-decreasing at index %d: %f < %f", i, tr.Times[i], tr.Times[i-1])
		}
	}
	for _, m := range []struct {
		name string
		mat  *mat.Dense
	}{{"ys", tr.Ys}, {"yds", tr.Yds}, {"ydds", tr.Ydds}} {
		if m.mat == nil {
			return fmt.Errorf("trajectory %s is nil", m.name)
		}
		rows, cols := m.mat.Dims()
		if rows != n {
			return fmt.Errorf("trajectory %s has %d rows, expected %d", m.name, rows, n)
		}
		if cols != tr.Dim() {
			return fmt.Errorf("trajectory %s has %d columns, expected %d", m.name, cols, tr.Dim())
		}
	}
	if tr.Misc != nil {
		rows, _ := tr.Misc.Dims()
		if rows != n {
			return fmt.Errorf("trajectory misc has %d rows, expected %d", rows, n)
		}
	}
	return nil
}

// Len returns the number of time steps.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// Dim returns the number of degrees of freedom.
func (tr *Trajectory) Dim() int {
	_, cols := tr.Ys.Dims()
	return cols
}

// DimMisc returns the number of auxiliary channels.
func (tr *Trajectory) DimMisc() int {
	if tr.Misc == nil {
		return 0
	}
	_, cols := tr.Misc.Dims()
	return cols
}

// Duration returns the time span covered by the trajectory.
func (tr *Trajectory) Duration() float64 {
	return tr.Times[len(tr.Times)-1] - tr.Times[0]
}

// Start returns the initial position row.
func (tr *Trajectory) Start() []float64 {
	return rowOf(tr.Ys, 0)
}

// End returns the final position row.
func (tr *Trajectory) End() []float64 {
	return rowOf(tr.Ys, tr.Len()-1)
}

func rowOf(m *mat.Dense, i int) []float64 {
	_, cols := m.Dims()
	out := make([]float64, cols)
	mat.Row(out, i, m)
	return out
}

// AsMatrix flattens the trajectory into a T x (1+3D+M) matrix with column
// order [time, ys, yds, ydds, misc].
func (tr *Trajectory) AsMatrix() *mat.Dense {
	n, d, m := tr.Len(), tr.Dim(), tr.DimMisc()
	out := mat.NewDense(n, 1+3*d+m, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, tr.Times[i])
		for j := 0; j < d; j++ {
			out.Set(i, 1+j, tr.Ys.At(i, j))
			out.Set(i, 1+d+j, tr.Yds.At(i, j))
			out.Set(i, 1+2*d+j, tr.Ydds.At(i, j))
		}
		for j := 0; j < m; j++ {
			out.Set(i, 1+3*d+j, tr.Misc.At(i, j))
		}
	}
	return out
}

// SaveToFile writes the flattened trajectory as whitespace-delimited text.
func (tr *Trajectory) SaveToFile(dir, name string, overwrite bool) error {
	return storage.SaveMatrix(dir, name, tr.AsMatrix(), overwrite)
}

// NewMinJerk generates a minimum-jerk trajectory from y0 to yend over the
// supplied time grid. Positions follow the 10-15-6 polynomial; velocities and
// accelerations are its analytical derivatives.
func NewMinJerk(times []float64, y0, yend []float64) (*Trajectory, error) {
	if len(y0) != len(yend) {
		return nil, fmt.Errorf("y0 has %d dims, yend has %d", len(y0), len(yend))
	}
	n, d := len(times), len(y0)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 time steps, got %d", n)
	}

	duration := times[n-1] - times[0]
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", duration)
	}

	ys := mat.NewDense(n, d, nil)
	yds := mat.NewDense(n, d, nil)
	ydds := mat.NewDense(n, d, nil)

	for i := 0; i < n; i++ {
		s := (times[i] - times[0]) / duration
		pos := 10*s*s*s - 15*s*s*s*s + 6*s*s*s*s*s
		vel := (30*s*s - 60*s*s*s + 30*s*s*s*s) / duration
		acc := (60*s - 180*s*s + 120*s*s*s) / (duration * duration)
		for j := 0; j < d; j++ {
			delta := yend[j] - y0[j]
			ys.Set(i, j, y0[j]+pos*delta)
			yds.Set(i, j, vel*delta)
			ydds.Set(i, j, acc*delta)
		}
	}

	return New(times, ys, yds, ydds)
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}
