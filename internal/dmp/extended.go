package dmp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/dynsys"
	"github.com/gangLJG/dmpbbo/internal/funcapprox"
	"github.com/gangLJG/dmpbbo/internal/trajectory"
)

// ExtendedDmp decorates a Dmp with auxiliary output channels, one function
// approximator per channel, evaluated on the same phase signal. The base
// state-space dynamics are untouched; the extended channels are derived
// outputs only.
type ExtendedDmp struct {
	*Dmp
	extFas []funcapprox.FunctionApproximator

	// Step-path scratch, pre-sized at construction.
	extIn, extOut []float64

	extBaseline [][]float64
}

func NewExtended(base *Dmp, extFas []funcapprox.FunctionApproximator) (*ExtendedDmp, error) {
	if len(extFas) == 0 {
		return nil, fmt.Errorf("extended dmp needs at least one extended channel")
	}
	return &ExtendedDmp{
		Dmp:         base,
		extFas:      extFas,
		extIn:       make([]float64, 1),
		extOut:      make([]float64, 1),
		extBaseline: make([][]float64, len(extFas)),
	}, nil
}

// DimExtended returns the number of extended output channels.
func (e *ExtendedDmp) DimExtended() int { return len(e.extFas) }

// ComputeExtendedOutput evaluates every extended channel at a single phase
// value, writing into out. Allocation-free; out must have length DimExtended().
func (e *ExtendedDmp) ComputeExtendedOutput(phase float64, out []float64) error {
	if len(out) != e.DimExtended() {
		return dynsys.DimensionError{What: "extended output", Got: len(out), Expected: e.DimExtended()}
	}
	e.extIn[0] = phase
	for c, fa := range e.extFas {
		if !fa.IsTrained() {
			out[c] = 0
			continue
		}
		_ = fa.Predict(e.extIn, e.extOut)
		out[c] = e.extOut[0]
	}
	return nil
}

// ComputeExtendedOutputs evaluates every extended channel over a phase batch.
// out must be len(phases) x DimExtended().
func (e *ExtendedDmp) ComputeExtendedOutputs(phases []float64, out *mat.Dense) error {
	rows, cols := out.Dims()
	if rows != len(phases) || cols != e.DimExtended() {
		return fmt.Errorf("extended output buffer is %dx%d, expected %dx%d", rows, cols, len(phases), e.DimExtended())
	}
	col := make([]float64, len(phases))
	for c, fa := range e.extFas {
		if fa.IsTrained() {
			if err := fa.Predict(phases, col); err != nil {
				return err
			}
		} else {
			for i := range col {
				col[i] = 0
			}
		}
		out.SetCol(c, col)
	}
	return nil
}

// IntegrateStart starts the base system and fills the extended outputs for
// the initial phase.
func (e *ExtendedDmp) IntegrateStart(x, xd dynsys.State, extended []float64) error {
	if err := e.Dmp.IntegrateStart(x, xd); err != nil {
		return err
	}
	return e.ComputeExtendedOutput(x[2*e.DimDofs()], extended)
}

// IntegrateStep advances the base system and fills the extended outputs at
// the new phase. Allocation-free like the base step.
func (e *ExtendedDmp) IntegrateStep(dt float64, x, xNext, xdNext dynsys.State, extended []float64) error {
	if err := e.Dmp.IntegrateStep(dt, x, xNext, xdNext); err != nil {
		return err
	}
	return e.ComputeExtendedOutput(xNext[2*e.DimDofs()], extended)
}

// AnalyticalSolutionExtended evaluates the base system over ts and
// additionally returns the extended channel outputs as a T x DimExtended()
// matrix. The plain AnalyticalSolution of the embedded Dmp stays available
// for callers that only need the base channels.
func (e *ExtendedDmp) AnalyticalSolutionExtended(ts []float64) (xs, xds, forcingTerms, extOutputs *mat.Dense, err error) {
	xs, xds, forcingTerms, err = e.Dmp.AnalyticalSolution(ts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	phases := make([]float64, len(ts))
	for i, t := range ts {
		phases[i] = e.phase.ValueAt(t - ts[0])
	}
	extOutputs = mat.NewDense(len(ts), e.DimExtended(), nil)
	if err := e.ComputeExtendedOutputs(phases, extOutputs); err != nil {
		return nil, nil, nil, nil, err
	}
	return xs, xds, forcingTerms, extOutputs, nil
}

// Train trains the base dynamics on the trajectory and, independently, each
// extended channel on the corresponding misc column.
func (e *ExtendedDmp) Train(tr *trajectory.Trajectory) error {
	if tr.DimMisc() < e.DimExtended() {
		return fmt.Errorf("trajectory has %d misc channels, extended dmp needs %d", tr.DimMisc(), e.DimExtended())
	}
	if err := e.Dmp.Train(tr); err != nil {
		return err
	}

	n := tr.Len()
	phases := make([]float64, n)
	for i := 0; i < n; i++ {
		phases[i] = e.phase.ValueAt(tr.Times[i] - tr.Times[0])
	}
	targets := make([]float64, n)
	for c, fa := range e.extFas {
		for i := 0; i < n; i++ {
			targets[i] = tr.Misc.At(i, c)
		}
		if err := fa.Train(phases, targets); err != nil {
			return fmt.Errorf("train extended channel %d: %w", c, err)
		}
		e.extBaseline[c] = fa.ParameterVectorSelected()
	}
	return nil
}

// The extended parameter vector is the base vector followed by the extended
// models' vectors, in channel order. Sizes, masks and round trips account for
// both groups.

func (e *ExtendedDmp) SetSelectedParameters(labels []string) error {
	if err := e.Dmp.SetSelectedParameters(labels); err != nil {
		return err
	}
	for c, fa := range e.extFas {
		if err := fa.SetSelectedParameters(labels); err != nil {
			return fmt.Errorf("extended channel %d: %w", c, err)
		}
		if fa.IsTrained() {
			e.extBaseline[c] = fa.ParameterVectorSelected()
		}
	}
	return nil
}

func (e *ExtendedDmp) ParameterVectorAllSize() int {
	n := e.Dmp.ParameterVectorAllSize()
	for _, fa := range e.extFas {
		n += fa.ParameterVectorAllSize()
	}
	return n
}

func (e *ExtendedDmp) ParameterVectorAll() []float64 {
	out := make([]float64, 0, e.ParameterVectorAllSize())
	out = append(out, e.Dmp.ParameterVectorAll()...)
	for _, fa := range e.extFas {
		out = append(out, fa.ParameterVectorAll()...)
	}
	return out
}

func (e *ExtendedDmp) SetParameterVectorAll(values []float64) error {
	if len(values) != e.ParameterVectorAllSize() {
		return dynsys.DimensionError{
			What:     "parameter vector",
			Got:      len(values),
			Expected: e.ParameterVectorAllSize(),
		}
	}
	base := e.Dmp.ParameterVectorAllSize()
	if err := e.Dmp.SetParameterVectorAll(values[:base]); err != nil {
		return err
	}
	offset := base
	for c, fa := range e.extFas {
		size := fa.ParameterVectorAllSize()
		if err := fa.SetParameterVectorAll(values[offset : offset+size]); err != nil {
			return fmt.Errorf("extended channel %d: %w", c, err)
		}
		offset += size
	}
	return nil
}

func (e *ExtendedDmp) ParameterVectorMask(labels []string) ([]bool, error) {
	mask, err := e.Dmp.ParameterVectorMask(labels)
	if err != nil {
		return nil, err
	}
	for c, fa := range e.extFas {
		m, err := fa.ParameterVectorMask(labels)
		if err != nil {
			return nil, fmt.Errorf("extended channel %d: %w", c, err)
		}
		mask = append(mask, m...)
	}
	return mask, nil
}

func (e *ExtendedDmp) ParameterVectorSelectedSize() int {
	n := e.Dmp.ParameterVectorSelectedSize()
	for _, fa := range e.extFas {
		n += fa.ParameterVectorSelectedSize()
	}
	return n
}

func (e *ExtendedDmp) ParameterVectorSelected() []float64 {
	out := make([]float64, 0, e.ParameterVectorSelectedSize())
	out = append(out, e.Dmp.ParameterVectorSelected()...)
	for _, fa := range e.extFas {
		out = append(out, fa.ParameterVectorSelected()...)
	}
	return out
}

func (e *ExtendedDmp) SetParameterVectorSelected(values []float64) error {
	if len(values) != e.ParameterVectorSelectedSize() {
		return dynsys.DimensionError{
			What:     "selected parameter vector",
			Got:      len(values),
			Expected: e.ParameterVectorSelectedSize(),
		}
	}
	base := e.Dmp.ParameterVectorSelectedSize()
	if err := e.Dmp.SetParameterVectorSelected(values[:base]); err != nil {
		return err
	}
	offset := base
	for c, fa := range e.extFas {
		size := fa.ParameterVectorSelectedSize()
		if err := fa.SetParameterVectorSelected(values[offset : offset+size]); err != nil {
			return fmt.Errorf("extended channel %d: %w", c, err)
		}
		offset += size
	}
	return nil
}

// ExtendedFunctionApproximator returns the model for one extended channel.
func (e *ExtendedDmp) ExtendedFunctionApproximator(channel int) funcapprox.FunctionApproximator {
	return e.extFas[channel]
}
