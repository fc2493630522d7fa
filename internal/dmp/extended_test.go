package dmp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/dynsys"
	"github.com/gangLJG/dmpbbo/internal/funcapprox"
	"github.com/gangLJG/dmpbbo/internal/trajectory"
)

func trainedExtendedDmp(t *testing.T, dofs, extChannels int) (*ExtendedDmp, *trajectory.Trajectory) {
	t.Helper()
	base := newTestDmp(t, dofs, 12)
	extFas := make([]funcapprox.FunctionApproximator, extChannels)
	for i := range extFas {
		extFas[i] = funcapprox.NewRBFN(10)
	}
	e, err := NewExtended(base, extFas)
	if err != nil {
		t.Fatal(err)
	}

	ts := trajectory.Linspace(0, 1.0, 201)
	y0 := make([]float64, dofs)
	yend := make([]float64, dofs)
	for i := range yend {
		yend[i] = 1.0
	}
	tr, err := trajectory.NewMinJerk(ts, y0, yend)
	if err != nil {
		t.Fatal(err)
	}
	misc := mat.NewDense(len(ts), extChannels, nil)
	for i, tv := range ts {
		for c := 0; c < extChannels; c++ {
			misc.Set(i, c, math.Sin(2*math.Pi*tv*float64(c+1)))
		}
	}
	tr.Misc = misc

	if err := e.Train(tr); err != nil {
		t.Fatalf("extended train failed: %v", err)
	}
	return e, tr
}

func TestExtendedTrainsChannels(t *testing.T) {
	e, tr := trainedExtendedDmp(t, 2, 2)

	if e.DimExtended() != 2 {
		t.Fatalf("dim extended = %d", e.DimExtended())
	}

	_, _, _, extOut, err := e.AnalyticalSolutionExtended(tr.Times)
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := extOut.Dims()
	if rows != tr.Len() || cols != 2 {
		t.Fatalf("extended outputs are %dx%d", rows, cols)
	}

	// the extended channels approximate their misc targets; the sin(4*pi*t)
	// channel is at the resolution limit of 10 kernels on the exponentially
	// warped phase input, so the fit is coarse
	maxErr := 0.0
	for i := 0; i < rows; i++ {
		for c := 0; c < cols; c++ {
			if err := math.Abs(extOut.At(i, c) - tr.Misc.At(i, c)); err > maxErr {
				maxErr = err
			}
		}
	}
	if maxErr > 0.3 {
		t.Errorf("max extended channel error %g", maxErr)
	}
}

func TestExtendedIndependenceFromBase(t *testing.T) {
	e, tr := trainedExtendedDmp(t, 2, 1)

	xsBefore, xdsBefore, _, _, err := e.AnalyticalSolutionExtended(tr.Times)
	if err != nil {
		t.Fatal(err)
	}

	// zero out only the extended channel's parameters
	ext := e.ExtendedFunctionApproximator(0)
	zeros := make([]float64, ext.ParameterVectorSelectedSize())
	if err := ext.SetParameterVectorSelected(zeros); err != nil {
		t.Fatal(err)
	}

	xsAfter, xdsAfter, _, extAfter, err := e.AnalyticalSolutionExtended(tr.Times)
	if err != nil {
		t.Fatal(err)
	}

	if !mat.EqualApprox(xsBefore, xsAfter, 0) || !mat.EqualApprox(xdsBefore, xdsAfter, 0) {
		t.Error("mutating extended parameters changed the base dynamics")
	}

	// zeroed weights silence the extended output
	rows, _ := extAfter.Dims()
	for i := 0; i < rows; i++ {
		if math.Abs(extAfter.At(i, 0)) > 1e-9 {
			t.Fatalf("extended output not zero at row %d: %g", i, extAfter.At(i, 0))
		}
	}
}

func TestExtendedParameterVectorConcatenation(t *testing.T) {
	e, _ := trainedExtendedDmp(t, 2, 2)

	baseAll := e.Dmp.ParameterVectorAllSize()
	extAll := 0
	for c := 0; c < e.DimExtended(); c++ {
		extAll += e.ExtendedFunctionApproximator(c).ParameterVectorAllSize()
	}
	if e.ParameterVectorAllSize() != baseAll+extAll {
		t.Errorf("all size %d, expected %d", e.ParameterVectorAllSize(), baseAll+extAll)
	}

	all := e.ParameterVectorAll()
	if len(all) != e.ParameterVectorAllSize() {
		t.Fatalf("vector length %d, size query %d", len(all), e.ParameterVectorAllSize())
	}
	if err := e.SetParameterVectorAll(all); err != nil {
		t.Fatal(err)
	}
	after := e.ParameterVectorAll()
	for i := range all {
		if all[i] != after[i] {
			t.Fatalf("round trip changed index %d", i)
		}
	}

	mask, err := e.ParameterVectorMask([]string{funcapprox.LabelWeights})
	if err != nil {
		t.Fatal(err)
	}
	if len(mask) != e.ParameterVectorAllSize() {
		t.Errorf("mask length %d, all size %d", len(mask), e.ParameterVectorAllSize())
	}
}

func TestExtendedIntegrateStep(t *testing.T) {
	e, _ := trainedExtendedDmp(t, 1, 1)

	x := make(dynsys.State, e.Dim())
	xd := make(dynsys.State, e.Dim())
	extended := make([]float64, e.DimExtended())
	if err := e.IntegrateStart(x, xd, extended); err != nil {
		t.Fatal(err)
	}

	xNext := make(dynsys.State, e.Dim())
	xdNext := make(dynsys.State, e.Dim())
	for i := 0; i < 100; i++ {
		if err := e.IntegrateStep(0.005, x, xNext, xdNext, extended); err != nil {
			t.Fatal(err)
		}
		copy(x, xNext)
	}

	// at t=0.5 the misc target sin(2*pi*t) is ~0; the channel should track it
	if math.Abs(extended[0]) > 0.2 {
		t.Errorf("extended output at t=0.5: %g", extended[0])
	}
}

func TestExtendedTrainRequiresMiscChannels(t *testing.T) {
	base := newTestDmp(t, 1, 8)
	ext, err := NewExtended(base, []funcapprox.FunctionApproximator{funcapprox.NewRBFN(8)})
	if err != nil {
		t.Fatal(err)
	}
	ts := trajectory.Linspace(0, 1, 51)
	tr, err := trajectory.NewMinJerk(ts, []float64{0}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := ext.Train(tr); err == nil {
		t.Error("training without misc channels should fail")
	}
}
