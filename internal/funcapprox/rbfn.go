package funcapprox

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Parameter group labels of the RBFN.
const (
	LabelWeights = "weights"
	LabelCenters = "centers"
	LabelWidths  = "widths"
)

const ridgeRegularization = 1e-10

// RBFN is a radial basis function network: a weighted sum of Gaussian kernels
// over a scalar input. Centers and widths are placed from the training input
// range; weights come from regularized linear least squares.
type RBFN struct {
	nBasis  int
	overlap float64

	centers []float64
	widths  []float64
	weights []float64

	selected map[string]bool
	trained  bool
}

func NewRBFN(nBasis int) *RBFN {
	return NewRBFNOverlap(nBasis, 0.7)
}

// NewRBFNOverlap sets the kernel width to overlap times the center spacing.
func NewRBFNOverlap(nBasis int, overlap float64) *RBFN {
	return &RBFN{
		nBasis:   nBasis,
		overlap:  overlap,
		centers:  make([]float64, nBasis),
		widths:   make([]float64, nBasis),
		weights:  make([]float64, nBasis),
		selected: map[string]bool{LabelWeights: true},
	}
}

func (r *RBFN) NumBasis() int   { return r.nBasis }
func (r *RBFN) IsTrained() bool { return r.trained }

func (r *RBFN) Clone() FunctionApproximator {
	c := &RBFN{
		nBasis:   r.nBasis,
		overlap:  r.overlap,
		centers:  append([]float64(nil), r.centers...),
		widths:   append([]float64(nil), r.widths...),
		weights:  append([]float64(nil), r.weights...),
		selected: make(map[string]bool, len(r.selected)),
		trained:  r.trained,
	}
	for k, v := range r.selected {
		c.selected[k] = v
	}
	return c
}

func (r *RBFN) Train(inputs, targets []float64) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("rbfn train: %d inputs, %d targets", len(inputs), len(targets))
	}
	if len(inputs) < r.nBasis {
		return fmt.Errorf("rbfn train: %d samples for %d basis functions", len(inputs), r.nBasis)
	}

	sorted := append([]float64(nil), inputs...)
	sort.Float64s(sorted)
	min, max := sorted[0], sorted[len(sorted)-1]
	if max == min {
		return fmt.Errorf("rbfn train: degenerate input range [%g, %g]", min, max)
	}

	// Centers at input quantiles, so unevenly distributed inputs (an
	// exponentially decaying phase, say) get even coverage in data mass.
	for i := 0; i < r.nBasis; i++ {
		idx := (len(sorted) - 1) / 2
		if r.nBasis > 1 {
			idx = i * (len(sorted) - 1) / (r.nBasis - 1)
		}
		r.centers[i] = sorted[idx]
	}
	minWidth := 1e-6 * (max - min)
	for i := 0; i < r.nBasis; i++ {
		spacing := 0.0
		if i > 0 {
			spacing = r.centers[i] - r.centers[i-1]
		}
		if i < r.nBasis-1 {
			if s := r.centers[i+1] - r.centers[i]; s > spacing {
				spacing = s
			}
		}
		if spacing < minWidth {
			spacing = minWidth
		}
		r.widths[i] = r.overlap * spacing
	}

	// Ridge-regularized least squares on the kernel design matrix.
	n := len(inputs)
	phi := mat.NewDense(n, r.nBasis, nil)
	for i, x := range inputs {
		for j := 0; j < r.nBasis; j++ {
			phi.Set(i, j, r.kernel(x, j))
		}
	}

	var gram mat.Dense
	gram.Mul(phi.T(), phi)
	for j := 0; j < r.nBasis; j++ {
		gram.Set(j, j, gram.At(j, j)+ridgeRegularization)
	}

	rhs := mat.NewVecDense(r.nBasis, nil)
	rhs.MulVec(phi.T(), mat.NewVecDense(n, targets))

	var w mat.VecDense
	if err := w.SolveVec(&gram, rhs); err != nil {
		return fmt.Errorf("rbfn train: solve failed: %w", err)
	}
	copy(r.weights, w.RawVector().Data)

	r.trained = true
	return nil
}

func (r *RBFN) kernel(x float64, j int) float64 {
	d := x - r.centers[j]
	w := r.widths[j]
	return math.Exp(-d * d / (2 * w * w))
}

func (r *RBFN) Predict(inputs, outputs []float64) error {
	if !r.trained {
		return fmt.Errorf("rbfn predict: model not trained")
	}
	if len(outputs) != len(inputs) {
		return fmt.Errorf("rbfn predict: %d outputs for %d inputs", len(outputs), len(inputs))
	}
	for i, x := range inputs {
		sum := 0.0
		for j := 0; j < r.nBasis; j++ {
			sum += r.weights[j] * r.kernel(x, j)
		}
		outputs[i] = sum
	}
	return nil
}

func (r *RBFN) SelectableParameters() []string {
	return []string{LabelWeights, LabelCenters, LabelWidths}
}

func (r *RBFN) SetSelectedParameters(labels []string) error {
	sel := make(map[string]bool, len(labels))
	for _, l := range labels {
		switch l {
		case LabelWeights, LabelCenters, LabelWidths:
			sel[l] = true
		default:
			return fmt.Errorf("unknown parameter label %q", l)
		}
	}
	r.selected = sel
	return nil
}

// Full-vector layout: [weights, centers, widths], each of length nBasis.
func (r *RBFN) ParameterVectorAllSize() int { return 3 * r.nBasis }

func (r *RBFN) ParameterVectorAll() []float64 {
	out := make([]float64, 0, 3*r.nBasis)
	out = append(out, r.weights...)
	out = append(out, r.centers...)
	out = append(out, r.widths...)
	return out
}

func (r *RBFN) SetParameterVectorAll(values []float64) error {
	if len(values) != 3*r.nBasis {
		return fmt.Errorf("parameter vector has length %d, expected %d", len(values), 3*r.nBasis)
	}
	copy(r.weights, values[:r.nBasis])
	copy(r.centers, values[r.nBasis:2*r.nBasis])
	copy(r.widths, values[2*r.nBasis:])
	return nil
}

func (r *RBFN) ParameterVectorMask(labels []string) ([]bool, error) {
	mask := make([]bool, 3*r.nBasis)
	for _, l := range labels {
		var offset int
		switch l {
		case LabelWeights:
			offset = 0
		case LabelCenters:
			offset = r.nBasis
		case LabelWidths:
			offset = 2 * r.nBasis
		default:
			return nil, fmt.Errorf("unknown parameter label %q", l)
		}
		for i := 0; i < r.nBasis; i++ {
			mask[offset+i] = true
		}
	}
	return mask, nil
}

func (r *RBFN) selectedLabels() []string {
	labels := make([]string, 0, len(r.selected))
	for _, l := range r.SelectableParameters() {
		if r.selected[l] {
			labels = append(labels, l)
		}
	}
	return labels
}

func (r *RBFN) ParameterVectorSelectedSize() int {
	n := 0
	for _, l := range r.SelectableParameters() {
		if r.selected[l] {
			n += r.nBasis
		}
	}
	return n
}

func (r *RBFN) ParameterVectorSelected() []float64 {
	mask, _ := r.ParameterVectorMask(r.selectedLabels())
	all := r.ParameterVectorAll()
	out := make([]float64, 0, r.ParameterVectorSelectedSize())
	for i, m := range mask {
		if m {
			out = append(out, all[i])
		}
	}
	return out
}

func (r *RBFN) SetParameterVectorSelected(values []float64) error {
	if len(values) != r.ParameterVectorSelectedSize() {
		return fmt.Errorf("selected parameter vector has length %d, expected %d",
			len(values), r.ParameterVectorSelectedSize())
	}
	mask, _ := r.ParameterVectorMask(r.selectedLabels())
	all := r.ParameterVectorAll()
	k := 0
	for i, m := range mask {
		if m {
			all[i] = values[k]
			k++
		}
	}
	return r.SetParameterVectorAll(all)
}
