package dmp

import (
	"fmt"

	"github.com/gangLJG/dmpbbo/internal/dynsys"
	"github.com/gangLJG/dmpbbo/internal/funcapprox"
)

// The flattened parameter vector of a Dmp is the concatenation of its
// per-dof model vectors, in dof order. Masks and sizes follow the same
// global index space.

func (d *Dmp) SelectableParameters() []string {
	return d.fas[0].SelectableParameters()
}

// SetSelectedParameters marks the named parameter groups as selected on
// every dof's model and re-captures the normalized-update baseline.
func (d *Dmp) SetSelectedParameters(labels []string) error {
	for j, fa := range d.fas {
		if err := fa.SetSelectedParameters(labels); err != nil {
			return fmt.Errorf("dof %d: %w", j, err)
		}
	}
	d.captureBaseline()
	return nil
}

func (d *Dmp) captureBaseline() {
	for j, fa := range d.fas {
		if fa.IsTrained() {
			d.baseline[j] = fa.ParameterVectorSelected()
		}
	}
}

func (d *Dmp) ParameterVectorAllSize() int {
	n := 0
	for _, fa := range d.fas {
		n += fa.ParameterVectorAllSize()
	}
	return n
}

func (d *Dmp) ParameterVectorAll() []float64 {
	out := make([]float64, 0, d.ParameterVectorAllSize())
	for _, fa := range d.fas {
		out = append(out, fa.ParameterVectorAll()...)
	}
	return out
}

func (d *Dmp) SetParameterVectorAll(values []float64) error {
	if len(values) != d.ParameterVectorAllSize() {
		return dynsys.DimensionError{
			What:     "parameter vector",
			Got:      len(values),
			Expected: d.ParameterVectorAllSize(),
		}
	}
	offset := 0
	for j, fa := range d.fas {
		size := fa.ParameterVectorAllSize()
		if err := fa.SetParameterVectorAll(values[offset : offset+size]); err != nil {
			return fmt.Errorf("dof %d: %w", j, err)
		}
		offset += size
	}
	return nil
}

func (d *Dmp) ParameterVectorMask(labels []string) ([]bool, error) {
	mask := make([]bool, 0, d.ParameterVectorAllSize())
	for j, fa := range d.fas {
		m, err := fa.ParameterVectorMask(labels)
		if err != nil {
			return nil, fmt.Errorf("dof %d: %w", j, err)
		}
		mask = append(mask, m...)
	}
	return mask, nil
}

func (d *Dmp) ParameterVectorSelectedSize() int {
	n := 0
	for _, fa := range d.fas {
		n += fa.ParameterVectorSelectedSize()
	}
	return n
}

func (d *Dmp) ParameterVectorSelected() []float64 {
	out := make([]float64, 0, d.ParameterVectorSelectedSize())
	for _, fa := range d.fas {
		out = append(out, fa.ParameterVectorSelected()...)
	}
	return out
}

func (d *Dmp) SetParameterVectorSelected(values []float64) error {
	if len(values) != d.ParameterVectorSelectedSize() {
		return dynsys.DimensionError{
			What:     "selected parameter vector",
			Got:      len(values),
			Expected: d.ParameterVectorSelectedSize(),
		}
	}
	offset := 0
	for j, fa := range d.fas {
		size := fa.ParameterVectorSelectedSize()
		if err := fa.SetParameterVectorSelected(values[offset : offset+size]); err != nil {
			return fmt.Errorf("dof %d: %w", j, err)
		}
		offset += size
	}
	return nil
}

// SetModelParameters writes one selected-parameter vector per dof. When
// normalized is true the vectors are offsets from the parameters captured at
// training time rather than absolute values; the interpretation applies
// uniformly to every dof.
func (d *Dmp) SetModelParameters(perDof [][]float64, normalized bool) error {
	if len(perDof) != d.DimDofs() {
		return dynsys.DimensionError{
			What:     "per-dof parameter vectors",
			Got:      len(perDof),
			Expected: d.DimDofs(),
		}
	}
	for j, values := range perDof {
		fa := d.fas[j]
		if len(values) != fa.ParameterVectorSelectedSize() {
			return dynsys.DimensionError{
				What:     fmt.Sprintf("dof %d parameter vector", j),
				Got:      len(values),
				Expected: fa.ParameterVectorSelectedSize(),
			}
		}
		if normalized {
			if d.baseline[j] == nil {
				return fmt.Errorf("dof %d: normalized parameters require a trained model", j)
			}
			absolute := make([]float64, len(values))
			for i := range values {
				absolute[i] = d.baseline[j][i] + values[i]
			}
			values = absolute
		}
		if err := fa.SetParameterVectorSelected(values); err != nil {
			return fmt.Errorf("dof %d: %w", j, err)
		}
	}
	return nil
}

// FunctionApproximator returns the model for one dof.
func (d *Dmp) FunctionApproximator(dof int) funcapprox.FunctionApproximator {
	return d.fas[dof]
}
