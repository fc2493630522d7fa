// Package funcapprox provides trainable scalar function approximators with a
// flat, maskable parameter vector, so an external optimizer can treat any
// subset of a model's internals as a settable numeric vector.
package funcapprox

// FunctionApproximator maps a scalar input batch to a scalar output batch.
type FunctionApproximator interface {
	// Train fits the model to the (inputs, targets) pairs.
	Train(inputs, targets []float64) error

	// Predict evaluates the model at each input, writing into outputs.
	// len(outputs) must equal len(inputs); no allocation is performed.
	Predict(inputs, outputs []float64) error

	IsTrained() bool

	Clone() FunctionApproximator

	// SelectableParameters lists the named parameter groups of the model.
	SelectableParameters() []string

	// SetSelectedParameters marks which named groups the selected-vector
	// operations address. Unknown labels are an error.
	SetSelectedParameters(labels []string) error

	// ParameterVectorAllSize reports the length of the full flattened
	// parameter vector, selected or not.
	ParameterVectorAllSize() int

	// ParameterVectorAll returns the full flattened parameter vector.
	ParameterVectorAll() []float64

	// SetParameterVectorAll replaces the full flattened parameter vector.
	// A wrong-length vector is an error.
	SetParameterVectorAll(values []float64) error

	// ParameterVectorMask returns, over the full-vector index space, which
	// indices belong to the given labels.
	ParameterVectorMask(labels []string) ([]bool, error)

	// ParameterVectorSelectedSize reports the length of the selected subset.
	ParameterVectorSelectedSize() int

	// ParameterVectorSelected returns the currently selected parameters as
	// one flat vector.
	ParameterVectorSelected() []float64

	// SetParameterVectorSelected writes values into the selected positions
	// of the full vector, leaving unselected parameters untouched.
	SetParameterVectorSelected(values []float64) error
}
