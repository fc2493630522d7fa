package bbo

// CostFunction scores a candidate parameter vector. Lower is better.
type CostFunction interface {
	Evaluate(sample []float64) float64
}

// CostFunctionFunc adapts a plain function to the CostFunction interface.
type CostFunctionFunc func(sample []float64) float64

func (f CostFunctionFunc) Evaluate(sample []float64) float64 { return f(sample) }
