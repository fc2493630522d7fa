package dynsys

import (
	"fmt"
	"math"
)

// State is a flat dynamical-system state vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time dynamical system with a fixed state dimension.
// Differential must not allocate; it writes the rate of change into xd.
type System interface {
	Dim() int
	Differential(x, xd State)
}

// DimensionError reports a state or parameter vector of the wrong length.
// These are programming errors, detected eagerly.
type DimensionError struct {
	What     string
	Got      int
	Expected int
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("%s has length %d, expected %d", e.What, e.Got, e.Expected)
}

func checkDim(what string, got, expected int) error {
	if got != expected {
		return DimensionError{What: what, Got: got, Expected: expected}
	}
	return nil
}
