package rollout

import (
	"fmt"
	"math"
)

// Task reduces one cost-variable row (the solver's packing) to a scalar cost.
type Task interface {
	EvaluateRollout(costVars []float64) (float64, error)
}

// TaskViapoint penalizes the distance between the trajectory and a viapoint
// at a given time, plus a small acceleration effort term that discourages
// jerky detours.
type TaskViapoint struct {
	Viapoint []float64
	// ViapointTime selects the time step scored against the viapoint. A
	// negative value scores the closest point anywhere on the trajectory.
	ViapointTime float64

	ViapointWeight     float64
	AccelerationWeight float64
}

// NewTaskViapoint uses the customary weighting: the viapoint distance
// dominates and acceleration only breaks ties.
func NewTaskViapoint(viapoint []float64, viapointTime float64) *TaskViapoint {
	return &TaskViapoint{
		Viapoint:           viapoint,
		ViapointTime:       viapointTime,
		ViapointWeight:     1.0,
		AccelerationWeight: 0.0001,
	}
}

func (t *TaskViapoint) EvaluateRollout(costVars []float64) (float64, error) {
	nDofs := len(t.Viapoint)
	stride := CostVarsPerTimeStep(nDofs)
	if len(costVars) == 0 || len(costVars)%stride != 0 {
		return 0, fmt.Errorf("cost-variable row of length %d is not a multiple of %d", len(costVars), stride)
	}
	nSteps := len(costVars) / stride

	distAt := func(i int) float64 {
		base := i * stride
		sum := 0.0
		for j := 0; j < nDofs; j++ {
			d := costVars[base+j] - t.Viapoint[j]
			sum += d * d
		}
		return math.Sqrt(sum)
	}

	var viapointDist float64
	if t.ViapointTime < 0 {
		viapointDist = math.Inf(1)
		for i := 0; i < nSteps; i++ {
			if d := distAt(i); d < viapointDist {
				viapointDist = d
			}
		}
	} else {
		// nearest time stamp on the grid
		iBest, tBest := 0, math.Inf(1)
		for i := 0; i < nSteps; i++ {
			if d := math.Abs(costVars[i*stride+3*nDofs] - t.ViapointTime); d < tBest {
				iBest, tBest = i, d
			}
		}
		viapointDist = distAt(iBest)
	}

	accCost := 0.0
	for i := 0; i < nSteps; i++ {
		base := i * stride
		sum := 0.0
		for j := 0; j < nDofs; j++ {
			a := costVars[base+2*nDofs+j]
			sum += a * a
		}
		accCost += math.Sqrt(sum)
	}
	accCost /= float64(nSteps)

	return t.ViapointWeight*viapointDist + t.AccelerationWeight*accCost, nil
}
