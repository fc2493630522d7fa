// Package rollout turns candidate parameter vectors into trajectories and
// scores them against a task. It connects the movement primitive to the
// black-box optimization loop.
package rollout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gangLJG/dmpbbo/internal/trajectory"
)

// MotionPrimitive is the slice of the movement-primitive API the solver
// needs. *dmp.Dmp and *dmp.ExtendedDmp both satisfy it.
type MotionPrimitive interface {
	DimDofs() int
	Tau() float64
	SetModelParameters(perDof [][]float64, normalized bool) error
	AnalyticalSolution(ts []float64) (xs, xds, forcingTerms *mat.Dense, err error)
	StatesAsTrajectory(ts []float64, xs, xds *mat.Dense) (*trajectory.Trajectory, error)
}

// CostVarsPerTimeStep is the width of one time step in a cost-variable row:
// position, velocity and acceleration per dof, the time stamp, and the
// forcing term per dof.
func CostVarsPerTimeStep(nDofs int) int { return 4*nDofs + 1 }

// DmpSolver performs rollouts of a movement primitive over a fixed time
// grid. The grid runs from 0 to tau*ExtendFactor so the trajectory settles
// at the attractor past the nominal movement duration.
type DmpSolver struct {
	primitive MotionPrimitive

	dt           float64
	extendFactor float64

	// Normalized interprets sampled parameter vectors as offsets from the
	// trained baseline rather than absolute values.
	Normalized bool
}

// NewDmpSolver builds a solver integrating with step dt over
// tau*extendFactor seconds. extendFactor >= 1.
func NewDmpSolver(p MotionPrimitive, dt, extendFactor float64, normalized bool) (*DmpSolver, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	if extendFactor < 1 {
		return nil, fmt.Errorf("extend factor must be at least 1, got %f", extendFactor)
	}
	return &DmpSolver{primitive: p, dt: dt, extendFactor: extendFactor, Normalized: normalized}, nil
}

func (s *DmpSolver) Primitive() MotionPrimitive { return s.primitive }

// TimeGrid returns linspace(0, tau*extendFactor, integrateTime/dt + 1). The
// step count is rounded; plain truncation loses a step when the division
// lands just below an integer (1.2/0.1 is 11.999...).
func (s *DmpSolver) TimeGrid() []float64 {
	integrateTime := s.primitive.Tau() * s.extendFactor
	n := int(math.Round(integrateTime/s.dt)) + 1
	return trajectory.Linspace(0, integrateTime, n)
}

// PerformRollouts runs one rollout per sample. perDof holds one batch per
// degree of freedom, each n_samples x parameters-for-that-dof; all batches
// must agree on the row count. The result has one cost-variable row per
// sample: per time step [pos(dofs), vel(dofs), acc(dofs), time, forcing(dofs)].
func (s *DmpSolver) PerformRollouts(perDof []*mat.Dense) (*mat.Dense, error) {
	nDofs := s.primitive.DimDofs()
	if len(perDof) != nDofs {
		return nil, fmt.Errorf("%d parameter batches for %d dofs", len(perDof), nDofs)
	}
	nSamples, _ := perDof[0].Dims()
	for g, batch := range perDof {
		if rows, _ := batch.Dims(); rows != nSamples {
			return nil, fmt.Errorf("dof %d batch has %d rows, dof 0 has %d", g, rows, nSamples)
		}
	}

	ts := s.TimeGrid()
	stride := CostVarsPerTimeStep(nDofs)
	costVars := mat.NewDense(nSamples, len(ts)*stride, nil)

	vectors := make([][]float64, nDofs)
	for k := 0; k < nSamples; k++ {
		for g := 0; g < nDofs; g++ {
			vectors[g] = perDof[g].RawRowView(k)
		}
		if err := s.primitive.SetModelParameters(vectors, s.Normalized); err != nil {
			return nil, fmt.Errorf("rollout %d: %w", k, err)
		}

		xs, xds, forcing, err := s.primitive.AnalyticalSolution(ts)
		if err != nil {
			return nil, fmt.Errorf("rollout %d: %w", k, err)
		}
		tr, err := s.primitive.StatesAsTrajectory(ts, xs, xds)
		if err != nil {
			return nil, fmt.Errorf("rollout %d: %w", k, err)
		}

		row := costVars.RawRowView(k)
		for i := range ts {
			base := i * stride
			for j := 0; j < nDofs; j++ {
				row[base+j] = tr.Ys.At(i, j)
				row[base+nDofs+j] = tr.Yds.At(i, j)
				row[base+2*nDofs+j] = tr.Ydds.At(i, j)
				row[base+3*nDofs+1+j] = forcing.At(i, j)
			}
			row[base+3*nDofs] = ts[i]
		}
	}
	return costVars, nil
}
