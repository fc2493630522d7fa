package rollout

import (
	"math"
	"testing"
)

// packRow builds a one-dof cost-variable row from parallel channel slices.
func packRow(pos, vel, acc, times, force []float64) []float64 {
	row := make([]float64, 0, len(times)*5)
	for i := range times {
		row = append(row, pos[i], vel[i], acc[i], times[i], force[i])
	}
	return row
}

func TestViapointCostZeroWhenOnViapoint(t *testing.T) {
	row := packRow(
		[]float64{0, 1, 2},
		[]float64{0, 0, 0},
		[]float64{0, 0, 0},
		[]float64{0, 0.5, 1},
		[]float64{0, 0, 0})

	task := NewTaskViapoint([]float64{1}, 0.5)
	cost, err := task.EvaluateRollout(row)
	if err != nil {
		t.Fatal(err)
	}
	if cost != 0 {
		t.Errorf("cost %g, want 0 when passing through the viapoint", cost)
	}
}

func TestViapointDistanceAtNearestTimeStamp(t *testing.T) {
	row := packRow(
		[]float64{0, 1, 2},
		[]float64{0, 0, 0},
		[]float64{0, 0, 0},
		[]float64{0, 0.5, 1},
		[]float64{0, 0, 0})

	// 0.6 snaps to the grid point at 0.5 where pos=1
	task := NewTaskViapoint([]float64{3}, 0.6)
	cost, err := task.EvaluateRollout(row)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cost-2) > 1e-12 {
		t.Errorf("cost %g, want 2", cost)
	}
}

func TestViapointNegativeTimeUsesClosestPoint(t *testing.T) {
	row := packRow(
		[]float64{0, 1, 2},
		[]float64{0, 0, 0},
		[]float64{0, 0, 0},
		[]float64{0, 0.5, 1},
		[]float64{0, 0, 0})

	task := NewTaskViapoint([]float64{1.9}, -1)
	cost, err := task.EvaluateRollout(row)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cost-0.1) > 1e-12 {
		t.Errorf("cost %g, want 0.1 (closest point is pos=2)", cost)
	}
}

func TestViapointAccelerationPenalty(t *testing.T) {
	quiet := packRow(
		[]float64{1, 1},
		[]float64{0, 0},
		[]float64{0, 0},
		[]float64{0, 1},
		[]float64{0, 0})
	jerky := packRow(
		[]float64{1, 1},
		[]float64{0, 0},
		[]float64{10, -10},
		[]float64{0, 1},
		[]float64{0, 0})

	task := NewTaskViapoint([]float64{1}, 0)
	cQuiet, err := task.EvaluateRollout(quiet)
	if err != nil {
		t.Fatal(err)
	}
	cJerky, err := task.EvaluateRollout(jerky)
	if err != nil {
		t.Fatal(err)
	}
	if cJerky <= cQuiet {
		t.Errorf("acceleration should be penalized: quiet %g, jerky %g", cQuiet, cJerky)
	}
}

func TestViapointRejectsBadRowLength(t *testing.T) {
	task := NewTaskViapoint([]float64{1, 2}, 0.5)
	if _, err := task.EvaluateRollout(make([]float64, 10)); err == nil {
		t.Error("row length not a multiple of the stride should fail")
	}
	if _, err := task.EvaluateRollout(nil); err == nil {
		t.Error("empty row should fail")
	}
}

func TestViapointMultiDofDistance(t *testing.T) {
	// two dofs, one time step: pos (3,4) vs viapoint (0,0) -> distance 5
	row := []float64{3, 4, 0, 0, 0, 0, 0, 0, 0}
	task := &TaskViapoint{Viapoint: []float64{0, 0}, ViapointTime: 0, ViapointWeight: 1}
	cost, err := task.EvaluateRollout(row)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cost-5) > 1e-12 {
		t.Errorf("cost %g, want 5", cost)
	}
}
