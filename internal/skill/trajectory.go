package skill

import (
	"encoding/json"
	"fmt"
)

// PointState is the qualitative classification of a trajectory point.
type PointState string

const (
	StateOnTarget   PointState = "on_target"
	StateOffPath    PointState = "off_path"
	StateHighTremor PointState = "high_tremor"
	StateRestricted PointState = "restricted"
)

// Classification thresholds.
const (
	HighTremorThreshold = 15.0
	OffPathThreshold    = 20.0
)

// Valid reports whether s is a known state.
func (s PointState) Valid() bool {
	switch s {
	case StateOnTarget, StateOffPath, StateHighTremor, StateRestricted:
		return true
	}
	return false
}

// classifyPoint applies the state priority: tremor, then error, then zone.
func classifyPoint(tremor, instErr float64, inZone bool) PointState {
	switch {
	case tremor > HighTremorThreshold:
		return StateHighTremor
	case instErr > OffPathThreshold:
		return StateOffPath
	case inZone:
		return StateRestricted
	default:
		return StateOnTarget
	}
}

// TrajectoryPoint is one recorded reading. It encodes as [x, y, depth, state].
type TrajectoryPoint struct {
	X     float64
	Y     float64
	Depth float64
	State PointState
}

// MarshalJSON encodes the point as a 4-tuple.
func (p TrajectoryPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]interface{}{p.X, p.Y, p.Depth, p.State})
}

// UnmarshalJSON decodes a 4-tuple and rejects unknown states.
func (p *TrajectoryPoint) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("trajectory point: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("trajectory point: want 4 elements, got %d", len(raw))
	}
	var pt TrajectoryPoint
	for i, dst := range []*float64{&pt.X, &pt.Y, &pt.Depth} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("trajectory point element %d: %w", i, err)
		}
	}
	if err := json.Unmarshal(raw[3], &pt.State); err != nil {
		return fmt.Errorf("trajectory point state: %w", err)
	}
	if !pt.State.Valid() {
		return fmt.Errorf("trajectory point state %q unknown", pt.State)
	}
	*p = pt
	return nil
}

// Trajectory is an append-only log of points in arrival order.
type Trajectory struct {
	points []TrajectoryPoint
}

// Append adds a point at the end.
func (t *Trajectory) Append(p TrajectoryPoint) {
	t.points = append(t.points, p)
}

// Len is the number of recorded points.
func (t *Trajectory) Len() int { return len(t.points) }

// Points returns a copy of the recorded points. The result is never nil.
func (t *Trajectory) Points() []TrajectoryPoint {
	out := make([]TrajectoryPoint, len(t.points))
	copy(out, t.points)
	return out
}
