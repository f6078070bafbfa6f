// Package agent defines the render-state contract shared by every simulated
// entity: the behavioral state tag and the per-tick snapshot handed to viewers.
package agent

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// State is the behavioral state of a creature.
type State uint8

const (
	Idle State = iota
	Searching
	Feeding
	Resting
	// Schooling is reported by flock members, which have no state machine.
	Schooling
)

var stateNames = [...]string{
	Idle:      "IDLE",
	Searching: "SEARCHING",
	Feeding:   "FEEDING",
	Resting:   "RESTING",
	Schooling: "SCHOOLING",
}

// String returns the upper-case state name used in snapshots.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("agent: unknown state %q", string(b))
}

// Snapshot is the read-only render state of one entity for one tick.
type Snapshot struct {
	ID       int
	Position r2.Vec
	Velocity r2.Vec
	Hunger   float64
	Mood     float64
	State    State
	Facing   float64 // radians
}

// snapshotJSON is the wire shape: vectors as [x, y] pairs.
type snapshotJSON struct {
	ID          int        `json:"id"`
	Position    [2]float64 `json:"position"`
	Velocity    [2]float64 `json:"velocity"`
	Hunger      float64    `json:"hunger"`
	Mood        float64    `json:"mood"`
	State       State      `json:"state"`
	FacingAngle float64    `json:"facing_angle"`
}

// MarshalJSON encodes the snapshot with vectors as two-element arrays.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		ID:          s.ID,
		Position:    [2]float64{s.Position.X, s.Position.Y},
		Velocity:    [2]float64{s.Velocity.X, s.Velocity.Y},
		Hunger:      s.Hunger,
		Mood:        s.Mood,
		State:       s.State,
		FacingAngle: s.Facing,
	})
}

// UnmarshalJSON decodes the array-vector wire shape.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Snapshot{
		ID:       w.ID,
		Position: r2.Vec{X: w.Position[0], Y: w.Position[1]},
		Velocity: r2.Vec{X: w.Velocity[0], Y: w.Velocity[1]},
		Hunger:   w.Hunger,
		Mood:     w.Mood,
		State:    w.State,
		Facing:   w.FacingAngle,
	}
	return nil
}
