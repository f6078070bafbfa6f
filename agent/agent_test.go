package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Idle, "IDLE"},
		{Searching, "SEARCHING"},
		{Feeding, "FEEDING"},
		{Resting, "RESTING"},
		{Schooling, "SCHOOLING"},
		{State(42), "State(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", uint8(tt.s), got, tt.want)
		}
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	s := Snapshot{
		Position: r2.Vec{X: 100, Y: 200},
		Velocity: r2.Vec{X: -1.5, Y: 2},
		Hunger:   12,
		Mood:     88,
		State:    Schooling,
		Facing:   0.5,
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"position":[100,200]`, `"velocity":[-1.5,2]`, `"state":"SCHOOLING"`, `"facing_angle":0.5`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != s {
		t.Errorf("decoded %+v, want %+v", back, s)
	}
}

func TestUnknownStateRejected(t *testing.T) {
	var s State
	if err := s.UnmarshalText([]byte("SLEEPING")); err == nil {
		t.Error("expected error for unknown state")
	}
}
