package school

import (
	"errors"
	"testing"
)

func TestBuiltinSpecies(t *testing.T) {
	tests := []struct {
		tag   string
		max   float64
		turn  float64
		tight bool
	}{
		{NeonTetra, 100, 3.0, true},
		{Discus, 65, 2.0, false},
		{Betta, 80, 2.5, false},
	}
	for _, tt := range tests {
		s, err := Lookup(tt.tag)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.tag, err)
		}
		if s.MaxSpeed != tt.max || s.TurnSpeed != tt.turn || s.Tight != tt.tight {
			t.Errorf("%s = %+v", tt.tag, s)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("%s invalid: %v", tt.tag, err)
		}
	}
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Lookup(Discus)
	s.CohesionWeight = 1.5
	if err := r.Set(Discus, s); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := r.Lookup(Discus)
	if got.CohesionWeight != 1.5 {
		t.Errorf("override not applied: %v", got.CohesionWeight)
	}
	// Built-in table is untouched.
	orig, _ := Lookup(Discus)
	if orig.CohesionWeight != 0.6 {
		t.Errorf("built-in mutated: %v", orig.CohesionWeight)
	}

	s.TurnSpeed = 0
	if err := r.Set("angelfish", s); err == nil {
		t.Error("Set accepted zero turn speed")
	}
	if r.Has("angelfish") {
		t.Error("rejected species was registered")
	}
	if _, err := r.Lookup("angelfish"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("err = %v", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	names := NewRegistry().Names()
	want := []string{Betta, Discus, NeonTetra}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
		}
	}
}
