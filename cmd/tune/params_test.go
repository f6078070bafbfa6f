package main

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/school"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	sp, err := school.Lookup(school.Discus)
	if err != nil {
		t.Fatal(err)
	}
	raw := pv.Clamp(pv.Extract(sp))
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %f -> %f", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	low := make([]float64, pv.Dim())
	high := make([]float64, pv.Dim())
	for i := range low {
		low[i] = -1e3
		high[i] = 1e3
	}
	for i, v := range pv.Clamp(low) {
		if v != pv.Specs[i].Min {
			t.Errorf("%s low clamp = %f, want %f", pv.Specs[i].Name, v, pv.Specs[i].Min)
		}
	}
	for i, v := range pv.Clamp(high) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s high clamp = %f, want %f", pv.Specs[i].Name, v, pv.Specs[i].Max)
		}
	}
}

func TestApplyKeepsUntunedFields(t *testing.T) {
	pv := NewParamVector()
	base, err := school.Lookup(school.NeonTetra)
	if err != nil {
		t.Fatal(err)
	}
	x := pv.Denormalize([]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	sp := pv.Apply(base, x)

	if sp.MaxSpeed != base.MaxSpeed || sp.CruiseSpeed != base.CruiseSpeed || sp.TurnSpeed != base.TurnSpeed {
		t.Error("untuned fields changed")
	}
	got := pv.Extract(sp)
	for i := range got {
		if math.Abs(got[i]-x[i]) > 1e-9 {
			t.Errorf("%s = %f, want %f", pv.Specs[i].Name, got[i], x[i])
		}
	}
	if err := sp.Validate(); err != nil {
		t.Errorf("tuned species invalid: %v", err)
	}
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	cfg.Species = nil
	base, _ := school.Lookup(school.Betta)
	x := pv.Extract(base)
	x[0] = 4.2

	pv.ApplyToConfig(cfg, school.Betta, base, x)

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	sp, err := reg.Lookup(school.Betta)
	if err != nil {
		t.Fatal(err)
	}
	if sp.SeparationWeight != 4.2 {
		t.Errorf("separation weight = %f, want 4.2", sp.SeparationWeight)
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m00s"},
		{75 * time.Second, "1m15s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tc := range testCases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
