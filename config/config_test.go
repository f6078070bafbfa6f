package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/shoal/creature"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/school"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsMatchPackageDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Creature != creature.DefaultParams() {
		t.Errorf("creature defaults drifted:\n yaml %+v\n code %+v", cfg.Creature, creature.DefaultParams())
	}
	if cfg.School.Options != school.DefaultOptions() {
		t.Errorf("school defaults drifted:\n yaml %+v\n code %+v", cfg.School.Options, school.DefaultOptions())
	}
	so := cfg.SanctuaryOptions()
	if so.Strength != sanctuary.DefaultStrength || so.Margin != sanctuary.DefaultMargin || so.Enabled {
		t.Errorf("sanctuary defaults = %+v", so)
	}
}

func TestDerivedWorldFallsBackToScreen(t *testing.T) {
	cfg := Default()
	want := geom.Rect{W: float64(cfg.Screen.Width), H: float64(cfg.Screen.Height)}
	if cfg.Derived.WorldRect != want {
		t.Errorf("world = %+v, want %+v", cfg.Derived.WorldRect, want)
	}
	if cfg.Derived.TickDT <= 0 || cfg.Derived.Tick <= 0 {
		t.Errorf("tick dt = %v / %v", cfg.Derived.TickDT, cfg.Derived.Tick)
	}
}

func TestUserFileOverrides(t *testing.T) {
	path := writeFile(t, `
world:
  width: 800
  height: 600
school:
  species: betta
  count: 3
sanctuary:
  enabled: true
  zones:
    - {x: 400, y: 400, w: 200, h: 200, label: rock}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.WorldRect != (geom.Rect{W: 800, H: 600}) {
		t.Errorf("world = %+v", cfg.Derived.WorldRect)
	}
	if cfg.School.Species != school.Betta || cfg.School.Count != 3 {
		t.Errorf("school = %+v", cfg.School)
	}
	// Untouched keys keep their defaults.
	if cfg.School.Drag != 0.97 {
		t.Errorf("drag = %v, want default", cfg.School.Drag)
	}
	if len(cfg.Sanctuary.Zones) != 1 || cfg.Sanctuary.Zones[0].Label != "rock" {
		t.Errorf("zones = %+v", cfg.Sanctuary.Zones)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown species", "school: {species: goldfish}", school.ErrUnknownSpecies},
		{"zero world", "world: {width: -5}", geom.ErrEmptyRect},
		{"empty zone", "sanctuary: {zones: [{x: 1, y: 1, w: 0, h: 10}]}", sanctuary.ErrEmptyZone},
		{"too many fish", "school: {count: 13}", ErrSchoolSize},
		{"no fish", "school: {count: 0}", ErrSchoolSize},
		{"tick rate", "sim: {tick_rate: 0}", ErrTickRate},
		{"creature max dt", "creature: {max_dt: -0.5}", creature.ErrInvalidParams},
		{"creature zero max dt", "creature: {max_dt: 0}", creature.ErrInvalidParams},
		{"creature retries", "creature: {target_retries: 0}", creature.ErrInvalidParams},
		{"creature chance", "creature: {wander_chance: 1.5}", creature.ErrInvalidParams},
		{"cursor distances", "creature: {cursor_min_dist: 200, cursor_max_dist: 100}", creature.ErrInvalidParams},
		{"school max dt", "school: {max_dt: -1}", school.ErrInvalidOptions},
		{"school retries", "school: {target_retries: 0}", school.ErrInvalidOptions},
		{"school drag", "school: {drag: 1.5}", school.ErrInvalidOptions},
		{"negative strength", "sanctuary: {repulsion_strength: -200}", sanctuary.ErrNegativeForce},
		{"negative margin", "sanctuary: {repulsion_margin: -1}", sanctuary.ErrNegativeForce},
		{"pellet lifetime", "pellets: {lifetime: 0}", ErrPellets},
		{"pellet capture", "pellets: {capture_radius: -3}", ErrPellets},
		{"pellet terminal speed", "pellets: {terminal_speed: 0}", ErrPellets},
		{"pellets per feed", "pellets: {per_feed: 0}", ErrPellets},
		{"telemetry window", "telemetry: {window_sec: 0}", ErrWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSpeciesOverrides(t *testing.T) {
	path := writeFile(t, `
species:
  guppy:
    max_speed: 90
    cruise_speed: 40
    separation_radius: 20
    alignment_radius: 70
    cohesion_radius: 110
    separation_weight: 2
    alignment_weight: 1
    cohesion_weight: 1
    turn_speed: 3.5
    wander_strength: 6
    school_tight: true
school:
  species: guppy
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	sp, err := reg.Lookup("guppy")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sp.Name != "guppy" || sp.TurnSpeed != 3.5 || !sp.Tight {
		t.Errorf("guppy = %+v", sp)
	}
}

func TestPartialSpeciesOverride(t *testing.T) {
	path := writeFile(t, `
species:
  discus:
    max_speed: 70
  betta:
    max_speed: 90
    turn_speed: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}

	builtinDiscus, _ := school.Lookup(school.Discus)
	want := builtinDiscus
	want.MaxSpeed = 70
	if got, _ := reg.Lookup(school.Discus); got != want {
		t.Errorf("discus = %+v, want %+v", got, want)
	}

	builtinBetta, _ := school.Lookup(school.Betta)
	betta, _ := reg.Lookup(school.Betta)
	if betta.MaxSpeed != 90 || betta.TurnSpeed != 3 {
		t.Errorf("betta overrides lost: %+v", betta)
	}
	if betta.SeparationRadius != builtinBetta.SeparationRadius || betta.CohesionWeight != builtinBetta.CohesionWeight {
		t.Errorf("betta radii or weights reset: %+v", betta)
	}
}

func TestPartialNewSpeciesRejected(t *testing.T) {
	path := writeFile(t, `
species:
  guppy:
    max_speed: 90
`)
	if _, err := Load(path); err == nil {
		t.Fatal("a new species with missing keys was accepted")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.School.Species = school.Discus
	cfg.Sanctuary.Zones = []sanctuary.Record{{X: 10, Y: 20, W: 30, H: 40, Label: "a"}}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.School.Species != school.Discus {
		t.Errorf("species = %q", back.School.Species)
	}
	if len(back.Sanctuary.Zones) != 1 || back.Sanctuary.Zones[0] != cfg.Sanctuary.Zones[0] {
		t.Errorf("zones = %+v", back.Sanctuary.Zones)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("Cfg did not panic")
		}
	}()
	Cfg()
}
