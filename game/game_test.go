package game

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/school"
	"github.com/pthm-cable/shoal/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 800, 600
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.LogStats = false
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config) *Game {
	t.Helper()
	g, err := New(cfg, Options{Seed: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func mustEnqueue(t *testing.T, g *Game, cmd Command) {
	t.Helper()
	if err := g.Enqueue(cmd); err != nil {
		t.Fatalf("Enqueue(%T): %v", cmd, err)
	}
}

func TestNewPublishesInitialFrame(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGame(t, cfg)
	f := g.Frame()
	if f == nil {
		t.Fatal("no frame before first update")
	}
	if f.Tick != 0 || len(f.School) != cfg.School.Count {
		t.Errorf("frame tick %d school %d", f.Tick, len(f.School))
	}
	if f.Creature.State != agent.Idle {
		t.Errorf("creature state %v", f.Creature.State)
	}
}

func TestCommandsApplyAtTickBoundary(t *testing.T) {
	g := newTestGame(t, testConfig(t))

	mustEnqueue(t, g, AddZone{Zone: sanctuary.Record{X: 400, Y: 400, W: 200, H: 200, Label: "rock"}})
	mustEnqueue(t, g, SetSanctuaryEnabled{Enabled: true})
	if g.Field().Len() != 0 {
		t.Fatal("zone added before the tick boundary")
	}

	g.Update(1.0 / 30)
	if g.Field().Len() != 1 || !g.Field().Enabled() {
		t.Errorf("zones %d enabled %v", g.Field().Len(), g.Field().Enabled())
	}
	f := g.Frame()
	if len(f.Zones) != 1 || !f.SanctuaryEnabled || f.Tick != 1 {
		t.Errorf("frame = tick %d zones %v enabled %v", f.Tick, f.Zones, f.SanctuaryEnabled)
	}

	mustEnqueue(t, g, ToggleSanctuary{})
	mustEnqueue(t, g, ClearZones{})
	g.Update(1.0 / 30)
	if g.Field().Len() != 0 || g.Field().Enabled() {
		t.Errorf("after clear: zones %d enabled %v", g.Field().Len(), g.Field().Enabled())
	}
}

func TestEnqueueRejectsInvalid(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"empty zone", AddZone{Zone: sanctuary.Record{X: 1, Y: 1, W: 0, H: 5}}, sanctuary.ErrEmptyZone},
		{"empty bounds", SetBounds{Rect: geom.Rect{W: 10}}, geom.ErrEmptyRect},
		{"unknown species", SetSpecies{Tag: "koi"}, school.ErrUnknownSpecies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.Enqueue(tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRemoveZoneOutOfRangeIsCounted(t *testing.T) {
	var windows []telemetry.WindowStats
	cfg := testConfig(t)
	cfg.Telemetry.WindowSec = 0.1
	g, err := New(cfg, Options{Seed: 1, StatsCallback: func(s telemetry.WindowStats) {
		windows = append(windows, s)
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	mustEnqueue(t, g, RemoveZone{Index: 3})
	for i := 0; i < 3; i++ {
		g.Update(0.05)
	}
	if len(windows) == 0 {
		t.Fatal("no telemetry window flushed")
	}
	if windows[0].RejectedCommands != 1 {
		t.Errorf("rejected = %d, want 1", windows[0].RejectedCommands)
	}
}

func TestSchoolCommands(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	mustEnqueue(t, g, SetCount{N: 99})
	mustEnqueue(t, g, SetSpeedScale{Scale: 0.01})
	mustEnqueue(t, g, SetSpecies{Tag: school.Discus})
	g.Update(0.033)

	f := g.Frame()
	if len(f.School) != school.MaxCount {
		t.Errorf("school size %d, want %d", len(f.School), school.MaxCount)
	}
	if f.SpeedScale != school.MinSpeedScale {
		t.Errorf("speed scale %v, want %v", f.SpeedScale, school.MinSpeedScale)
	}
	if f.Species != school.Discus {
		t.Errorf("species %q", f.Species)
	}
}

func TestSchoolDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.School.Enabled = false
	g := newTestGame(t, cfg)
	if err := g.Enqueue(SetCount{N: 3}); !errors.Is(err, ErrNoSchool) {
		t.Errorf("err = %v, want ErrNoSchool", err)
	}
	g.Update(0.05)
	if f := g.Frame(); len(f.School) != 0 {
		t.Errorf("school = %v", f.School)
	}
}

func TestFeedCreatureRewardsMood(t *testing.T) {
	cfg := testConfig(t)
	cfg.Creature.WanderChance = 0
	cfg.Pellets.DropHeight = 0
	cfg.Pellets.Spread = 0
	g := newTestGame(t, cfg)
	g.Brain().SetMood(50)
	hunger := g.Brain().Hunger()

	mustEnqueue(t, g, FeedCreature{Count: 2})
	g.Update(0.01)

	if g.PelletsEaten() != 2 {
		t.Fatalf("eaten = %d, want 2", g.PelletsEaten())
	}
	if g.Brain().Mood() < 50+2*cfg.Creature.PelletMoodGain-0.1 {
		t.Errorf("mood = %v", g.Brain().Mood())
	}
	if g.Brain().Hunger() > hunger+0.01 {
		t.Errorf("hunger = %v, pellets must not feed", g.Brain().Hunger())
	}
	if g.Brain().State() != agent.Idle {
		t.Errorf("state = %v", g.Brain().State())
	}
}

func TestFeedAtFarAwaySettles(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	mustEnqueue(t, g, FeedAt{X: 20, Y: 20, Count: 1})
	for i := 0; i < 250; i++ {
		g.Update(0.05)
		if g.PelletsEaten() > 0 {
			t.Skip("creature wandered into the pellet")
		}
	}
	f := g.Frame()
	if len(f.Pellets) != 1 || !f.Pellets[0].Settled {
		t.Errorf("pellets = %+v", f.Pellets)
	}
}

func TestClearPellets(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	mustEnqueue(t, g, FeedAt{X: 20, Y: 20, Count: 3})
	g.Update(0.01)
	if n := len(g.Frame().Pellets); n != 3 {
		t.Fatalf("pellets = %d, want 3", n)
	}

	mustEnqueue(t, g, ClearPellets{})
	g.Update(0.01)
	if n := len(g.Frame().Pellets); n != 0 {
		t.Errorf("pellets after clear = %d, want 0", n)
	}
	if g.PelletsEaten() != 0 {
		t.Errorf("cleared pellets counted as eaten: %d", g.PelletsEaten())
	}
}

func TestSetBoundsContainsEverything(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	small := geom.Rect{X: 100, Y: 100, W: 300, H: 200}
	mustEnqueue(t, g, SetBounds{Rect: small})
	for i := 0; i < 300; i++ {
		g.Update(0.05)
		f := g.Frame()
		if !small.Contains(f.Creature.Position) {
			t.Fatalf("creature at %v", f.Creature.Position)
		}
		for _, s := range f.School {
			if !small.Contains(s.Position) {
				t.Fatalf("fish at %v", s.Position)
			}
		}
	}
}

func TestConcurrentEnqueueAndFrame(t *testing.T) {
	g := newTestGame(t, testConfig(t))
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				g.Enqueue(SetCursor{X: float64(100 + w), Y: float64(100 + i)})
				_ = g.Frame().Tick
			}
		}(w)
	}
	for i := 0; i < 100; i++ {
		g.Update(0.02)
	}
	wg.Wait()
	g.Update(0.02)
	if g.Tick() != 101 {
		t.Errorf("tick = %d", g.Tick())
	}
}

func TestOutputDirWritesCSV(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.WindowSec = 0.5
	dir := filepath.Join(t.TempDir(), "out")
	g, err := New(cfg, Options{Seed: 3, OutputDir: dir, Perf: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		g.Update(0.05)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: %v", name, err)
		}
	}
}
