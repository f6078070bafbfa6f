// Package game hosts the simulation: it owns the world bounds, the sanctuary
// field, the creature, the school and the food pellets, applies queued
// stimuli at tick boundaries and publishes a render frame after every tick.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/creature"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/school"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// MaxDT is the longest step a single Update advances the simulation.
const MaxDT = 0.1

// Options configures a Game beyond what the config file holds.
type Options struct {
	Seed      int64  // 0 uses cfg.Sim.Seed, then the clock
	OutputDir string // overrides cfg.Telemetry.OutputDir when set
	LogStats  bool
	Perf      bool // collect per-phase timings

	// StatsCallback, if set, receives every flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	bounds  geom.Rect
	field   *sanctuary.Field
	brain   *creature.Brain
	flock   *school.Flock // nil when the school is disabled
	world   *ecs.World
	pellets *systems.PelletSystem

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Running totals used to turn counters into per-window deltas
	lastMeals      int
	lastFallbacks  int
	lastRetargets  int
	pelletsEaten   int
	pelletsDropped int

	// Command queue, guarded by mu
	mu    sync.Mutex
	queue []Command
	spare []Command

	frame atomic.Pointer[Frame]

	tick    int64
	simTime float64
}

// New builds a game from a validated configuration.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	bounds := cfg.Derived.WorldRect

	field := sanctuary.NewField(cfg.SanctuaryOptions())
	if err := field.LoadRecords(cfg.Sanctuary.Zones); err != nil {
		return nil, fmt.Errorf("loading sanctuary zones: %w", err)
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:    cfg,
		rng:    rng,
		bounds: bounds,
		field:  field,
		brain:  creature.New(cfg.Creature, bounds, field, rng),
		world:  world,
		pellets: systems.NewPelletSystem(world, systems.PelletParams{
			Gravity:       cfg.Pellets.Gravity,
			TerminalSpeed: cfg.Pellets.TerminalSpeed,
			CaptureRadius: cfg.Pellets.CaptureRadius,
			Lifetime:      cfg.Pellets.Lifetime,
			MaxPellets:    cfg.Pellets.MaxPellets,
		}),
		collector:     telemetry.NewCollector(cfg.Telemetry.WindowSec),
		logStats:      opts.LogStats || cfg.Telemetry.LogStats,
		statsCallback: opts.StatsCallback,
	}

	if cfg.School.Enabled {
		reg, err := cfg.Registry()
		if err != nil {
			return nil, err
		}
		flock, err := school.New(reg, cfg.School.Species, bounds, field, cfg.School.Options, rng)
		if err != nil {
			return nil, err
		}
		g.flock = flock
	}

	if opts.Perf {
		g.perf = telemetry.NewPerfCollector(cfg.Sim.TickRate)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = cfg.Telemetry.OutputDir
	}
	output, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}
	g.output = output

	slog.Info("game created",
		"seed", seed,
		"bounds", bounds,
		"school", cfg.School.Enabled,
		"zones", field.Len(),
		"output", output.Dir(),
	)

	g.publish()
	return g, nil
}

// Accessors

func (g *Game) Config() *config.Config  { return g.cfg }
func (g *Game) Bounds() geom.Rect       { return g.bounds }
func (g *Game) Field() *sanctuary.Field { return g.field }
func (g *Game) Brain() *creature.Brain  { return g.brain }
func (g *Game) Flock() *school.Flock    { return g.flock }
func (g *Game) Tick() int64             { return g.tick }
func (g *Game) SimTime() float64        { return g.simTime }
func (g *Game) Pellets() int            { return g.pellets.Count() }
func (g *Game) PelletsEaten() int       { return g.pelletsEaten }

// Update drains the command queue and advances every agent by dt seconds.
// It must be called from a single goroutine.
func (g *Game) Update(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	dt = math.Min(dt, MaxDT)

	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseCommands)
	g.drainCommands()

	g.perf.StartPhase(telemetry.PhaseCreature)
	g.brain.Update(dt)
	g.collector.SampleCreature(g.brain.State(), g.brain.Hunger(), g.brain.Mood(), dt)

	g.perf.StartPhase(telemetry.PhaseSchool)
	if g.flock != nil {
		g.flock.Update(dt)
	}

	g.tick++
	g.simTime += dt

	g.perf.StartPhase(telemetry.PhasePellets)
	ev := g.pellets.Update(dt, g.simTime, g.bounds, g.brain.Position())
	for i := 0; i < ev.Eaten; i++ {
		g.brain.EatPellet()
	}
	g.pelletsEaten += ev.Eaten
	g.collector.RecordPellets(0, ev.Eaten, ev.Expired)

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.recordCounters()
	g.flushTelemetry()

	g.perf.EndTick()
	g.publish()
}

// dropPellets scatters n pellets horizontally around p.
func (g *Game) dropPellets(p r2.Vec, n int) {
	if n <= 0 {
		n = g.cfg.Pellets.PerFeed
	}
	spread := g.cfg.Pellets.Spread
	spawned := 0
	for i := 0; i < n; i++ {
		q := r2.Vec{X: p.X + geom.Uniform(g.rng, -spread, spread), Y: p.Y}
		if g.pellets.Spawn(g.bounds.ClampPoint(q), g.simTime) {
			spawned++
		}
	}
	g.pelletsDropped += spawned
	g.collector.RecordPellets(spawned, 0, 0)
	if spawned < n {
		slog.Warn("pellet cap reached", "requested", n, "spawned", spawned, "max", g.cfg.Pellets.MaxPellets)
	}
}

// PerfStats returns the rolling per-phase timings. ok is false unless the
// game was built with Options.Perf.
func (g *Game) PerfStats() (stats telemetry.PerfStats, ok bool) {
	if g.perf == nil {
		return telemetry.PerfStats{}, false
	}
	return g.perf.Stats(), true
}

// RecordFrame marks a rendered frame for FPS tracking.
func (g *Game) RecordFrame() { g.perf.RecordFrame() }

// Close flushes and closes telemetry output.
func (g *Game) Close() error {
	return g.output.Close()
}
