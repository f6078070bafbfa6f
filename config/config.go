// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/shoal/creature"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/school"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig              `yaml:"screen"`
	World     WorldConfig               `yaml:"world"`
	Sim       SimConfig                 `yaml:"sim"`
	Creature  creature.Params           `yaml:"creature"`
	Pellets   PelletConfig              `yaml:"pellets"`
	School    SchoolConfig              `yaml:"school"`
	Species   SpeciesOverrides          `yaml:"species,omitempty"`
	Sanctuary SanctuaryConfig           `yaml:"sanctuary"`
	Telemetry TelemetryConfig           `yaml:"telemetry"`
	Webhook   WebhookConfig             `yaml:"webhook"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the world rectangle. A zero width or height falls back
// to the screen size.
type WorldConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SimConfig holds tick scheduling.
type SimConfig struct {
	TickRate float64 `yaml:"tick_rate"` // Hz
	Seed     int64   `yaml:"seed"`      // 0 picks a time-based seed
}

// PelletConfig holds food pellet parameters.
type PelletConfig struct {
	PerFeed       int     `yaml:"per_feed"`       // pellets dropped by one feed stimulus
	Spread        float64 `yaml:"spread"`         // px, horizontal scatter around the drop point
	DropHeight    float64 `yaml:"drop_height"`    // px above the creature for FeedCreature
	Gravity       float64 `yaml:"gravity"`        // px/s^2
	TerminalSpeed float64 `yaml:"terminal_speed"` // px/s
	CaptureRadius float64 `yaml:"capture_radius"` // px
	Lifetime      float64 `yaml:"lifetime"`       // s
	MaxPellets    int     `yaml:"max_pellets"`
}

// SchoolConfig selects and tunes the flock.
type SchoolConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Species        string `yaml:"species"`
	school.Options `yaml:",inline"`
}

// SpeciesOverrides maps species tags to flocking parameters. A tag that names
// a built-in species starts from the built-in values, so an entry only needs
// the keys it changes. A new tag must give a complete record.
type SpeciesOverrides map[string]school.Species

// UnmarshalYAML decodes each entry over its built-in species.
func (o *SpeciesOverrides) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("species: line %d: expected a mapping of tags", value.Line)
	}
	if *o == nil {
		*o = make(SpeciesOverrides, len(value.Content)/2)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var tag string
		if err := value.Content[i].Decode(&tag); err != nil {
			return fmt.Errorf("species: %w", err)
		}
		sp, ok := (*o)[tag]
		if !ok {
			// Unknown tags start from zero and are checked by Registry
			sp, _ = school.Lookup(tag)
		}
		if err := value.Content[i+1].Decode(&sp); err != nil {
			return fmt.Errorf("species %q: %w", tag, err)
		}
		(*o)[tag] = sp
	}
	return nil
}

// SanctuaryConfig holds the sanctuary field settings and saved zones.
type SanctuaryConfig struct {
	Enabled           bool               `yaml:"enabled"`
	RepulsionStrength float64            `yaml:"repulsion_strength"`
	RepulsionMargin   float64            `yaml:"repulsion_margin"`
	Zones             []sanctuary.Record `yaml:"zones"`
}

// TelemetryConfig holds windowed statistics settings.
type TelemetryConfig struct {
	OutputDir  string  `yaml:"output_dir"` // empty disables CSV output
	WindowSec  float64 `yaml:"window_sec"`
	LogStats   bool    `yaml:"log_stats"`
	ChimeOnEat bool    `yaml:"chime_on_eat"` // terminal viewer only
}

// WebhookConfig holds the HTTP stimulus bridge settings.
type WebhookConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Addr            string  `yaml:"addr"`
	ShutdownTimeout float64 `yaml:"shutdown_timeout"` // s
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldRect geom.Rect     // effective world bounds
	TickDT    float64       // 1 / TickRate
	Tick      time.Duration // TickDT as a duration
}

// Validation errors.
var (
	ErrTickRate   = errors.New("config: tick_rate must be positive")
	ErrSchoolSize = fmt.Errorf("config: school count must be within [%d, %d]", school.MinCount, school.MaxCount)
	ErrPellets    = errors.New("config: invalid pellets")
	ErrWindow     = errors.New("config: telemetry window_sec must be positive")
)

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	w, h := c.World.Width, c.World.Height
	if w == 0 {
		w = float64(c.Screen.Width)
	}
	if h == 0 {
		h = float64(c.Screen.Height)
	}
	c.Derived.WorldRect = geom.Rect{X: c.World.X, Y: c.World.Y, W: w, H: h}

	c.Derived.TickDT, c.Derived.Tick = 0, 0
	if c.Sim.TickRate > 0 {
		c.Derived.TickDT = 1 / c.Sim.TickRate
		c.Derived.Tick = time.Duration(c.Derived.TickDT * float64(time.Second))
	}
}

// Validate recomputes derived values and rejects configurations the
// simulation cannot run with.
func (c *Config) Validate() error {
	c.computeDerived()
	if err := c.Derived.WorldRect.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if !(c.Sim.TickRate > 0) {
		return ErrTickRate
	}
	if err := c.Creature.Validate(); err != nil {
		return err
	}
	if err := c.Pellets.Validate(); err != nil {
		return err
	}
	if c.School.Count < school.MinCount || c.School.Count > school.MaxCount {
		return ErrSchoolSize
	}
	if err := c.School.Options.Validate(); err != nil {
		return err
	}
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if !reg.Has(c.School.Species) {
		return fmt.Errorf("school: %w: %q", school.ErrUnknownSpecies, c.School.Species)
	}
	if err := c.SanctuaryOptions().Validate(); err != nil {
		return err
	}
	if !(c.Telemetry.WindowSec > 0) {
		return ErrWindow
	}
	for i, r := range c.Sanctuary.Zones {
		if _, err := r.Zone(); err != nil {
			return fmt.Errorf("sanctuary zone %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the pellet physics. A zero max_pellets means no cap.
func (p PelletConfig) Validate() error {
	var msg string
	switch {
	case p.PerFeed < 1:
		msg = "per_feed must be at least 1"
	case p.Spread < 0 || p.DropHeight < 0:
		msg = "spread and drop_height must not be negative"
	case p.Gravity < 0:
		msg = "gravity must not be negative"
	case !(p.TerminalSpeed > 0):
		msg = "terminal_speed must be positive"
	case !(p.CaptureRadius > 0):
		msg = "capture_radius must be positive"
	case !(p.Lifetime > 0):
		msg = "lifetime must be positive"
	case p.MaxPellets < 0:
		msg = "max_pellets must not be negative"
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPellets, msg)
}

// Registry returns the built-in species with the configured overrides applied.
func (c *Config) Registry() (*school.Registry, error) {
	reg := school.NewRegistry()
	for tag, sp := range c.Species {
		if err := reg.Set(tag, sp); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// SanctuaryOptions converts the sanctuary section into field options.
func (c *Config) SanctuaryOptions() sanctuary.Options {
	return sanctuary.Options{
		Enabled:  c.Sanctuary.Enabled,
		Strength: c.Sanctuary.RepulsionStrength,
		Margin:   c.Sanctuary.RepulsionMargin,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
