// Package sanctuary implements no-swim zones: rectangles the creatures are
// pushed out of by a soft force field.
//
// A Field is not safe for concurrent mutation. Readers within one tick may
// share it freely; edits belong between ticks.
package sanctuary

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
)

var (
	// ErrEmptyZone is returned when a zone rectangle has no area.
	ErrEmptyZone = errors.New("sanctuary: zone has no area")
	// ErrZoneIndex is returned when removing a zone that does not exist.
	ErrZoneIndex = errors.New("sanctuary: zone index out of range")
	// ErrNegativeForce is returned for a negative strength or margin.
	ErrNegativeForce = errors.New("sanctuary: strength and margin must not be negative")
)

// Defaults match the desktop companion's out-of-the-box settings.
const (
	DefaultStrength = 200.0
	DefaultMargin   = 80.0

	// insideFactor multiplies strength for points already inside a zone.
	insideFactor = 3.0
)

// Zone is an immutable rectangle the creatures may not enter.
type Zone struct {
	Rect  geom.Rect
	Label string
}

// NewZone validates the rectangle and builds a zone.
func NewZone(x, y, w, h float64, label string) (Zone, error) {
	r := geom.Rect{X: x, Y: y, W: w, H: h}
	if err := r.Validate(); err != nil {
		return Zone{}, ErrEmptyZone
	}
	return Zone{Rect: r, Label: label}, nil
}

// Contains reports whether p is inside the zone, edges included.
func (z Zone) Contains(p r2.Vec) bool {
	return z.Rect.Contains(p)
}

// Record is the plain persisted form of a zone.
type Record struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	W     float64 `yaml:"w" json:"w"`
	H     float64 `yaml:"h" json:"h"`
	Label string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// Record converts the zone to its persisted form.
func (z Zone) Record() Record {
	return Record{X: z.Rect.X, Y: z.Rect.Y, W: z.Rect.W, H: z.Rect.H, Label: z.Label}
}

// Zone validates and converts a record back into a zone.
func (r Record) Zone() (Zone, error) {
	return NewZone(r.X, r.Y, r.W, r.H, r.Label)
}

// Options configures a new Field.
type Options struct {
	Enabled  bool
	Strength float64 // force scale, px/s^2
	Margin   float64 // soft band outside each zone, px
}

// DefaultOptions returns a disabled field with stock strength and margin.
func DefaultOptions() Options {
	return Options{Strength: DefaultStrength, Margin: DefaultMargin}
}

// Validate checks that the field repels rather than attracts.
func (o Options) Validate() error {
	if o.Strength < 0 || o.Margin < 0 || math.IsNaN(o.Strength) || math.IsNaN(o.Margin) {
		return ErrNegativeForce
	}
	return nil
}

// Field owns an ordered list of zones and computes repulsion from them.
type Field struct {
	zones    []Zone
	enabled  bool
	strength float64
	margin   float64
}

// NewField creates an empty field.
func NewField(opts Options) *Field {
	margin := opts.Margin
	if margin < 0 {
		margin = 0
	}
	return &Field{
		enabled:  opts.Enabled,
		strength: opts.Strength,
		margin:   margin,
	}
}

// Enabled reports whether the field is active.
func (f *Field) Enabled() bool { return f.enabled }

// SetEnabled turns the field on or off.
func (f *Field) SetEnabled(enabled bool) {
	if f.enabled != enabled {
		slog.Info("sanctuary mode changed", "enabled", enabled)
	}
	f.enabled = enabled
}

// Toggle flips the enabled flag and returns the new value.
func (f *Field) Toggle() bool {
	f.SetEnabled(!f.enabled)
	return f.enabled
}

// Strength returns the repulsion strength.
func (f *Field) Strength() float64 { return f.strength }

// Margin returns the soft band width.
func (f *Field) Margin() float64 { return f.margin }

// Len returns the number of zones.
func (f *Field) Len() int { return len(f.zones) }

// Zones returns a copy of the zone list.
func (f *Field) Zones() []Zone {
	out := make([]Zone, len(f.zones))
	copy(out, f.zones)
	return out
}

// AddZone appends a zone and returns its index.
func (f *Field) AddZone(z Zone) (int, error) {
	if err := z.Rect.Validate(); err != nil {
		return -1, ErrEmptyZone
	}
	f.zones = append(f.zones, z)
	slog.Info("sanctuary zone added",
		"label", z.Label, "x", z.Rect.X, "y", z.Rect.Y, "w", z.Rect.W, "h", z.Rect.H)
	return len(f.zones) - 1, nil
}

// RemoveZone deletes the zone at index i, keeping the order of the rest.
func (f *Field) RemoveZone(i int) (Zone, error) {
	if i < 0 || i >= len(f.zones) {
		return Zone{}, ErrZoneIndex
	}
	removed := f.zones[i]
	f.zones = append(f.zones[:i], f.zones[i+1:]...)
	slog.Info("sanctuary zone removed", "label", removed.Label, "index", i)
	return removed, nil
}

// ClearZones removes every zone.
func (f *Field) ClearZones() {
	f.zones = f.zones[:0]
	slog.Info("sanctuary zones cleared")
}

// Records serializes the zones for persistence.
func (f *Field) Records() []Record {
	out := make([]Record, len(f.zones))
	for i, z := range f.zones {
		out[i] = z.Record()
	}
	return out
}

// LoadRecords replaces the zone list with the given records. Nothing changes
// if any record is invalid.
func (f *Field) LoadRecords(records []Record) error {
	zones := make([]Zone, 0, len(records))
	for _, r := range records {
		z, err := r.Zone()
		if err != nil {
			return err
		}
		zones = append(zones, z)
	}
	f.zones = zones
	return nil
}

// Contains reports whether p is inside any zone of an enabled field.
func (f *Field) Contains(p r2.Vec) bool {
	if f == nil || !f.enabled {
		return false
	}
	for _, z := range f.zones {
		if z.Contains(p) {
			return true
		}
	}
	return false
}

// Repulsion returns the summed force pushing p out of every zone.
// The result is the zero vector whenever the field is disabled.
func (f *Field) Repulsion(p r2.Vec) r2.Vec {
	if f == nil || !f.enabled || len(f.zones) == 0 {
		return r2.Vec{}
	}

	var total r2.Vec
	for _, z := range f.zones {
		total = r2.Add(total, f.zoneForce(z, p))
	}
	return total
}

// zoneForce is the contribution of a single zone.
func (f *Field) zoneForce(z Zone, p r2.Vec) r2.Vec {
	r := z.Rect

	if r.Contains(p) {
		// Eject through the nearest edge. Strict comparison keeps the
		// left, right, top, bottom order on ties.
		best := p.X - r.X
		normal := r2.Vec{X: -1}
		if d := r.Right() - p.X; d < best {
			best, normal = d, r2.Vec{X: 1}
		}
		if d := p.Y - r.Y; d < best {
			best, normal = d, r2.Vec{Y: -1}
		}
		if d := r.Bottom() - p.Y; d < best {
			normal = r2.Vec{Y: 1}
		}
		return r2.Scale(f.strength*insideFactor, normal)
	}

	if f.margin <= 0 {
		return r2.Vec{}
	}
	away := r2.Sub(p, r.ClosestPoint(p))
	dist := r2.Norm(away)
	if dist >= f.margin || dist == 0 {
		return r2.Vec{}
	}
	pen := (f.margin - dist) / f.margin
	return r2.Scale(f.strength*pen*pen/dist, away)
}
