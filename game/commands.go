package game

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
)

// ErrNoSchool is returned by school commands when the school is disabled.
var ErrNoSchool = errors.New("game: school is disabled")

// Command is a stimulus applied to the simulation at the next tick boundary.
type Command interface {
	// Validate rejects commands that can never succeed, before they are queued.
	Validate(g *Game) error
	apply(g *Game) error
}

// SetBounds resizes the world.
type SetBounds struct{ Rect geom.Rect }

func (c SetBounds) Validate(*Game) error { return c.Rect.Validate() }

func (c SetBounds) apply(g *Game) error {
	g.bounds = c.Rect
	g.brain.SetBounds(c.Rect)
	if g.flock != nil {
		g.flock.SetBounds(c.Rect)
	}
	slog.Info("world bounds changed", "bounds", c.Rect)
	return nil
}

// FeedAt drops pellets at a world point. Count <= 0 uses the configured
// pellets per feed.
type FeedAt struct {
	X, Y  float64
	Count int
}

func (FeedAt) Validate(*Game) error { return nil }

func (c FeedAt) apply(g *Game) error {
	g.dropPellets(r2.Vec{X: c.X, Y: c.Y}, c.Count)
	return nil
}

// FeedCreature drops pellets just above the creature.
type FeedCreature struct{ Count int }

func (FeedCreature) Validate(*Game) error { return nil }

func (c FeedCreature) apply(g *Game) error {
	p := g.brain.Position()
	p.Y -= g.cfg.Pellets.DropHeight
	g.dropPellets(p, c.Count)
	return nil
}

// ClearPellets removes every pellet still in the water or on the floor.
type ClearPellets struct{}

func (ClearPellets) Validate(*Game) error { return nil }

func (ClearPellets) apply(g *Game) error {
	if n := g.pellets.Clear(); n > 0 {
		slog.Info("pellets cleared", "count", n)
	}
	return nil
}

// AddZone adds a sanctuary zone.
type AddZone struct{ Zone sanctuary.Record }

func (c AddZone) Validate(*Game) error {
	_, err := c.Zone.Zone()
	return err
}

func (c AddZone) apply(g *Game) error {
	z, err := c.Zone.Zone()
	if err != nil {
		return err
	}
	_, err = g.field.AddZone(z)
	return err
}

// RemoveZone removes the zone at Index.
type RemoveZone struct{ Index int }

func (RemoveZone) Validate(*Game) error { return nil }

func (c RemoveZone) apply(g *Game) error {
	_, err := g.field.RemoveZone(c.Index)
	return err
}

// ClearZones removes every sanctuary zone.
type ClearZones struct{}

func (ClearZones) Validate(*Game) error { return nil }

func (ClearZones) apply(g *Game) error {
	g.field.ClearZones()
	return nil
}

// ToggleSanctuary flips the sanctuary on or off.
type ToggleSanctuary struct{}

func (ToggleSanctuary) Validate(*Game) error { return nil }

func (ToggleSanctuary) apply(g *Game) error {
	g.field.Toggle()
	return nil
}

// SetSanctuaryEnabled turns the sanctuary on or off.
type SetSanctuaryEnabled struct{ Enabled bool }

func (SetSanctuaryEnabled) Validate(*Game) error { return nil }

func (c SetSanctuaryEnabled) apply(g *Game) error {
	g.field.SetEnabled(c.Enabled)
	return nil
}

// SetSpecies switches the school to another species.
type SetSpecies struct{ Tag string }

func (c SetSpecies) Validate(g *Game) error {
	if g.flock == nil {
		return ErrNoSchool
	}
	_, err := g.flock.Registry().Lookup(c.Tag)
	return err
}

func (c SetSpecies) apply(g *Game) error {
	if g.flock == nil {
		return ErrNoSchool
	}
	return g.flock.SetSpecies(c.Tag)
}

// SetCount resizes the school. Out of range counts are clamped.
type SetCount struct{ N int }

func (SetCount) Validate(g *Game) error { return g.requireSchool() }

func (c SetCount) apply(g *Game) error {
	if err := g.requireSchool(); err != nil {
		return err
	}
	g.flock.SetCount(c.N)
	return nil
}

// SetSpeedScale changes the school speed multiplier. Out of range values are
// clamped.
type SetSpeedScale struct{ Scale float64 }

func (SetSpeedScale) Validate(g *Game) error { return g.requireSchool() }

func (c SetSpeedScale) apply(g *Game) error {
	if err := g.requireSchool(); err != nil {
		return err
	}
	g.flock.SetSpeedScale(c.Scale)
	return nil
}

// SetCursor reports the pointer position to the creature.
type SetCursor struct{ X, Y float64 }

func (SetCursor) Validate(*Game) error { return nil }

func (c SetCursor) apply(g *Game) error {
	g.brain.SetCursor(r2.Vec{X: c.X, Y: c.Y})
	return nil
}

// ClearCursor tells the creature the pointer is gone.
type ClearCursor struct{}

func (ClearCursor) Validate(*Game) error { return nil }

func (ClearCursor) apply(g *Game) error {
	g.brain.ClearCursor()
	return nil
}

// Rest sends the creature to rest.
type Rest struct{}

func (Rest) Validate(*Game) error { return nil }

func (Rest) apply(g *Game) error {
	g.brain.Rest()
	g.collector.RecordRest()
	return nil
}

func (g *Game) requireSchool() error {
	if g.flock == nil {
		return ErrNoSchool
	}
	return nil
}

// Enqueue validates cmd and queues it for the next Update. It is safe to
// call from any goroutine.
func (g *Game) Enqueue(cmd Command) error {
	if err := cmd.Validate(g); err != nil {
		return fmt.Errorf("%T: %w", cmd, err)
	}
	g.mu.Lock()
	g.queue = append(g.queue, cmd)
	g.mu.Unlock()
	return nil
}

// drainCommands applies every queued command in arrival order.
func (g *Game) drainCommands() {
	g.mu.Lock()
	cmds := g.queue
	g.queue = g.spare[:0]
	g.mu.Unlock()

	for _, cmd := range cmds {
		if err := cmd.apply(g); err != nil {
			g.collector.RecordRejectedCommand()
			slog.Warn("command rejected", "command", fmt.Sprintf("%T", cmd), "error", err)
		}
	}
	clear(cmds)
	g.spare = cmds
}
