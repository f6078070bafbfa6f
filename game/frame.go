package game

import (
	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/systems"
)

// Frame is an immutable render snapshot of one tick.
type Frame struct {
	Tick   int64     `json:"tick"`
	Time   float64   `json:"time"`
	Bounds geom.Rect `json:"bounds"`

	Creature agent.Snapshot `json:"creature"`
	Target   [2]float64     `json:"target"`

	School     []agent.Snapshot `json:"school"`
	Species    string           `json:"species,omitempty"`
	SpeedScale float64          `json:"speed_scale,omitempty"`

	Pellets      []systems.PelletState `json:"pellets"`
	PelletsEaten int                   `json:"pellets_eaten"`

	Zones            []sanctuary.Record `json:"zones"`
	SanctuaryEnabled bool               `json:"sanctuary_enabled"`
}

// Frame returns the most recently published frame. It is safe to call from
// any goroutine; callers must not modify the result.
func (g *Game) Frame() *Frame {
	return g.frame.Load()
}

func (g *Game) publish() {
	t := g.brain.Target()
	f := &Frame{
		Tick:   g.tick,
		Time:   g.simTime,
		Bounds: g.bounds,

		Creature: g.brain.Snapshot(),
		Target:   [2]float64{t.X, t.Y},

		School: []agent.Snapshot{},

		Pellets:      g.pellets.States(g.simTime),
		PelletsEaten: g.pelletsEaten,

		Zones:            g.field.Records(),
		SanctuaryEnabled: g.field.Enabled(),
	}
	if g.flock != nil {
		f.School = g.flock.Snapshots()
		f.Species = g.flock.Species().Name
		f.SpeedScale = g.flock.SpeedScale()
	}
	g.frame.Store(f)
}
