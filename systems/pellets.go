// Package systems contains ECS systems for the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
)

// PelletParams tunes pellet physics.
type PelletParams struct {
	Gravity       float64 // px/s^2
	TerminalSpeed float64 // px/s
	CaptureRadius float64 // px
	Lifetime      float64 // s
	MaxPellets    int
}

// PelletEvents counts what happened to pellets during one update.
type PelletEvents struct {
	Eaten   int
	Expired int
}

// PelletState is the render state of one pellet.
type PelletState struct {
	ID      uint32  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Age     float64 `json:"age"`
	Settled bool    `json:"settled"`
}

// PelletSystem owns food pellets: they sink, settle on the floor, expire,
// and are eaten when the creature's mouth comes close.
type PelletSystem struct {
	params PelletParams
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Fall, components.Pellet]
	filter ecs.Filter3[components.Position, components.Fall, components.Pellet]

	nextID uint32
	count  int
}

// NewPelletSystem creates a pellet system on the given world.
func NewPelletSystem(w *ecs.World, p PelletParams) *PelletSystem {
	return &PelletSystem{
		params: p,
		world:  w,
		mapper: ecs.NewMap3[components.Position, components.Fall, components.Pellet](w),
		filter: *ecs.NewFilter3[components.Position, components.Fall, components.Pellet](w),
	}
}

// Count returns the number of live pellets.
func (s *PelletSystem) Count() int { return s.count }

// Spawn drops a pellet at p. It returns false when the pellet cap is reached.
func (s *PelletSystem) Spawn(p r2.Vec, now float64) bool {
	if s.params.MaxPellets > 0 && s.count >= s.params.MaxPellets {
		return false
	}
	pos := components.Position{X: p.X, Y: p.Y}
	fall := components.Fall{}
	pel := components.Pellet{ID: s.nextID, Born: now}
	s.mapper.NewEntity(&pos, &fall, &pel)
	s.nextID++
	s.count++
	return true
}

// Update sinks pellets for dt seconds inside bounds, then removes the ones
// that expired or are within the capture radius of mouth.
func (s *PelletSystem) Update(dt, now float64, bounds geom.Rect, mouth r2.Vec) PelletEvents {
	var ev PelletEvents
	var toRemove []ecs.Entity
	floor := bounds.Bottom()
	r2cap := s.params.CaptureRadius * s.params.CaptureRadius

	query := s.filter.Query()
	for query.Next() {
		pos, fall, pel := query.Get()

		if now-pel.Born > s.params.Lifetime {
			ev.Expired++
			toRemove = append(toRemove, query.Entity())
			continue
		}

		if !fall.Settled {
			fall.VY = math.Min(fall.VY+s.params.Gravity*dt, s.params.TerminalSpeed)
			pos.Y += fall.VY * dt
			if pos.Y >= floor {
				pos.Y = floor
				fall.VY = 0
				fall.Settled = true
			}
		}
		pos.X = geom.Clamp(pos.X, bounds.X, bounds.Right())

		dx, dy := pos.X-mouth.X, pos.Y-mouth.Y
		if dx*dx+dy*dy <= r2cap {
			ev.Eaten++
			toRemove = append(toRemove, query.Entity())
		}
	}

	for _, e := range toRemove {
		s.world.RemoveEntity(e)
	}
	s.count -= len(toRemove)
	return ev
}

// Clear removes every pellet.
func (s *PelletSystem) Clear() int {
	var toRemove []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		s.world.RemoveEntity(e)
	}
	s.count = 0
	return len(toRemove)
}

// States returns the render state of every pellet.
func (s *PelletSystem) States(now float64) []PelletState {
	out := make([]PelletState, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		pos, fall, pel := query.Get()
		out = append(out, PelletState{
			ID:      pel.ID,
			X:       pos.X,
			Y:       pos.Y,
			Age:     now - pel.Born,
			Settled: fall.Settled,
		})
	}
	return out
}
