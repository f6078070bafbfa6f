package school

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/geom"
)

// Agent is one fish in the flock.
type Agent struct {
	ID       int
	Position r2.Vec
	Velocity r2.Vec

	Facing       float64 // rendered heading, radians
	TargetFacing float64 // heading the fish is turning toward

	// Fixed at creation so fish of one species do not move in lockstep.
	SpeedMult float64
	Phase     float64

	// Cosmetic only.
	Mood   float64
	Hunger float64
}

func newAgent(id int, pos r2.Vec, rng *rand.Rand) *Agent {
	vel := r2.Vec{X: geom.Uniform(rng, -20, 20), Y: geom.Uniform(rng, -20, 20)}
	heading := geom.Heading(vel)
	return &Agent{
		ID:           id,
		Position:     pos,
		Velocity:     vel,
		Facing:       heading,
		TargetFacing: heading,
		SpeedMult:    0.85 + rng.Float64()*0.3,
		Phase:        rng.Float64() * 2 * math.Pi,
		Mood:         80 + rng.Float64()*20,
		Hunger:       rng.Float64() * 10,
	}
}

// Snapshot returns the agent's render state.
func (a *Agent) Snapshot() agent.Snapshot {
	return agent.Snapshot{
		ID:       a.ID,
		Position: a.Position,
		Velocity: a.Velocity,
		Hunger:   a.Hunger,
		Mood:     a.Mood,
		State:    agent.Schooling,
		Facing:   a.Facing,
	}
}
