// Package creature implements the single-creature brain: a small hunger and
// mood driven state machine that steers one animal around the world.
package creature

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/steer"
)

const (
	maxHunger = 100.0
	maxMood   = 100.0
)

// Brain owns one creature's kinematic and behavioral state.
type Brain struct {
	p      Params
	rng    *rand.Rand
	bounds geom.Rect
	field  *sanctuary.Field

	pos    r2.Vec
	vel    r2.Vec
	target r2.Vec
	facing float64

	hunger float64
	mood   float64
	state  agent.State

	restTimer float64
	clock     float64 // simulated seconds at the last update

	cursor    r2.Vec
	hasCursor bool

	// Counters for telemetry
	fallbacks    int
	meals        int
	pelletsEaten int
}

// New creates a brain at the center of bounds, not hungry and content.
// The field may be nil.
func New(p Params, bounds geom.Rect, field *sanctuary.Field, rng *rand.Rand) *Brain {
	c := bounds.Center()
	return &Brain{
		p:      p,
		rng:    rng,
		bounds: bounds,
		field:  field,
		pos:    c,
		target: c,
		hunger: 0,
		mood:   maxMood,
		state:  agent.Idle,
	}
}

// Accessors

func (b *Brain) Position() r2.Vec     { return b.pos }
func (b *Brain) Velocity() r2.Vec     { return b.vel }
func (b *Brain) Target() r2.Vec       { return b.target }
func (b *Brain) Facing() float64      { return b.facing }
func (b *Brain) Hunger() float64      { return b.hunger }
func (b *Brain) Mood() float64        { return b.mood }
func (b *Brain) State() agent.State   { return b.state }
func (b *Brain) Bounds() geom.Rect    { return b.bounds }
func (b *Brain) Clock() float64       { return b.clock }
func (b *Brain) Params() Params       { return b.p }
func (b *Brain) TargetFallbacks() int { return b.fallbacks }
func (b *Brain) Meals() int           { return b.meals }
func (b *Brain) PelletsEaten() int    { return b.pelletsEaten }

// SetField attaches or detaches (nil) the sanctuary field.
func (b *Brain) SetField(f *sanctuary.Field) { b.field = f }

// SetBounds replaces the world rectangle and pulls the creature and its
// target back inside it.
func (b *Brain) SetBounds(r geom.Rect) {
	b.bounds = r
	b.pos = r.ClampPoint(b.pos)
	b.target = r.ClampPoint(b.target)
}

// SetPosition teleports the creature, clamped to the bounds.
func (b *Brain) SetPosition(p r2.Vec) { b.pos = b.bounds.ClampPoint(p) }

// SetVelocity overrides the current velocity.
func (b *Brain) SetVelocity(v r2.Vec) { b.vel = v }

// SetHunger writes hunger clamped to [0, 100].
func (b *Brain) SetHunger(h float64) { b.hunger = geom.Clamp(h, 0, maxHunger) }

// SetMood writes mood clamped to [0, 100].
func (b *Brain) SetMood(m float64) { b.mood = geom.Clamp(m, 0, maxMood) }

// SetCursor tells the creature where the pointer is.
func (b *Brain) SetCursor(p r2.Vec) {
	b.cursor = p
	b.hasCursor = true
}

// ClearCursor forgets the pointer, e.g. when it leaves the world.
func (b *Brain) ClearCursor() { b.hasCursor = false }

// Rest puts the creature to rest for Params.RestDuration seconds.
func (b *Brain) Rest() {
	b.restTimer = 0
	b.setState(agent.Resting)
}

// EatPellet records a consumed pellet. It is a reward only: mood rises a
// little and nothing else changes.
func (b *Brain) EatPellet() {
	b.pelletsEaten++
	b.SetMood(b.mood + b.p.PelletMoodGain)
}

// Snapshot returns the render state for this tick.
func (b *Brain) Snapshot() agent.Snapshot {
	return agent.Snapshot{
		Position: b.pos,
		Velocity: b.vel,
		Hunger:   b.hunger,
		Mood:     b.mood,
		State:    b.state,
		Facing:   b.facing,
	}
}

// Update advances the creature by dt seconds. Negative or NaN dt counts as
// zero; dt above Params.MaxDT is clamped.
func (b *Brain) Update(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	dt = math.Min(dt, b.p.MaxDT)
	b.clock += dt

	b.SetHunger(b.hunger + b.p.HungerRate*dt)
	b.updateMood(dt)

	b.think(dt)
	b.steer(dt)
	b.applySanctuary(dt)

	b.pos = r2.Add(b.pos, r2.Scale(dt, b.vel))
	b.checkBoundaries()
	b.updateFacing(dt)
}

func (b *Brain) updateMood(dt float64) {
	switch {
	case b.hunger > b.p.StarveHunger:
		b.SetMood(b.mood - b.p.MoodDecay*dt)
	case b.hunger < b.p.ContentHunger:
		b.SetMood(b.mood + b.p.MoodRecover*dt)
	default:
		b.SetMood(b.mood + b.p.MoodRecoverMid*dt)
	}
}

// think runs the state transition for the current state.
func (b *Brain) think(dt float64) {
	switch b.state {
	case agent.Idle:
		if b.hunger > b.p.SearchHunger {
			b.startSearch(b.pickTarget())
			return
		}
		if b.hasCursor && b.investigateCursor() {
			return
		}
		if b.rng.Float64() < b.p.WanderChance {
			b.startSearch(b.pickTarget())
		}

	case agent.Searching:
		if r2.Norm(r2.Sub(b.target, b.pos)) < b.p.ArriveRadius {
			if b.hunger > b.p.SatedHunger {
				b.setState(agent.Feeding)
			} else {
				b.setState(agent.Idle)
			}
		}

	case agent.Feeding:
		b.SetHunger(b.hunger - b.p.FeedRate*dt)
		if b.hunger <= 0 {
			b.meals++
			b.SetMood(b.mood + b.p.FeedMoodBonus)
			b.setState(agent.Idle)
		} else if b.rng.Float64() < b.p.RefocusChance {
			b.startSearch(b.pickTarget())
		}

	case agent.Resting:
		b.restTimer += dt
		b.SetMood(b.mood + b.p.RestMood*dt)
		if b.restTimer > b.p.RestDuration {
			b.setState(agent.Idle)
		}
	}
}

func (b *Brain) setState(s agent.State) {
	if s != b.state {
		slog.Debug("creature state", "from", b.state, "to", s, "hunger", b.hunger, "mood", b.mood)
	}
	b.state = s
}

func (b *Brain) startSearch(target r2.Vec) {
	b.target = target
	b.setState(agent.Searching)
}

// investigateCursor may send an idle creature toward the pointer. Closer
// pointers are more interesting.
func (b *Brain) investigateCursor() bool {
	d := r2.Norm(r2.Sub(b.cursor, b.pos))
	if d >= b.p.CursorRange {
		return false
	}
	interest := 1 - d/b.p.CursorRange
	if b.rng.Float64() >= b.p.CursorChance*interest {
		return false
	}

	angle := b.rng.Float64() * 2 * math.Pi
	dist := geom.Uniform(b.rng, b.p.CursorMinDist, b.p.CursorMaxDist)
	spot := b.targetArea().ClampPoint(r2.Add(b.cursor, geom.FromAngle(angle, dist)))
	if b.field.Contains(spot) {
		return false
	}
	b.startSearch(spot)
	return true
}

// targetArea is the region targets are drawn from.
func (b *Brain) targetArea() geom.Rect {
	return b.bounds.Inset(b.p.TargetInset)
}

// pickTarget samples a point outside every sanctuary zone. After
// TargetRetries misses it settles for the world center.
func (b *Brain) pickTarget() r2.Vec {
	area := b.targetArea()
	for i := 0; i < b.p.TargetRetries; i++ {
		c := area.RandomPoint(b.rng)
		if !b.field.Contains(c) {
			return c
		}
	}
	b.fallbacks++
	slog.Warn("creature target selection exhausted, using world center",
		"retries", b.p.TargetRetries, "zones", zoneCount(b.field), "bounds", b.bounds)
	return b.bounds.Center()
}

// steer sets the velocity for the current state.
func (b *Brain) steer(dt float64) {
	switch b.state {
	case agent.Searching:
		dir := r2.Sub(b.target, b.pos)
		if n := r2.Norm(dir); n > 0 {
			speed := b.p.BaseSpeed + (b.mood/maxMood)*b.p.MoodSpeed
			desired := r2.Scale(speed/n, dir)
			b.vel = r2.Add(r2.Scale(1-b.p.SteerBlend, b.vel), r2.Scale(b.p.SteerBlend, desired))
		} else {
			b.vel = r2.Scale(b.p.Damping, b.vel)
		}

	case agent.Feeding:
		j := b.p.JitterSpeed
		b.vel = r2.Vec{X: geom.Uniform(b.rng, -j, j), Y: geom.Uniform(b.rng, -j, j)}

	case agent.Resting:
		b.vel = r2.Scale(b.p.RestDamping, b.vel)
		b.vel.Y += b.p.RestSink * dt

	default:
		b.vel = r2.Scale(b.p.Damping, b.vel)
	}
}

func (b *Brain) applySanctuary(dt float64) {
	f := b.field.Repulsion(b.pos)
	if math.Abs(f.X) <= b.p.SanctuaryMinForce && math.Abs(f.Y) <= b.p.SanctuaryMinForce {
		return
	}
	b.vel = geom.Limit(r2.Add(b.vel, r2.Scale(dt, f)), b.p.SanctuaryMaxSpeed)
}

// checkBoundaries reflects velocity off any wall that was crossed and puts
// the creature back inside.
func (b *Brain) checkBoundaries() {
	r := b.bounds
	if b.pos.X < r.X {
		b.pos.X = r.X
		b.vel.X = math.Abs(b.vel.X) * b.p.BounceLoss
	} else if b.pos.X > r.Right() {
		b.pos.X = r.Right()
		b.vel.X = -math.Abs(b.vel.X) * b.p.BounceLoss
	}
	if b.pos.Y < r.Y {
		b.pos.Y = r.Y
		b.vel.Y = math.Abs(b.vel.Y) * b.p.BounceLoss
	} else if b.pos.Y > r.Bottom() {
		b.pos.Y = r.Bottom()
		b.vel.Y = -math.Abs(b.vel.Y) * b.p.BounceLoss
	}
	b.pos = r.ClampPoint(b.pos)
}

func (b *Brain) updateFacing(dt float64) {
	if r2.Norm(b.vel) <= b.p.FacingSpeed {
		return
	}
	next := steer.Turn(b.facing, geom.Heading(b.vel), b.p.TurnRate, dt)
	b.facing = geom.NormalizeAngle(next)
}

func zoneCount(f *sanctuary.Field) int {
	if f == nil {
		return 0
	}
	return f.Len()
}
