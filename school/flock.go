package school

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/steer"
)

// Population and speed limits.
const (
	MinCount      = 1
	MaxCount      = 12
	MinSpeedScale = 0.35
	MaxSpeedScale = 2.0
)

// Options tunes flock-wide behavior that does not depend on species.
type Options struct {
	Count      int     `yaml:"count"`
	SpeedScale float64 `yaml:"speed_scale"`
	MaxDT      float64 `yaml:"max_dt"`

	RetargetInterval float64 `yaml:"retarget_interval"` // s between roaming target changes
	ArriveRadius     float64 `yaml:"arrive_radius"`     // px, near the target the next pick comes sooner
	ArriveHaste      float64 `yaml:"arrive_haste"`      // extra target aging per agent inside ArriveRadius
	TargetRetries    int     `yaml:"target_retries"`
	TightPull        float64 `yaml:"tight_pull"` // roaming target pull for tight schoolers
	LoosePull        float64 `yaml:"loose_pull"`

	EdgeMargin      float64 `yaml:"edge_margin"` // px, soft wall ramp starts here
	EdgeForce       float64 `yaml:"edge_force"`
	ClampInset      float64 `yaml:"clamp_inset"` // hard position limit from each wall
	SanctuaryWeight float64 `yaml:"sanctuary_weight"`

	Drag          float64 `yaml:"drag"` // per-tick velocity retention
	MinSpeed      float64 `yaml:"min_speed"`
	KickSpeed     float64 `yaml:"kick_speed"`   // random push given to a stalled fish
	FacingSpeed   float64 `yaml:"facing_speed"` // facing tracks velocity above this
	BlendSpeed    float64 `yaml:"blend_speed"`  // velocity bends toward facing above this
	VelocityBlend float64 `yaml:"velocity_blend"`

	SpawnSpreadX float64 `yaml:"spawn_spread_x"`
	SpawnSpreadY float64 `yaml:"spawn_spread_y"`
	SpawnInset   float64 `yaml:"spawn_inset"`
	GrowSpreadX  float64 `yaml:"grow_spread_x"`
	GrowSpreadY  float64 `yaml:"grow_spread_y"`
}

// DefaultOptions returns the stock flock tuning with six fish.
func DefaultOptions() Options {
	return Options{
		Count:      6,
		SpeedScale: 1,
		MaxDT:      0.1,

		RetargetInterval: 8,
		ArriveRadius:     120,
		ArriveHaste:      4,
		TargetRetries:    20,
		TightPull:        8,
		LoosePull:        5,

		EdgeMargin:      100,
		EdgeForce:       40,
		ClampInset:      30,
		SanctuaryWeight: 0.5,

		Drag:          0.97,
		MinSpeed:      3,
		KickSpeed:     5,
		FacingSpeed:   2,
		BlendSpeed:    5,
		VelocityBlend: 0.15,

		SpawnSpreadX: 150,
		SpawnSpreadY: 100,
		SpawnInset:   60,
		GrowSpreadX:  80,
		GrowSpreadY:  60,
	}
}

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("school: invalid options")

// Validate rejects flock tunings that break the tick invariants. Count and
// SpeedScale are clamped on use and not checked here.
func (o Options) Validate() error {
	var msg string
	switch {
	case !(o.MaxDT > 0):
		msg = "max_dt must be positive"
	case !(o.RetargetInterval > 0):
		msg = "retarget_interval must be positive"
	case o.ArriveRadius < 0 || o.ArriveHaste < 0:
		msg = "arrive_radius and arrive_haste must not be negative"
	case o.TargetRetries < 1:
		msg = "target_retries must be at least 1"
	case o.TightPull < 0 || o.LoosePull < 0:
		msg = "target pulls must not be negative"
	case o.EdgeMargin < 0 || o.EdgeForce < 0 || o.ClampInset < 0:
		msg = "edge settings must not be negative"
	case o.SanctuaryWeight < 0:
		msg = "sanctuary_weight must not be negative"
	case !(o.Drag > 0 && o.Drag <= 1):
		msg = "drag must be within (0, 1]"
	case o.MinSpeed < 0 || o.KickSpeed < 0 || o.FacingSpeed < 0 || o.BlendSpeed < 0:
		msg = "speed thresholds must not be negative"
	case o.VelocityBlend < 0 || o.VelocityBlend > 1:
		msg = "velocity_blend must be within [0, 1]"
	case o.SpawnSpreadX < 0 || o.SpawnSpreadY < 0 || o.SpawnInset < 0 || o.GrowSpreadX < 0 || o.GrowSpreadY < 0:
		msg = "spawn spreads must not be negative"
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, msg)
}

// Flock is a school of fish sharing one species and one roaming target.
type Flock struct {
	opts     Options
	registry *Registry
	species  Species
	rng      *rand.Rand

	bounds geom.Rect
	field  *sanctuary.Field

	agents     []*Agent
	nextID     int
	speedScale float64

	target    r2.Vec
	targetAge float64
	clock     float64

	retargets int
	fallbacks int

	// Scratch buffers for the per-tick snapshot.
	positions  []r2.Vec
	velocities []r2.Vec
}

// New spawns a flock of opts.Count fish of the given species around the
// center of bounds. A nil registry means the built-in species only.
func New(reg *Registry, tag string, bounds geom.Rect, field *sanctuary.Field, opts Options, rng *rand.Rand) (*Flock, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	sp, err := reg.Lookup(tag)
	if err != nil {
		return nil, err
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	f := &Flock{
		opts:     opts,
		registry: reg,
		species:  sp,
		rng:      rng,
		bounds:   bounds,
		field:    field,
		target:   bounds.Center(),
	}
	f.speedScale = clampSpeedScale(opts.SpeedScale)
	f.spawn(clampCount(opts.Count))

	slog.Info("school created", "species", sp.Name, "count", len(f.agents))
	return f, nil
}

func clampCount(n int) int {
	return max(MinCount, min(MaxCount, n))
}

func clampSpeedScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return geom.Clamp(s, MinSpeedScale, MaxSpeedScale)
}

func (f *Flock) spawn(n int) {
	c := f.bounds.Center()
	area := f.bounds.Inset(f.opts.SpawnInset)
	f.agents = f.agents[:0]
	for i := 0; i < n; i++ {
		p := r2.Vec{
			X: c.X + geom.Uniform(f.rng, -f.opts.SpawnSpreadX, f.opts.SpawnSpreadX),
			Y: c.Y + geom.Uniform(f.rng, -f.opts.SpawnSpreadY, f.opts.SpawnSpreadY),
		}
		f.addAgent(area.ClampPoint(p))
	}
}

func (f *Flock) addAgent(p r2.Vec) {
	f.agents = append(f.agents, newAgent(f.nextID, p, f.rng))
	f.nextID++
}

// Accessors

func (f *Flock) Len() int             { return len(f.agents) }
func (f *Flock) Species() Species     { return f.species }
func (f *Flock) SpeedScale() float64  { return f.speedScale }
func (f *Flock) Bounds() geom.Rect    { return f.bounds }
func (f *Flock) Target() r2.Vec       { return f.target }
func (f *Flock) Clock() float64       { return f.clock }
func (f *Flock) Retargets() int       { return f.retargets }
func (f *Flock) TargetFallbacks() int { return f.fallbacks }
func (f *Flock) Registry() *Registry  { return f.registry }
func (f *Flock) Agent(i int) *Agent   { return f.agents[i] }

// SetField attaches or detaches (nil) the sanctuary field.
func (f *Flock) SetField(fl *sanctuary.Field) { f.field = fl }

// SetCount grows or shrinks the flock, clamped to [MinCount, MaxCount].
// New fish appear near the current centroid; shrinking drops the newest.
func (f *Flock) SetCount(n int) int {
	n = clampCount(n)
	cur := len(f.agents)
	switch {
	case n > cur:
		c := f.Centroid()
		area := f.clampArea()
		for i := cur; i < n; i++ {
			p := r2.Vec{
				X: c.X + geom.Uniform(f.rng, -f.opts.GrowSpreadX, f.opts.GrowSpreadX),
				Y: c.Y + geom.Uniform(f.rng, -f.opts.GrowSpreadY, f.opts.GrowSpreadY),
			}
			f.addAgent(area.ClampPoint(p))
		}
	case n < cur:
		for i := n; i < cur; i++ {
			f.agents[i] = nil
		}
		f.agents = f.agents[:n]
	default:
		return n
	}
	slog.Info("school count changed", "from", cur, "to", n)
	return n
}

// SetSpeedScale sets the global speed multiplier, clamped to
// [MinSpeedScale, MaxSpeedScale], and returns the value applied.
func (f *Flock) SetSpeedScale(s float64) float64 {
	f.speedScale = clampSpeedScale(s)
	slog.Info("school speed scale changed", "scale", f.speedScale)
	return f.speedScale
}

// SetSpecies switches every fish to another registered species. Positions
// and velocities carry over.
func (f *Flock) SetSpecies(tag string) error {
	sp, err := f.registry.Lookup(tag)
	if err != nil {
		return err
	}
	f.species = sp
	slog.Info("school species changed", "species", tag)
	return nil
}

// SetBounds replaces the world rectangle and pulls fish and target inside.
func (f *Flock) SetBounds(r geom.Rect) {
	f.bounds = r
	area := f.clampArea()
	for _, a := range f.agents {
		a.Position = area.ClampPoint(a.Position)
	}
	f.target = r.ClampPoint(f.target)
}

func (f *Flock) clampArea() geom.Rect {
	return f.bounds.Inset(f.opts.ClampInset)
}

// Centroid is the mean fish position, or the world center when empty.
func (f *Flock) Centroid() r2.Vec {
	if len(f.agents) == 0 {
		return f.bounds.Center()
	}
	pts := make([]r2.Vec, len(f.agents))
	for i, a := range f.agents {
		pts[i] = a.Position
	}
	return geom.Centroid(pts)
}

// Spread returns the mean distance of the fish from their centroid.
func (f *Flock) Spread() float64 {
	if len(f.agents) == 0 {
		return 0
	}
	c := f.Centroid()
	d := make([]float64, len(f.agents))
	for i, a := range f.agents {
		d[i] = r2.Norm(r2.Sub(a.Position, c))
	}
	return stat.Mean(d, nil)
}

// SpeedStats returns the mean and standard deviation of fish speeds.
func (f *Flock) SpeedStats() (mean, std float64) {
	if len(f.agents) == 0 {
		return 0, 0
	}
	s := make([]float64, len(f.agents))
	for i, a := range f.agents {
		s[i] = r2.Norm(a.Velocity)
	}
	if len(s) == 1 {
		return s[0], 0
	}
	return stat.MeanStdDev(s, nil)
}

// Snapshots returns the render state of every fish.
func (f *Flock) Snapshots() []agent.Snapshot {
	out := make([]agent.Snapshot, len(f.agents))
	for i, a := range f.agents {
		out[i] = a.Snapshot()
	}
	return out
}

// pickTarget chooses a new roaming target away from the walls and outside
// every sanctuary zone.
func (f *Flock) pickTarget() {
	b := f.bounds
	mx := math.Max(80, math.Min(220, b.W*0.08))
	my := math.Max(80, math.Min(180, b.H*0.10))
	area := b.InsetXY(mx, my)

	f.targetAge = 0
	f.retargets++
	for i := 0; i < f.opts.TargetRetries; i++ {
		p := area.RandomPoint(f.rng)
		if !f.field.Contains(p) {
			f.target = p
			return
		}
	}
	f.fallbacks++
	f.target = b.Center()
	slog.Warn("school target selection exhausted, using world center",
		"retries", f.opts.TargetRetries, "zones", zoneCount(f.field), "bounds", b)
}

// Update advances the flock by dt seconds. Forces are computed from a
// snapshot of the positions and velocities at the start of the tick.
func (f *Flock) Update(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	dt = math.Min(dt, f.opts.MaxDT)
	f.clock += dt
	if len(f.agents) == 0 {
		return
	}

	f.targetAge += dt
	if f.targetAge > f.opts.RetargetInterval {
		f.pickTarget()
	}

	f.positions = f.positions[:0]
	f.velocities = f.velocities[:0]
	for _, a := range f.agents {
		f.positions = append(f.positions, a.Position)
		f.velocities = append(f.velocities, a.Velocity)
	}

	for i, a := range f.agents {
		force := f.flockForce(i, a)
		force = r2.Add(force, f.wander(a))
		force = r2.Add(force, f.targetPull(a, dt))
		force = r2.Add(force, f.edgeForce(a.Position))
		force = r2.Add(force, r2.Scale(f.opts.SanctuaryWeight, f.field.Repulsion(a.Position)))

		a.Velocity = r2.Add(a.Velocity, r2.Scale(dt, force))
		a.Velocity = r2.Scale(f.opts.Drag, a.Velocity)
		f.limitSpeed(a)
		f.updateFacing(a, dt)

		a.Position = r2.Add(a.Position, r2.Scale(dt, a.Velocity))
		a.Position = f.clampArea().ClampPoint(a.Position)
	}
}

// flockForce sums separation, alignment and cohesion against the snapshot.
func (f *Flock) flockForce(i int, a *Agent) r2.Vec {
	sp := f.species
	var sep, alignSum, cohSum r2.Vec
	var sepN, alignN, cohN int

	for j, pj := range f.positions {
		if j == i {
			continue
		}
		diff := r2.Sub(pj, a.Position)
		d := r2.Norm(diff)
		if d < 1 {
			continue
		}
		if d < sp.SeparationRadius {
			sep = r2.Sub(sep, r2.Scale(1/(d*d), diff))
			sepN++
		}
		if d < sp.AlignmentRadius {
			alignSum = r2.Add(alignSum, f.velocities[j])
			alignN++
		}
		if d < sp.CohesionRadius {
			cohSum = r2.Add(cohSum, pj)
			cohN++
		}
	}

	var force r2.Vec
	if sepN > 0 {
		force = r2.Add(force, r2.Scale(sp.SeparationWeight, sep))
	}
	if alignN > 0 {
		avg := r2.Scale(1/float64(alignN), alignSum)
		force = r2.Add(force, r2.Scale(sp.AlignmentWeight*0.1, r2.Sub(avg, a.Velocity)))
	}
	if cohN > 0 {
		center := r2.Scale(1/float64(cohN), cohSum)
		force = r2.Add(force, r2.Scale(sp.CohesionWeight*0.01, r2.Sub(center, a.Position)))
	}
	return force
}

// wander is a smooth deterministic drift driven by the fish's phase and the
// simulation clock.
func (f *Flock) wander(a *Agent) r2.Vec {
	w := f.species.WanderStrength
	angle := a.Phase + f.clock*0.5
	return r2.Vec{X: math.Cos(angle) * w, Y: math.Sin(angle*0.7) * w * 0.6}
}

func (f *Flock) targetPull(a *Agent, dt float64) r2.Vec {
	to := r2.Sub(f.target, a.Position)
	d := r2.Norm(to)
	if d < f.opts.ArriveRadius {
		f.targetAge += dt * f.opts.ArriveHaste
	}
	if d <= 1 {
		return r2.Vec{}
	}
	pull := f.opts.LoosePull
	if f.species.Tight {
		pull = f.opts.TightPull
	}
	return r2.Scale(pull/d, to)
}

// edgeForce ramps linearly from zero at EdgeMargin to EdgeForce at the wall.
func (f *Flock) edgeForce(p r2.Vec) r2.Vec {
	b := f.bounds
	m := f.opts.EdgeMargin
	if m <= 0 {
		return r2.Vec{}
	}
	var force r2.Vec
	if p.X < b.X+m {
		force.X += (1 - (p.X-b.X)/m) * f.opts.EdgeForce
	} else if p.X > b.Right()-m {
		force.X -= (1 - (b.Right()-p.X)/m) * f.opts.EdgeForce
	}
	if p.Y < b.Y+m {
		force.Y += (1 - (p.Y-b.Y)/m) * f.opts.EdgeForce
	} else if p.Y > b.Bottom()-m {
		force.Y -= (1 - (b.Bottom()-p.Y)/m) * f.opts.EdgeForce
	}
	return force
}

func (f *Flock) maxSpeed(a *Agent) float64 {
	return f.species.MaxSpeed * f.speedScale * a.SpeedMult
}

func (f *Flock) limitSpeed(a *Agent) {
	speed := r2.Norm(a.Velocity)
	if limit := f.maxSpeed(a); speed > limit {
		a.Velocity = r2.Scale(limit/speed, a.Velocity)
		return
	}
	if speed < f.opts.MinSpeed && a.Velocity == (r2.Vec{}) {
		k := f.opts.KickSpeed
		a.Velocity = r2.Vec{X: geom.Uniform(f.rng, -k, k), Y: geom.Uniform(f.rng, -k, k)}
	}
}

// updateFacing turns the fish toward its velocity along the short arc, then
// bends the velocity toward the facing so fish swim forward.
func (f *Flock) updateFacing(a *Agent, dt float64) {
	speed := r2.Norm(a.Velocity)
	if speed > f.opts.FacingSpeed {
		a.TargetFacing = geom.Heading(a.Velocity)
	}

	turn := f.species.TurnSpeed
	rate := math.Min(turn*(0.4+math.Min(speed/80, 1.2)), turn)
	a.Facing = geom.NormalizeAngle(steer.Turn(a.Facing, a.TargetFacing, rate, dt))

	if speed > f.opts.BlendSpeed {
		b := f.opts.VelocityBlend
		a.Velocity = r2.Add(r2.Scale(1-b, a.Velocity), geom.FromAngle(a.Facing, speed*b))
	}
}

func zoneCount(fl *sanctuary.Field) int {
	if fl == nil {
		return 0
	}
	return fl.Len()
}
