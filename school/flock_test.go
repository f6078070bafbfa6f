package school

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/steer"
)

func newTestFlock(t *testing.T, tag string, n int, bounds geom.Rect, seed int64) *Flock {
	t.Helper()
	opts := DefaultOptions()
	opts.Count = n
	f, err := New(nil, tag, bounds, nil, opts, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

var hd = geom.Rect{W: 1920, H: 1080}

func TestNewRejectsUnknownSpecies(t *testing.T) {
	_, err := New(nil, "goldfish", hd, nil, DefaultOptions(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("err = %v, want ErrUnknownSpecies", err)
	}
}

func TestNewRejectsEmptyBounds(t *testing.T) {
	_, err := New(nil, NeonTetra, geom.Rect{W: 100}, nil, DefaultOptions(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, geom.ErrEmptyRect) {
		t.Errorf("err = %v, want ErrEmptyRect", err)
	}
}

func TestSetCountClamps(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 6, hd, 1)

	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{99, 12},
		{4, 4},
		{0, 1},
		{12, 12},
	}
	for _, tt := range tests {
		if got := f.SetCount(tt.in); got != tt.want || f.Len() != tt.want {
			t.Errorf("SetCount(%d) = %d, len %d; want %d", tt.in, got, f.Len(), tt.want)
		}
	}
}

func TestShrinkKeepsOldest(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 8, hd, 2)
	f.SetCount(3)
	for i := 0; i < f.Len(); i++ {
		if f.Agent(i).ID != i {
			t.Errorf("agent %d has id %d", i, f.Agent(i).ID)
		}
	}
	f.SetCount(5)
	if f.Agent(4).ID != 9 {
		t.Errorf("regrown agent id = %d, want fresh id 9", f.Agent(4).ID)
	}
}

func TestSpeedScaleClamps(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 3, hd, 1)
	tests := []struct {
		in, want float64
	}{
		{0.1, 0.35},
		{5, 2.0},
		{1.2, 1.2},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := f.SetSpeedScale(tt.in); got != tt.want {
			t.Errorf("SetSpeedScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSpeedCap(t *testing.T) {
	scales := []float64{1, 2, 0.35, 1.5, 0.5, 2}
	f := newTestFlock(t, Discus, 8, hd, 3)
	for tick := 0; tick < 600; tick++ {
		scale := scales[(tick/100)%len(scales)]
		if tick%100 == 0 {
			f.SetSpeedScale(scale)
			// Shove everyone well past any cap
			for i := 0; i < f.Len(); i++ {
				f.Agent(i).Velocity = r2.Vec{X: 900, Y: -400}
			}
		}
		f.Update(0.033)
		for i := 0; i < f.Len(); i++ {
			a := f.Agent(i)
			limit := f.Species().MaxSpeed * scale * a.SpeedMult
			if s := r2.Norm(a.Velocity); s > limit+1e-9 {
				t.Fatalf("tick %d scale %v: agent %d speed %v above %v", tick, scale, i, s, limit)
			}
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative max dt", func(o *Options) { o.MaxDT = -0.5 }},
		{"zero max dt", func(o *Options) { o.MaxDT = 0 }},
		{"nan max dt", func(o *Options) { o.MaxDT = math.NaN() }},
		{"no retries", func(o *Options) { o.TargetRetries = 0 }},
		{"zero retarget interval", func(o *Options) { o.RetargetInterval = 0 }},
		{"drag above one", func(o *Options) { o.Drag = 1.2 }},
		{"zero drag", func(o *Options) { o.Drag = 0 }},
		{"negative sanctuary weight", func(o *Options) { o.SanctuaryWeight = -1 }},
		{"negative edge force", func(o *Options) { o.EdgeForce = -40 }},
		{"velocity blend", func(o *Options) { o.VelocityBlend = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("err = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestNoSomersault(t *testing.T) {
	for _, tag := range []string{NeonTetra, Discus, Betta} {
		t.Run(tag, func(t *testing.T) {
			f := newTestFlock(t, tag, 12, hd, 4)
			maxStep := f.Species().TurnSpeed * 0.1
			prev := make([]float64, f.Len())
			for tick := 0; tick < 600; tick++ {
				for i := range prev {
					prev[i] = f.Agent(i).Facing
				}
				f.Update(0.1)
				for i := range prev {
					d := math.Abs(steer.AngleDiff(prev[i], f.Agent(i).Facing))
					if d > maxStep+1e-9 {
						t.Fatalf("tick %d: agent %d turned %v rad, cap %v", tick, i, d, maxStep)
					}
				}
			}
		})
	}
}

func TestStaysInBounds(t *testing.T) {
	bounds := geom.Rect{X: 100, Y: 50, W: 400, H: 300}
	f := newTestFlock(t, Betta, 12, bounds, 5)
	f.SetSpeedScale(2)
	for tick := 0; tick < 2000; tick++ {
		f.Update(0.1)
		for i := 0; i < f.Len(); i++ {
			if p := f.Agent(i).Position; !bounds.Contains(p) {
				t.Fatalf("tick %d: agent %d at %v", tick, i, p)
			}
		}
	}
}

func TestTetrasDoNotClump(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 10, hd, 6)
	for tick := 0; tick < 120; tick++ {
		f.Update(0.033)
	}
	if s := f.Spread(); s <= 30 {
		t.Errorf("mean distance to centroid = %v, want > 30", s)
	}
}

func TestTargetAvoidsSanctuary(t *testing.T) {
	field := sanctuary.NewField(sanctuary.Options{Enabled: true, Strength: 200, Margin: 80})
	z, err := sanctuary.NewZone(400, 400, 200, 200, "cave")
	if err != nil {
		t.Fatal(err)
	}
	field.AddZone(z)

	f := newTestFlock(t, NeonTetra, 4, geom.Rect{W: 800, H: 600}, 7)
	f.SetField(field)
	for i := 0; i < 2000; i++ {
		f.pickTarget()
		if z.Contains(f.Target()) {
			t.Fatalf("target %v inside zone", f.Target())
		}
	}
	if f.TargetFallbacks() != 0 {
		t.Errorf("unexpected fallbacks: %d", f.TargetFallbacks())
	}
}

func TestRetargetsOverTime(t *testing.T) {
	f := newTestFlock(t, Discus, 6, hd, 8)
	for tick := 0; tick < 300; tick++ {
		f.Update(0.1) // 30 s
	}
	if f.Retargets() < 3 {
		t.Errorf("retargets = %d over 30s, want at least 3", f.Retargets())
	}
}

func TestSetSpecies(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 6, hd, 9)
	if err := f.SetSpecies(Betta); err != nil {
		t.Fatalf("SetSpecies: %v", err)
	}
	if f.Species().Name != Betta || f.Len() != 6 {
		t.Errorf("species %q len %d", f.Species().Name, f.Len())
	}
	if err := f.SetSpecies("shark"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("err = %v, want ErrUnknownSpecies", err)
	}
	if f.Species().Name != Betta {
		t.Errorf("failed switch changed species to %q", f.Species().Name)
	}
}

func TestSetBoundsReclamps(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 8, hd, 10)
	small := geom.Rect{W: 300, H: 200}
	f.SetBounds(small)
	for i := 0; i < f.Len(); i++ {
		if p := f.Agent(i).Position; !small.Contains(p) {
			t.Errorf("agent %d at %v after shrink", i, p)
		}
	}
	if !small.Contains(f.Target()) {
		t.Errorf("target %v outside new bounds", f.Target())
	}
}

func TestSnapshotsAreSchooling(t *testing.T) {
	f := newTestFlock(t, NeonTetra, 3, hd, 11)
	for i, s := range f.Snapshots() {
		if s.State.String() != "SCHOOLING" {
			t.Errorf("snapshot %d state %v", i, s.State)
		}
		if s.ID != f.Agent(i).ID {
			t.Errorf("snapshot %d id %d", i, s.ID)
		}
	}
}
