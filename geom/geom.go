// Package geom provides the small amount of 2-D geometry the simulation needs:
// vector helpers over gonum's r2.Vec, axis-aligned rectangles and angle math.
package geom

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyRect is returned when a rectangle with zero or negative area is used
// where a world or zone rectangle is required.
var ErrEmptyRect = errors.New("geom: rectangle has no area")

// Clamp functions for common value ranges

// Clamp clamps v between minVal and maxVal.
func Clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Angle normalization functions

// NormalizeAngle wraps an angle to (-Pi, Pi].
func NormalizeAngle(angle float64) float64 {
	a := math.Remainder(angle, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Heading returns the direction of v in radians.
func Heading(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// FromAngle returns a vector of the given length pointing along angle.
func FromAngle(angle, length float64) r2.Vec {
	return r2.Vec{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

// Limit scales v down to max length if it is longer.
func Limit(v r2.Vec, max float64) r2.Vec {
	n := r2.Norm(v)
	if n > max && n > 0 {
		return r2.Scale(max/n, v)
	}
	return v
}

// Centroid returns the mean of the given points, or the zero vector for none.
func Centroid(points []r2.Vec) r2.Vec {
	if len(points) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, p := range points {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(points)), sum)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// Screen space is used, so Y grows downward.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Validate reports ErrEmptyRect if the rectangle has no area.
func (r Rect) Validate() error {
	if !(r.W > 0) || !(r.H > 0) {
		return ErrEmptyRect
	}
	return nil
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the rectangle midpoint.
func (r Rect) Center() r2.Vec {
	return r2.Vec{X: r.X + r.W*0.5, Y: r.Y + r.H*0.5}
}

// Contains reports whether p lies inside r. Edges count as inside.
func (r Rect) Contains(p r2.Vec) bool {
	return r.X <= p.X && p.X <= r.X+r.W &&
		r.Y <= p.Y && p.Y <= r.Y+r.H
}

// ClosestPoint returns the point of r nearest to p (p itself when inside).
func (r Rect) ClosestPoint(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: Clamp(p.X, r.X, r.X+r.W),
		Y: Clamp(p.Y, r.Y, r.Y+r.H),
	}
}

// ClampPoint is ClosestPoint under the name used for position clamping.
func (r Rect) ClampPoint(p r2.Vec) r2.Vec {
	return r.ClosestPoint(p)
}

// Inset shrinks r by m on every side. An axis too small for the inset
// collapses onto its center line instead of inverting.
func (r Rect) Inset(m float64) Rect {
	return r.InsetXY(m, m)
}

// InsetXY shrinks r by mx on the left and right and my on the top and
// bottom. An axis too small for its margin collapses to its center line.
func (r Rect) InsetXY(mx, my float64) Rect {
	out := r
	if 2*mx < r.W {
		out.X += mx
		out.W -= 2 * mx
	} else {
		out.X += r.W * 0.5
		out.W = 0
	}
	if 2*my < r.H {
		out.Y += my
		out.H -= 2 * my
	} else {
		out.Y += r.H * 0.5
		out.H = 0
	}
	return out
}

// RandomPoint samples a uniform point inside r.
func (r Rect) RandomPoint(rng *rand.Rand) r2.Vec {
	return r2.Vec{
		X: r.X + rng.Float64()*r.W,
		Y: r.Y + rng.Float64()*r.H,
	}
}

// Uniform returns a uniform sample in [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
