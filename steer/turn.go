// Package steer holds the heading limiter shared by the creature brain and the
// school. Headings only ever move along the short arc at a bounded rate, which
// is what keeps rendered bodies from flipping end over end.
package steer

import (
	"math"

	"github.com/pthm-cable/shoal/geom"
)

// AngleDiff returns desired-current wrapped to (-Pi, Pi].
func AngleDiff(current, desired float64) float64 {
	return geom.NormalizeAngle(desired - current)
}

// Turn advances current toward desired by at most maxRate*dt radians along
// the shorter arc. When that step would reach or pass desired, desired is
// returned as-is.
func Turn(current, desired, maxRate, dt float64) float64 {
	diff := AngleDiff(current, desired)
	maxStep := maxRate * dt
	if maxStep <= 0 {
		return current
	}
	if math.Abs(diff) <= maxStep {
		return desired
	}
	if diff > 0 {
		return current + maxStep
	}
	return current - maxStep
}
