// Package camera maps between world coordinates and a viewer's screen, for
// both the raylib window and the terminal viewer.
package camera

import "github.com/pthm-cable/shoal/geom"

// Camera controls the viewport into the simulation world.
// The world is bounded: at the minimum zoom the whole world rectangle fits
// the viewport, and panning never leaves the world.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (screen pixels per world unit)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World rectangle
	World geom.Rect

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera that shows the whole world.
func New(viewportW, viewportH float32, world geom.Rect) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		World:     world,
		MaxZoom:   4.0,
	}
	c.fit()
	c.Reset()
	return c
}

// fit computes the zoom at which the whole world fits the viewport.
func (c *Camera) fit() {
	ww, wh := float32(c.World.W), float32(c.World.H)
	if ww <= 0 || wh <= 0 {
		c.MinZoom = 1
		return
	}
	c.MinZoom = min(c.ViewportW/ww, c.ViewportH/wh)
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// InWorld reports whether a screen point lies over the world rectangle.
func (c *Camera) InWorld(sx, sy float32) bool {
	wx, wy := c.ScreenToWorld(sx, sy)
	w := c.World
	return float64(wx) >= w.X && float64(wx) <= w.Right() &&
		float64(wy) >= w.Y && float64(wy) <= w.Bottom()
}

// Scale converts a world length to screen pixels.
func (c *Camera) Scale(length float32) float32 {
	return length * c.Zoom
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit()
	c.SetZoom(c.Zoom)
}

// SetWorld changes the world rectangle, e.g. after the bounds stimulus.
func (c *Camera) SetWorld(world geom.Rect) {
	c.World = world
	c.fit()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset shows the whole world again.
func (c *Camera) Reset() {
	ctr := c.World.Center()
	c.X, c.Y = float32(ctr.X), float32(ctr.Y)
	c.Zoom = c.MinZoom
}

// clampCenter keeps the view inside the world. On an axis where the view is
// larger than the world the camera stays centered.
func (c *Camera) clampCenter() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	c.X = clampAxis(c.X, float32(c.World.X), float32(c.World.Right()), halfW)
	c.Y = clampAxis(c.Y, float32(c.World.Y), float32(c.World.Bottom()), halfH)
}

func clampAxis(v, lo, hi, half float32) float32 {
	if hi-lo <= 2*half {
		return (lo + hi) / 2
	}
	return clamp(v, lo+half, hi-half)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
