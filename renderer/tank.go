// Package renderer draws published game frames with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/school"
)

// Layers selects optional debug drawing on top of the tank.
type Layers struct {
	Target   bool // creature target marker
	Margins  bool // sanctuary repulsion band
	Velocity bool // velocity vectors
	Centroid bool // school centroid
}

// StateColors maps creature states to body colors.
var StateColors = map[agent.State]rl.Color{
	agent.Idle:      {R: 240, G: 140, B: 60, A: 255},
	agent.Searching: {R: 250, G: 200, B: 70, A: 255},
	agent.Feeding:   {R: 120, G: 220, B: 110, A: 255},
	agent.Resting:   {R: 130, G: 150, B: 220, A: 255},
}

// SpeciesColors maps species tags to fish colors. Unknown tags use
// FallbackFish.
var SpeciesColors = map[string]rl.Color{
	school.NeonTetra: {R: 80, G: 200, B: 255, A: 255},
	school.Discus:    {R: 240, G: 110, B: 90, A: 255},
	school.Betta:     {R: 170, G: 90, B: 230, A: 255},
}

// FallbackFish is the color of a species without a SpeciesColors entry.
var FallbackFish = rl.Color{R: 200, G: 200, B: 200, A: 255}

// TankRenderer draws one frame: background, sanctuary zones, pellets, the
// school and the creature.
type TankRenderer struct {
	Background *Background
	Pellets    *PelletRenderer

	// Margin is the sanctuary repulsion band width drawn by Layers.Margins.
	Margin float64
}

// NewTankRenderer creates a renderer for pellets living pelletLifetime seconds.
func NewTankRenderer(pelletLifetime, margin float64) *TankRenderer {
	return &TankRenderer{
		Background: NewBackground(),
		Pellets:    NewPelletRenderer(pelletLifetime),
		Margin:     margin,
	}
}

// Draw renders f through cam.
func (r *TankRenderer) Draw(cam *camera.Camera, f *game.Frame, layers Layers) {
	if f == nil {
		return
	}
	r.Background.Draw(cam, float32(f.Time))
	r.drawZones(cam, f, layers.Margins)
	r.Pellets.Draw(cam, f.Pellets)

	fish := SpeciesColors[f.Species]
	if fish.A == 0 {
		fish = FallbackFish
	}
	for i := range f.School {
		drawFish(cam, f.School[i], fish, 7)
	}
	drawCreature(cam, f.Creature)

	if layers.Velocity {
		drawVelocity(cam, f.Creature)
		for i := range f.School {
			drawVelocity(cam, f.School[i])
		}
	}
	if layers.Centroid && len(f.School) > 0 {
		var cx, cy float64
		for _, s := range f.School {
			cx += s.Position.X
			cy += s.Position.Y
		}
		n := float64(len(f.School))
		sx, sy := cam.WorldToScreen(float32(cx/n), float32(cy/n))
		rl.DrawCircleLines(int32(sx), int32(sy), 6, rl.SkyBlue)
	}
	if layers.Target {
		sx, sy := cam.WorldToScreen(float32(f.Target[0]), float32(f.Target[1]))
		px, py := cam.WorldToScreen(float32(f.Creature.Position.X), float32(f.Creature.Position.Y))
		rl.DrawLine(int32(px), int32(py), int32(sx), int32(sy), rl.Color{R: 255, G: 255, B: 255, A: 60})
		rl.DrawCircleLines(int32(sx), int32(sy), 8, rl.Yellow)
	}
}

func (r *TankRenderer) drawZones(cam *camera.Camera, f *game.Frame, margins bool) {
	fill := rl.Color{R: 90, G: 200, B: 140, A: 40}
	edge := rl.Color{R: 90, G: 200, B: 140, A: 160}
	if !f.SanctuaryEnabled {
		fill.A, edge.A = 15, 70
	}
	for _, z := range f.Zones {
		x0, y0 := cam.WorldToScreen(float32(z.X), float32(z.Y))
		x1, y1 := cam.WorldToScreen(float32(z.X+z.W), float32(z.Y+z.H))
		rect := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
		rl.DrawRectangleRec(rect, fill)
		rl.DrawRectangleLinesEx(rect, 1, edge)
		if z.Label != "" {
			rl.DrawText(z.Label, int32(x0)+4, int32(y0)+4, 12, edge)
		}
		if margins && r.Margin > 0 && f.SanctuaryEnabled {
			m := cam.Scale(float32(r.Margin))
			band := rl.Rectangle{X: x0 - m, Y: y0 - m, Width: rect.Width + 2*m, Height: rect.Height + 2*m}
			rl.DrawRectangleLinesEx(band, 1, rl.Color{R: 90, G: 200, B: 140, A: 60})
		}
	}
}

// drawCreature draws the creature as a round body with a tail behind its
// facing direction.
func drawCreature(cam *camera.Camera, s agent.Snapshot) {
	color, ok := StateColors[s.State]
	if !ok {
		color = rl.White
	}
	// Hungry creatures look paler
	fade := float32(1 - 0.4*s.Hunger/100)
	color.R = uint8(float32(color.R) * fade)
	color.G = uint8(float32(color.G) * fade)
	color.B = uint8(float32(color.B) * fade)

	sx, sy := cam.WorldToScreen(float32(s.Position.X), float32(s.Position.Y))
	body := max(cam.Scale(14), 3)
	fx, fy := float32(math.Cos(s.Facing)), float32(math.Sin(s.Facing))

	tailBase := rl.Vector2{X: sx - fx*body*0.8, Y: sy - fy*body*0.8}
	tailTip := rl.Vector2{X: sx - fx*body*1.8, Y: sy - fy*body*1.8}
	px, py := -fy*body*0.7, fx*body*0.7
	triangle(
		tailBase,
		rl.Vector2{X: tailTip.X + px, Y: tailTip.Y + py},
		rl.Vector2{X: tailTip.X - px, Y: tailTip.Y - py},
		color,
	)
	rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, body, color)

	eye := rl.Vector2{X: sx + fx*body*0.5 - fy*body*0.3, Y: sy + fy*body*0.5 + fx*body*0.3}
	rl.DrawCircleV(eye, max(body*0.15, 1), rl.Black)

	if s.State == agent.Resting {
		rl.DrawText("z", int32(sx+body), int32(sy-body*1.5), int32(max(body, 10)), rl.RayWhite)
	}
}

// drawFish draws a small arrowhead pointing along the fish's facing.
func drawFish(cam *camera.Camera, s agent.Snapshot, color rl.Color, length float32) {
	x, y := float32(s.Position.X), float32(s.Position.Y)
	if !cam.IsVisible(x, y, length) {
		return
	}
	sx, sy := cam.WorldToScreen(x, y)
	l := max(cam.Scale(length), 3)
	fx, fy := float32(math.Cos(s.Facing)), float32(math.Sin(s.Facing))
	px, py := -fy*l*0.45, fx*l*0.45

	triangle(
		rl.Vector2{X: sx + fx*l, Y: sy + fy*l},
		rl.Vector2{X: sx - fx*l*0.6 + px, Y: sy - fy*l*0.6 + py},
		rl.Vector2{X: sx - fx*l*0.6 - px, Y: sy - fy*l*0.6 - py},
		color,
	)
}

func drawVelocity(cam *camera.Camera, s agent.Snapshot) {
	sx, sy := cam.WorldToScreen(float32(s.Position.X), float32(s.Position.Y))
	ex, ey := cam.WorldToScreen(float32(s.Position.X+s.Velocity.X*0.5), float32(s.Position.Y+s.Velocity.Y*0.5))
	rl.DrawLine(int32(sx), int32(sy), int32(ex), int32(ey), rl.Color{R: 255, G: 90, B: 90, A: 180})
}

// triangle draws a filled triangle in whichever winding raylib needs.
func triangle(a, b, c rl.Vector2, color rl.Color) {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if cross > 0 {
		b, c = c, b
	}
	rl.DrawTriangle(a, b, c, color)
}
