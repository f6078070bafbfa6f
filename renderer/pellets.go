package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/systems"
)

// PelletRenderer renders food pellets.
type PelletRenderer struct {
	Lifetime float32 // seconds; pellets fade over the last quarter
	Radius   float32 // world units
}

// NewPelletRenderer creates a pellet renderer for pellets living lifetime seconds.
func NewPelletRenderer(lifetime float64) *PelletRenderer {
	return &PelletRenderer{Lifetime: float32(lifetime), Radius: 3}
}

// Draw renders all pellets.
func (r *PelletRenderer) Draw(cam *camera.Camera, pellets []systems.PelletState) {
	for i := range pellets {
		p := &pellets[i]
		x, y := float32(p.X), float32(p.Y)
		if !cam.IsVisible(x, y, r.Radius) {
			continue
		}

		alpha := float32(1)
		if r.Lifetime > 0 {
			fadeStart := r.Lifetime * 0.75
			if age := float32(p.Age); age > fadeStart {
				alpha = 1 - (age-fadeStart)/(r.Lifetime-fadeStart)
			}
		}
		alpha = max(alpha, 0.1)

		// Settled pellets darken a little
		color := rl.Color{R: 230, G: 160, B: 70, A: uint8(alpha * 255)}
		if p.Settled {
			color = rl.Color{R: 180, G: 120, B: 60, A: uint8(alpha * 255)}
		}

		sx, sy := cam.WorldToScreen(x, y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, max(cam.Scale(r.Radius), 1.5), color)
	}
}
