package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
)

// Background paints the water column and sandy floor of the world rect,
// with a few slow light shafts drifting across it.
type Background struct {
	Top    rl.Color
	Bottom rl.Color
	Sand   rl.Color
	Shafts int
}

// NewBackground creates a background with the default palette.
func NewBackground() *Background {
	return &Background{
		Top:    rl.Color{R: 24, G: 88, B: 128, A: 255},
		Bottom: rl.Color{R: 8, G: 32, B: 56, A: 255},
		Sand:   rl.Color{R: 150, G: 128, B: 90, A: 255},
		Shafts: 5,
	}
}

// Draw renders the background under cam at simulation time t.
func (b *Background) Draw(cam *camera.Camera, t float32) {
	w := cam.World
	x0, y0 := cam.WorldToScreen(float32(w.X), float32(w.Y))
	x1, y1 := cam.WorldToScreen(float32(w.Right()), float32(w.Bottom()))
	width, height := int32(x1-x0), int32(y1-y0)

	rl.DrawRectangleGradientV(int32(x0), int32(y0), width, height, b.Top, b.Bottom)

	// Light shafts sway with time and fade toward the floor
	for i := 0; i < b.Shafts; i++ {
		phase := float64(i)*1.7 + float64(t)*0.15
		cx := x0 + (x1-x0)*(float32(i)+0.5)/float32(b.Shafts) + float32(math.Sin(phase))*cam.Scale(40)
		half := cam.Scale(18 + 10*float32(math.Sin(phase*0.7)))
		alpha := uint8(18 + 10*math.Sin(phase*1.3))
		top := rl.Vector2{X: cx - half, Y: y0}
		rl.DrawTriangle(
			top,
			rl.Vector2{X: cx - half*3, Y: y1},
			rl.Vector2{X: cx + half*3, Y: y1},
			rl.Color{R: 200, G: 230, B: 255, A: alpha},
		)
	}

	sand := cam.Scale(12)
	rl.DrawRectangle(int32(x0), int32(y1-sand), width, int32(sand), b.Sand)
	rl.DrawRectangleLines(int32(x0), int32(y0), width, height, rl.Color{R: 60, G: 70, B: 80, A: 255})
}
