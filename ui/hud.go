package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title  string
	Frame  *game.Frame
	FPS    int32
	Paused bool
	Speed  int // simulation steps per rendered frame
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	f := data.Frame
	if f == nil {
		return
	}

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %dx | FPS: %d", f.Tick, f.Time, data.Speed, data.FPS),
		10, 35, 16, rl.LightGray,
	)

	c := f.Creature
	rl.DrawText(
		fmt.Sprintf("Creature: %s | Hunger: %.0f | Mood: %.0f", c.State, c.Hunger, c.Mood),
		10, 55, 16, rl.LightGray,
	)

	school := "School: off"
	if f.Species != "" {
		school = fmt.Sprintf("School: %d %s @ %.2fx", len(f.School), f.Species, f.SpeedScale)
	}
	sanctuary := "off"
	if f.SanctuaryEnabled {
		sanctuary = "on"
	}
	rl.DrawText(
		fmt.Sprintf("%s | Pellets: %d (eaten %d) | Sanctuary: %s, %d zones",
			school, len(f.Pellets), f.PelletsEaten, sanctuary, len(f.Zones)),
		10, 75, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 95, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase tick timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	head := rl.Yellow
	if stats.Over() {
		head = rl.Red
	}
	rl.DrawText(fmt.Sprintf("Avg: %s  p95: %s  Max: %s  load %.0f%%",
		stats.Avg.Round(time.Microsecond),
		stats.P95.Round(time.Microsecond),
		stats.Max.Round(time.Microsecond),
		stats.Load*100), x, y, 14, head)
	y += 16

	for _, phase := range telemetry.Phases() {
		pt := stats.Phases[phase]
		pct := pt.Share * 100

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, pt.Avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
