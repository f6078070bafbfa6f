package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/shoal/agent"
	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/geom"
)

// Terminal cells are about twice as tall as they are wide, so the camera
// works in half-cell rows.
const cellAspect = 2

var (
	styleWater     = tcell.StyleDefault.Background(tcell.ColorNavy)
	styleBorder    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleZone      = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorNavy)
	styleZoneOff   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen).Background(tcell.ColorNavy)
	stylePellet    = tcell.StyleDefault.Foreground(tcell.ColorOrange).Background(tcell.ColorNavy)
	styleFish      = tcell.StyleDefault.Foreground(tcell.ColorAqua).Background(tcell.ColorNavy)
	styleStatus    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray)
	creatureStyles = map[agent.State]tcell.Style{
		agent.Idle:      tcell.StyleDefault.Foreground(tcell.ColorOrange).Background(tcell.ColorNavy).Bold(true),
		agent.Searching: tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy).Bold(true),
		agent.Feeding:   tcell.StyleDefault.Foreground(tcell.ColorLightGreen).Background(tcell.ColorNavy).Bold(true),
		agent.Resting:   tcell.StyleDefault.Foreground(tcell.ColorLightBlue).Background(tcell.ColorNavy),
	}
)

// tankView draws frames onto a tcell screen. The bottom row holds a
// status line.
type tankView struct {
	cam        *camera.Camera
	cols, rows int
}

func newTankView(cols, rows int, world geom.Rect) *tankView {
	v := &tankView{}
	v.resize(cols, rows, world)
	return v
}

func (v *tankView) resize(cols, rows int, world geom.Rect) {
	v.cols, v.rows = cols, rows
	h := max(rows-1, 1)
	v.cam = camera.New(float32(cols), float32(h*cellAspect), world)
}

// cell maps a world point to a terminal cell. ok is false off screen.
func (v *tankView) cell(wx, wy float64) (x, y int, ok bool) {
	sx, sy := v.cam.WorldToScreen(float32(wx), float32(wy))
	x = int(math.Floor(float64(sx)))
	y = int(math.Floor(float64(sy) / cellAspect))
	return x, y, x >= 0 && x < v.cols && y >= 0 && y < v.rows-1
}

// world maps a terminal cell back to the world point at its center.
func (v *tankView) world(x, y int) (wx, wy float64, ok bool) {
	sx, sy := float32(x)+0.5, (float32(y)+0.5)*cellAspect
	if !v.cam.InWorld(sx, sy) || y >= v.rows-1 {
		return 0, 0, false
	}
	fx, fy := v.cam.ScreenToWorld(sx, sy)
	return float64(fx), float64(fy), true
}

func (v *tankView) draw(s tcell.Screen, f *game.Frame, status string) {
	s.Clear()
	if f == nil {
		s.Show()
		return
	}
	if f.Bounds != v.cam.World {
		v.cam.SetWorld(f.Bounds)
	}

	v.drawWater(s, f.Bounds)
	for _, z := range f.Zones {
		style := styleZone
		if !f.SanctuaryEnabled {
			style = styleZoneOff
		}
		v.fill(s, geom.Rect{X: z.X, Y: z.Y, W: z.W, H: z.H}, '░', style)
	}
	for _, p := range f.Pellets {
		if x, y, ok := v.cell(p.X, p.Y); ok {
			s.SetContent(x, y, '·', nil, stylePellet)
		}
	}
	for _, fish := range f.School {
		if x, y, ok := v.cell(fish.Position.X, fish.Position.Y); ok {
			s.SetContent(x, y, fishGlyph(fish.Facing), nil, styleFish)
		}
	}
	c := f.Creature
	if x, y, ok := v.cell(c.Position.X, c.Position.Y); ok {
		style, found := creatureStyles[c.State]
		if !found {
			style = tcell.StyleDefault
		}
		s.SetContent(x, y, '@', nil, style)
	}

	v.drawStatus(s, status)
	s.Show()
}

func (v *tankView) drawWater(s tcell.Screen, b geom.Rect) {
	v.fill(s, b, ' ', styleWater)

	// Floor line
	x0, _, _ := v.cell(b.X, b.Y)
	x1, y1, _ := v.cell(b.Right(), b.Bottom())
	x1, y1 = min(x1, v.cols-1), min(y1, v.rows-2)
	for x := max(x0, 0); x <= x1; x++ {
		s.SetContent(x, y1, '▔', nil, styleBorder)
	}
}

// fill paints the cells covering r.
func (v *tankView) fill(s tcell.Screen, r geom.Rect, ch rune, style tcell.Style) {
	x0, y0, _ := v.cell(r.X, r.Y)
	x1, y1, _ := v.cell(r.Right(), r.Bottom())
	for y := max(y0, 0); y <= min(y1, v.rows-2); y++ {
		for x := max(x0, 0); x <= min(x1, v.cols-1); x++ {
			s.SetContent(x, y, ch, nil, style)
		}
	}
}

func (v *tankView) drawStatus(s tcell.Screen, status string) {
	y := v.rows - 1
	for x := 0; x < v.cols; x++ {
		s.SetContent(x, y, ' ', nil, styleStatus)
	}
	for i, r := range []rune(status) {
		if i >= v.cols {
			break
		}
		s.SetContent(i, y, r, nil, styleStatus)
	}
}

// fishGlyph picks an arrow for a heading in radians, y down.
func fishGlyph(facing float64) rune {
	a := geom.NormalizeAngle(facing)
	switch {
	case a > -math.Pi/4 && a <= math.Pi/4:
		return '>'
	case a > math.Pi/4 && a <= 3*math.Pi/4:
		return 'v'
	case a > -3*math.Pi/4 && a <= -math.Pi/4:
		return '^'
	default:
		return '<'
	}
}

func statusLine(f *game.Frame, paused bool) string {
	if f == nil {
		return ""
	}
	c := f.Creature
	school := "off"
	if f.Species != "" {
		school = fmt.Sprintf("%d %s", len(f.School), f.Species)
	}
	line := fmt.Sprintf(" t=%.0fs %s hunger=%.0f mood=%.0f | school %s | pellets %d eaten %d | zones %d",
		f.Time, c.State, c.Hunger, c.Mood, school, len(f.Pellets), f.PelletsEaten, len(f.Zones))
	if paused {
		line += " | PAUSED"
	}
	return line + " | f feed r rest s sanctuary x clear zones c clear pellets 1-9 species +/- fish q quit"
}
