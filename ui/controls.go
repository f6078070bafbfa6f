package ui

import (
	"fmt"
	"math"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/school"
)

// PanelState is the set of values the control panel edits.
type PanelState struct {
	Species    int // index into the panel's species list
	Count      int
	SpeedScale float32
	Sanctuary  bool
}

// ControlPanel renders the raygui stimulus panel and turns edits into game
// commands.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	species  []string
	state    PanelState
	schoolOn bool // false hides the school controls
}

// NewControlPanel creates a control panel offering the given species tags.
func NewControlPanel(x, y, width int32, species []string) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
		species:  species,
		state:    PanelState{Count: 1, SpeedScale: 1},
		schoolOn: true,
	}
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// State returns the values currently shown.
func (c *ControlPanel) State() PanelState {
	return c.state
}

// Sync copies the simulation's values into the panel so changes made
// elsewhere (webhook, keys) show up.
func (c *ControlPanel) Sync(f *game.Frame) {
	if f == nil {
		return
	}
	c.state.Sanctuary = f.SanctuaryEnabled
	c.schoolOn = f.Species != ""
	if !c.schoolOn {
		return
	}
	c.state.Count = len(f.School)
	c.state.SpeedScale = float32(f.SpeedScale)
	for i, tag := range c.species {
		if tag == f.Species {
			c.state.Species = i
		}
	}
}

// Contains reports whether a screen point is over the panel.
func (c *ControlPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.height())
}

func (c *ControlPanel) height() int32 {
	return 330
}

// Draw renders the panel and returns the commands for whatever the user
// changed this frame.
func (c *ControlPanel) Draw(overlays *OverlayRegistry) []game.Command {
	if !c.visible {
		return nil
	}

	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	w := float32(c.width - padding*2)

	rl.DrawText("Tank", int32(x), int32(y), 16, rl.White)
	y += 24

	next := c.state
	var cmds []game.Command

	if c.schoolOn {
		y = c.drawSchool(x, y, w, &next)
	}

	next.Sanctuary = gui.Toggle(rl.Rectangle{X: x, Y: y, Width: w, Height: 24}, "Sanctuary", c.state.Sanctuary)
	y += 32

	half := w/2 - 4
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, "Feed") {
		cmds = append(cmds, game.FeedCreature{})
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 26}, "Rest") {
		cmds = append(cmds, game.Rest{})
	}
	y += 34
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, "Clear Zones") {
		cmds = append(cmds, game.ClearZones{})
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 26}, "Clear Food") {
		cmds = append(cmds, game.ClearPellets{})
	}
	y += 38

	c.drawOverlayKeys(int32(x), int32(y), overlays)

	cmds = append(cmds, c.commands(next)...)
	c.state = next
	return cmds
}

// drawSchool draws the species, count and speed controls into next and
// returns the y below them.
func (c *ControlPanel) drawSchool(x, y, w float32, next *PanelState) float32 {
	r := c.renderer
	if len(c.species) > 0 {
		rl.DrawText("Species", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += 16
		next.Species = int(gui.ToggleGroup(
			rl.Rectangle{X: x, Y: y, Width: w/float32(len(c.species)) - 2, Height: 22},
			strings.Join(speciesLabels(c.species), ";"),
			int32(c.state.Species),
		))
		y += 30
	}

	rl.DrawText(fmt.Sprintf("Fish: %d", c.state.Count), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	count := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 18},
		fmt.Sprint(school.MinCount), fmt.Sprint(school.MaxCount),
		float32(c.state.Count), school.MinCount, school.MaxCount,
	)
	next.Count = int(math.Round(float64(count)))
	y += 28

	rl.DrawText(fmt.Sprintf("Speed: %.2fx", c.state.SpeedScale), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	next.SpeedScale = gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 18},
		"slow", "fast",
		c.state.SpeedScale, school.MinSpeedScale, school.MaxSpeedScale,
	)
	y += 30
	return y
}

// commands returns the game commands that move the simulation from the
// panel's current state to next.
func (c *ControlPanel) commands(next PanelState) []game.Command {
	prev := c.state
	var cmds []game.Command
	if next.Species != prev.Species && next.Species >= 0 && next.Species < len(c.species) {
		cmds = append(cmds, game.SetSpecies{Tag: c.species[next.Species]})
	}
	if next.Count != prev.Count {
		cmds = append(cmds, game.SetCount{N: next.Count})
	}
	if math.Abs(float64(next.SpeedScale-prev.SpeedScale)) > 0.005 {
		cmds = append(cmds, game.SetSpeedScale{Scale: float64(next.SpeedScale)})
	}
	if next.Sanctuary != prev.Sanctuary {
		cmds = append(cmds, game.SetSanctuaryEnabled{Enabled: next.Sanctuary})
	}
	return cmds
}

// drawOverlayKeys lists overlay toggles with their key bindings.
func (c *ControlPanel) drawOverlayKeys(x, y int32, overlays *OverlayRegistry) {
	if overlays == nil {
		return
	}
	r := c.renderer
	width := c.width - r.Theme.Padding*2
	for _, desc := range overlays.All() {
		statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
		nameColor := r.Theme.LabelColor
		if overlays.IsEnabled(desc.ID) {
			statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
			nameColor = rl.White
		}
		rl.DrawRectangle(x, y+2, 8, 8, statusColor)
		rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)
		if desc.KeyLabel != "" {
			keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
			keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
			rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
		}
		y += r.Theme.LineHeight
	}
}

// speciesLabels turns tags like "neon_tetra" into short button labels.
func speciesLabels(tags []string) []string {
	labels := make([]string, len(tags))
	for i, tag := range tags {
		words := strings.Split(tag, "_")
		for j, w := range words {
			if w != "" {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		labels[i] = strings.Join(words, " ")
	}
	return labels
}
