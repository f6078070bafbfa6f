package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/agent"
)

// Inspector renders the creature inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: CreatureSections(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for s.
func (ins *Inspector) Draw(s agent.Snapshot) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range ins.sections {
		height += r.sectionHeight(sd)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sd, s, ins.width-padding*2)
	}
	return y
}

func snapshotOf(data any) agent.Snapshot {
	s, _ := data.(agent.Snapshot)
	return s
}

// CreatureSections describes the inspector rows for a creature snapshot.
func CreatureSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			Title: "Creature",
			Fields: []FieldDescriptor{
				{Label: "State", Widget: WidgetText, TextGetter: func(d any) string {
					return snapshotOf(d).State.String()
				}},
				{Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
					p := snapshotOf(d).Position
					return fmt.Sprintf("%.0f, %.0f", p.X, p.Y)
				}},
				{Label: "Speed", Widget: WidgetText, Format: "%.1f px/s", Getter: func(d any) float32 {
					v := snapshotOf(d).Velocity
					return float32(math.Hypot(v.X, v.Y))
				}},
				{Label: "Facing", Widget: WidgetText, Format: "%.0f deg", Getter: func(d any) float32 {
					return float32(snapshotOf(d).Facing * 180 / math.Pi)
				}},
			},
		},
		{
			Title: "Needs",
			Fields: []FieldDescriptor{
				{Label: "Hunger", Widget: WidgetBar, Range: PercentRange(),
					Color: rl.Color{R: 200, G: 120, B: 80, A: 255},
					Getter: func(d any) float32 { return float32(snapshotOf(d).Hunger) }},
				{Label: "Mood", Widget: WidgetBar, Range: PercentRange(),
					Color: rl.Color{R: 100, G: 200, B: 100, A: 255},
					Getter: func(d any) float32 { return float32(snapshotOf(d).Mood) }},
			},
		},
	}
}
