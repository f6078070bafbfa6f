package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/shoal/agent"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(s.Mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", s.Mean)
	}
	if math.Abs(s.Std-2) > 1e-9 {
		t.Errorf("std = %v, want 2", s.Std)
	}
	if math.Abs(s.P50-4.5) > 1e-9 {
		t.Errorf("p50 = %v, want 4.5", s.P50)
	}

	if (Summarize(nil) != Summary{}) {
		t.Error("empty input should summarize to zero")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.5)
	sim := 0.0
	tick := int64(0)
	for i := 0; i < 20; i++ {
		state := agent.Idle
		if i >= 15 {
			state = agent.Feeding
		}
		c.SampleCreature(state, 40, 80, 0.1)
		sim += 0.1
		tick++
	}
	c.RecordPellets(3, 1, 0)
	c.RecordMeals(1)

	if !c.ShouldFlush(sim) {
		t.Fatalf("window of %v s not due at %v", c.WindowDuration(), sim)
	}
	ws := c.Flush(tick, sim, WorldSample{SchoolCount: 6})

	if math.Abs(ws.IdleFrac-0.75) > 1e-9 || math.Abs(ws.FeedingFrac-0.25) > 1e-9 {
		t.Errorf("occupancy idle=%v feeding=%v", ws.IdleFrac, ws.FeedingFrac)
	}
	if ws.HungerMean != 40 || ws.MoodP50 != 80 {
		t.Errorf("drives = %v / %v", ws.HungerMean, ws.MoodP50)
	}
	if ws.PelletsSpawned != 3 || ws.PelletsEaten != 1 || ws.Meals != 1 || ws.SchoolCount != 6 {
		t.Errorf("counters = %+v", ws)
	}

	// Counters reset
	next := c.Flush(tick+1, sim+0.1, WorldSample{})
	if next.PelletsSpawned != 0 || next.Meals != 0 || next.WindowStartTick != tick {
		t.Errorf("not reset: %+v", next)
	}
	if c.ShouldFlush(sim + 0.5) {
		t.Error("flush due immediately after reset")
	}
}
