package game

import (
	"log/slog"

	"github.com/pthm-cable/shoal/telemetry"
)

// recordCounters turns the agents' running totals into window deltas.
func (g *Game) recordCounters() {
	meals := g.brain.Meals()
	g.collector.RecordMeals(meals - g.lastMeals)
	g.lastMeals = meals

	fallbacks := g.brain.TargetFallbacks()
	retargets := 0
	if g.flock != nil {
		fallbacks += g.flock.TargetFallbacks()
		retargets = g.flock.Retargets()
	}
	g.collector.RecordTargetFallbacks(fallbacks - g.lastFallbacks)
	g.collector.RecordSchoolRetargets(retargets - g.lastRetargets)
	g.lastFallbacks = fallbacks
	g.lastRetargets = retargets
}

// flushTelemetry checks if the stats window should be flushed and writes it.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.simTime) {
		return
	}

	stats := g.collector.Flush(g.tick, g.simTime, g.sampleWorld())

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	var perfStats telemetry.PerfStats
	if g.perf != nil {
		perfStats = g.perf.Stats()
	}

	if g.logStats {
		stats.LogStats()
		if g.perf != nil {
			perfStats.LogStats()
		}
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if g.perf != nil {
			if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
		}
	}
}

// sampleWorld collects the end-of-window values.
func (g *Game) sampleWorld() telemetry.WorldSample {
	w := telemetry.WorldSample{
		PelletsLive: g.pellets.Count(),
		Zones:       g.field.Len(),
		Sanctuary:   g.field.Enabled(),
	}
	if g.flock != nil {
		w.SchoolCount = g.flock.Len()
		w.SchoolSpread = g.flock.Spread()
		w.SchoolSpeedMean, w.SchoolSpeedStd = g.flock.SpeedStats()
	}
	return w
}
