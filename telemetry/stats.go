package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Share of the window the creature spent in each state
	IdleFrac      float64 `csv:"idle_frac"`
	SearchingFrac float64 `csv:"searching_frac"`
	FeedingFrac   float64 `csv:"feeding_frac"`
	RestingFrac   float64 `csv:"resting_frac"`

	// Creature drives sampled every tick
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	MoodMean   float64 `csv:"mood_mean"`
	MoodP10    float64 `csv:"mood_p10"`
	MoodP50    float64 `csv:"mood_p50"`
	MoodP90    float64 `csv:"mood_p90"`

	// Events during window
	Meals            int `csv:"meals"`
	Rests            int `csv:"rests"`
	PelletsSpawned   int `csv:"pellets_spawned"`
	PelletsEaten     int `csv:"pellets_eaten"`
	PelletsExpired   int `csv:"pellets_expired"`
	TargetFallbacks  int `csv:"target_fallbacks"`
	SchoolRetargets  int `csv:"school_retargets"`
	RejectedCommands int `csv:"rejected_commands"`

	// Sampled at window end
	PelletsLive     int     `csv:"pellets_live"`
	SchoolCount     int     `csv:"school_count"`
	SchoolSpread    float64 `csv:"school_spread"`
	SchoolSpeedMean float64 `csv:"school_speed_mean"`
	SchoolSpeedStd  float64 `csv:"school_speed_std"`
	Zones           int     `csv:"zones"`
	Sanctuary       bool    `csv:"sanctuary"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summary is the distribution of one sampled value.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes mean, population standard deviation and percentiles.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	var s Summary
	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"idle", s.IdleFrac,
		"searching", s.SearchingFrac,
		"feeding", s.FeedingFrac,
		"resting", s.RestingFrac,
		"hunger_mean", s.HungerMean,
		"mood_mean", s.MoodMean,
		"meals", s.Meals,
		"pellets_eaten", s.PelletsEaten,
		"pellets_expired", s.PelletsExpired,
		"school_count", s.SchoolCount,
		"school_spread", s.SchoolSpread,
		"school_speed", s.SchoolSpeedMean,
		"target_fallbacks", s.TargetFallbacks,
		"rejected_commands", s.RejectedCommands,
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("hunger_mean", s.HungerMean),
		slog.Float64("mood_mean", s.MoodMean),
		slog.Int("meals", s.Meals),
		slog.Int("pellets_eaten", s.PelletsEaten),
		slog.Float64("school_spread", s.SchoolSpread),
	)
}
