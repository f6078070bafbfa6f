package main

import (
	"maps"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/school"
	"github.com/pthm-cable/shoal/telemetry"
)

// Fitness component weights.
const (
	weightSpread   = 1.0
	weightCruise   = 1.0
	weightSpeedStd = 0.5
	weightFallback = 0.05 // per target fallback in a window

	warmupWindows = 2 // skip the windows where the school is still forming
)

// invalidFitness scores a run that could not be evaluated.
const invalidFitness = 1e6

// FitnessEvaluator runs headless games and scores how well the school holds
// together at cruising speed.
type FitnessEvaluator struct {
	params *ParamVector
	tag    string
	base   school.Species

	baseConfig   *config.Config
	seeds        []int64
	ticks        int64
	windowSec    float64
	targetSpread float64

	mu        sync.Mutex
	lastScore windowScore
}

// windowScore holds the averaged error terms of one evaluation.
type windowScore struct {
	Spread    float64 // mean school spread, px
	Speed     float64 // mean fish speed, px/s
	SpreadErr float64
	CruiseErr float64
	SpeedStd  float64
	Fallbacks float64
}

// NewFitnessEvaluator creates an evaluator for the species tag of baseCfg.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, tag string, seeds []int64, ticks int64, targetSpread float64) (*FitnessEvaluator, error) {
	reg, err := baseCfg.Registry()
	if err != nil {
		return nil, err
	}
	base, err := reg.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return &FitnessEvaluator{
		params:       params,
		tag:          tag,
		base:         base,
		baseConfig:   baseCfg,
		seeds:        seeds,
		ticks:        ticks,
		windowSec:    5,
		targetSpread: targetSpread,
	}, nil
}

// Base returns the species parameters tuning starts from.
func (fe *FitnessEvaluator) Base() school.Species { return fe.base }

// LastScore returns the error terms from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() windowScore {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate computes fitness for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, fe.tag, fe.base, x)

	results := make([]windowScore, len(fe.seeds))
	ok := make([]bool, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(cfg, s)
			if err != nil {
				return
			}
			results[idx], ok[idx] = fe.score(windows)
		}(i, seed)
	}
	wg.Wait()

	var total windowScore
	n := 0
	for i, r := range results {
		if !ok[i] {
			continue
		}
		total.Spread += r.Spread
		total.Speed += r.Speed
		total.SpreadErr += r.SpreadErr
		total.CruiseErr += r.CruiseErr
		total.SpeedStd += r.SpeedStd
		total.Fallbacks += r.Fallbacks
		n++
	}
	if n == 0 {
		return invalidFitness
	}
	k := float64(n)
	avg := windowScore{
		Spread:    total.Spread / k,
		Speed:     total.Speed / k,
		SpreadErr: total.SpreadErr / k,
		CruiseErr: total.CruiseErr / k,
		SpeedStd:  total.SpeedStd / k,
		Fallbacks: total.Fallbacks / k,
	}

	fe.mu.Lock()
	fe.lastScore = avg
	fe.mu.Unlock()

	return fitness(avg)
}

func fitness(s windowScore) float64 {
	return weightSpread*s.SpreadErr +
		weightCruise*s.CruiseErr +
		weightSpeedStd*s.SpeedStd +
		weightFallback*s.Fallbacks
}

// runSimulation plays one seeded headless game and returns its windows.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	// game.New recomputes derived values, so each run gets its own copy
	local := *cfg
	var windows []telemetry.WindowStats
	g, err := game.New(&local, game.Options{
		Seed: seed,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	dt := local.Derived.TickDT
	for g.Tick() < fe.ticks {
		g.Update(dt)
	}
	return windows, nil
}

// score averages the per-window errors past warmup. ok is false when no
// window qualifies.
func (fe *FitnessEvaluator) score(windows []telemetry.WindowStats) (s windowScore, ok bool) {
	if len(windows) <= warmupWindows {
		return s, false
	}
	valid := windows[warmupWindows:]

	cruise := math.Max(fe.base.CruiseSpeed, 1)
	spread := make([]float64, len(valid))
	speed := make([]float64, len(valid))
	spreadErr := make([]float64, len(valid))
	cruiseErr := make([]float64, len(valid))
	speedStd := make([]float64, len(valid))
	fallbacks := make([]float64, len(valid))
	for i, w := range valid {
		spread[i] = w.SchoolSpread
		speed[i] = w.SchoolSpeedMean
		spreadErr[i] = math.Abs(w.SchoolSpread-fe.targetSpread) / fe.targetSpread
		cruiseErr[i] = math.Abs(w.SchoolSpeedMean-cruise) / cruise
		speedStd[i] = w.SchoolSpeedStd / cruise
		fallbacks[i] = float64(w.TargetFallbacks)
	}

	return windowScore{
		Spread:    stat.Mean(spread, nil),
		Speed:     stat.Mean(speed, nil),
		SpreadErr: stat.Mean(spreadErr, nil),
		CruiseErr: stat.Mean(cruiseErr, nil),
		SpeedStd:  stat.Mean(speedStd, nil),
		Fallbacks: stat.Mean(fallbacks, nil),
	}, true
}

// copyConfig returns a copy of the base config set up for a quiet headless
// run of the tuned species.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Species = maps.Clone(fe.baseConfig.Species)
	cfg.Sanctuary.Zones = slices.Clone(fe.baseConfig.Sanctuary.Zones)

	cfg.School.Enabled = true
	cfg.School.Species = fe.tag
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.LogStats = false
	cfg.Telemetry.WindowSec = fe.windowSec
	return &cfg
}
