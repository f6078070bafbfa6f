package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one step of a simulation tick.
type Phase uint8

// Tick phases in execution order.
const (
	PhaseCommands Phase = iota
	PhaseCreature
	PhaseSchool
	PhasePellets
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"commands", "creature", "school", "pellets", "telemetry"}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases returns every phase in execution order.
func Phases() []Phase {
	out := make([]Phase, numPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector keeps the timings of the last second of ticks and compares
// them with the tick budget. A nil collector ignores every call.
type PerfCollector struct {
	budget time.Duration
	ring   []tickTiming
	next   int
	filled int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	timing     bool // a phase is open

	lastFrame time.Time
	frame     time.Duration

	now func() time.Time
}

// NewPerfCollector creates a collector for a simulation running at tickRate Hz.
func NewPerfCollector(tickRate float64) *PerfCollector {
	window := 60
	var budget time.Duration
	if tickRate > 0 {
		window = max(1, int(tickRate+0.5))
		budget = time.Duration(float64(time.Second) / tickRate)
	}
	return &PerfCollector{
		budget: budget,
		ring:   make([]tickTiming, window),
		now:    time.Now,
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.tickStart = p.now()
	p.cur = tickTiming{}
	p.timing = false
}

// StartPhase closes the open phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	if p == nil || ph >= numPhases {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.timing = ph, now, true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.timing {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.timing = false
	}
}

// EndTick closes the open phase and stores the tick.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseTiming is the average cost of one phase.
type PhaseTiming struct {
	Avg   time.Duration
	Share float64 // fraction of the average tick, 0..1
}

// PerfStats summarizes the collector window.
type PerfStats struct {
	Ticks int

	Avg time.Duration
	P95 time.Duration
	Max time.Duration

	Budget time.Duration // one tick at the configured rate
	Load   float64       // Avg / Budget; above 1 the simulation falls behind

	Phases [numPhases]PhaseTiming

	Frame time.Duration
	FPS   float64
}

// Stats summarizes the ticks in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.filled, Budget: p.budget, Frame: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	totals := make([]float64, p.filled)
	var phaseSum [numPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		totals[i] = float64(t.total)
		s.Max = max(s.Max, t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}
	sort.Float64s(totals)
	s.Avg = time.Duration(stat.Mean(totals, nil))
	s.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	if s.Budget > 0 {
		s.Load = float64(s.Avg) / float64(s.Budget)
	}

	n := time.Duration(p.filled)
	for ph, sum := range phaseSum {
		avg := sum / n
		s.Phases[ph].Avg = avg
		if s.Avg > 0 {
			s.Phases[ph].Share = float64(avg) / float64(s.Avg)
		}
	}
	return s
}

// Over reports whether the average tick exceeds its budget.
func (s PerfStats) Over() bool { return s.Budget > 0 && s.Avg > s.Budget }

// LogStats logs the window summary.
func (s PerfStats) LogStats() {
	attrs := []any{
		"ticks", s.Ticks,
		"avg_us", s.Avg.Microseconds(),
		"p95_us", s.P95.Microseconds(),
		"max_us", s.Max.Microseconds(),
		"load", float64(int(s.Load*1000)) / 1000,
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, ph := range Phases() {
		attrs = append(attrs, ph.String()+"_pct", float64(int(s.Phases[ph].Share*1000))/10)
	}
	if s.Over() {
		slog.Warn("tick over budget", attrs...)
		return
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgUS        int64   `csv:"avg_us"`
	P95US        int64   `csv:"p95_us"`
	MaxUS        int64   `csv:"max_us"`
	Load         float64 `csv:"load"`
	FPS          float64 `csv:"fps"`
	CommandsPct  float64 `csv:"commands_pct"`
	CreaturePct  float64 `csv:"creature_pct"`
	SchoolPct    float64 `csv:"school_pct"`
	PelletsPct   float64 `csv:"pellets_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	pct := func(ph Phase) float64 { return s.Phases[ph].Share * 100 }
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgUS:        s.Avg.Microseconds(),
		P95US:        s.P95.Microseconds(),
		MaxUS:        s.Max.Microseconds(),
		Load:         s.Load,
		FPS:          s.FPS,
		CommandsPct:  pct(PhaseCommands),
		CreaturePct:  pct(PhaseCreature),
		SchoolPct:    pct(PhaseSchool),
		PelletsPct:   pct(PhasePellets),
		TelemetryPct: pct(PhaseTelemetry),
	}
}
