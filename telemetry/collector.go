package telemetry

import "github.com/pthm-cable/shoal/agent"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartTick int64
	windowStartTime float64

	// Creature samples for the current window
	stateTime [agent.Schooling]float64
	hunger    []float64
	mood      []float64

	// Event counters for current window
	meals            int
	rests            int
	pelletsSpawned   int
	pelletsEaten     int
	pelletsExpired   int
	targetFallbacks  int
	schoolRetargets  int
	rejectedCommands int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if !(windowDurationSec > 0) {
		windowDurationSec = 10
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// WindowDuration returns the window length in simulation seconds.
func (c *Collector) WindowDuration() float64 { return c.windowDurationSec }

// SampleCreature records the creature's state for a tick lasting dt seconds.
func (c *Collector) SampleCreature(s agent.State, hunger, mood, dt float64) {
	if int(s) < len(c.stateTime) {
		c.stateTime[s] += dt
	}
	c.hunger = append(c.hunger, hunger)
	c.mood = append(c.mood, mood)
}

// RecordMeals records completed meals.
func (c *Collector) RecordMeals(n int) { c.meals += n }

// RecordRest records a rest stimulus.
func (c *Collector) RecordRest() { c.rests++ }

// RecordPellets records pellet activity.
func (c *Collector) RecordPellets(spawned, eaten, expired int) {
	c.pelletsSpawned += spawned
	c.pelletsEaten += eaten
	c.pelletsExpired += expired
}

// RecordTargetFallbacks records target picks that gave up and used the
// world center.
func (c *Collector) RecordTargetFallbacks(n int) { c.targetFallbacks += n }

// RecordSchoolRetargets records roaming target changes.
func (c *Collector) RecordSchoolRetargets(n int) { c.schoolRetargets += n }

// RecordRejectedCommand records a stimulus that failed validation.
func (c *Collector) RecordRejectedCommand() { c.rejectedCommands++ }

// ShouldFlush returns true once the window has covered its duration.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowDurationSec
}

// WorldSample holds values sampled at window end.
type WorldSample struct {
	PelletsLive     int
	SchoolCount     int
	SchoolSpread    float64
	SchoolSpeedMean float64
	SchoolSpeedStd  float64
	Zones           int
	Sanctuary       bool
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(tick int64, simTime float64, w WorldSample) WindowStats {
	elapsed := simTime - c.windowStartTime
	frac := func(s agent.State) float64 {
		if elapsed <= 0 {
			return 0
		}
		return c.stateTime[s] / elapsed
	}
	hunger := Summarize(c.hunger)
	mood := Summarize(c.mood)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      simTime,

		IdleFrac:      frac(agent.Idle),
		SearchingFrac: frac(agent.Searching),
		FeedingFrac:   frac(agent.Feeding),
		RestingFrac:   frac(agent.Resting),

		HungerMean: hunger.Mean,
		HungerStd:  hunger.Std,
		MoodMean:   mood.Mean,
		MoodP10:    mood.P10,
		MoodP50:    mood.P50,
		MoodP90:    mood.P90,

		Meals:            c.meals,
		Rests:            c.rests,
		PelletsSpawned:   c.pelletsSpawned,
		PelletsEaten:     c.pelletsEaten,
		PelletsExpired:   c.pelletsExpired,
		TargetFallbacks:  c.targetFallbacks,
		SchoolRetargets:  c.schoolRetargets,
		RejectedCommands: c.rejectedCommands,

		PelletsLive:     w.PelletsLive,
		SchoolCount:     w.SchoolCount,
		SchoolSpread:    w.SchoolSpread,
		SchoolSpeedMean: w.SchoolSpeedMean,
		SchoolSpeedStd:  w.SchoolSpeedStd,
		Zones:           w.Zones,
		Sanctuary:       w.Sanctuary,
	}

	// Reset for next window
	c.windowStartTick = tick
	c.windowStartTime = simTime
	c.stateTime = [agent.Schooling]float64{}
	c.hunger = c.hunger[:0]
	c.mood = c.mood[:0]
	c.meals = 0
	c.rests = 0
	c.pelletsSpawned = 0
	c.pelletsEaten = 0
	c.pelletsExpired = 0
	c.targetFallbacks = 0
	c.schoolRetargets = 0
	c.rejectedCommands = 0

	return stats
}
