package creature

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("creature: invalid params")

// Params tunes the single-creature brain. All rates are per second.
type Params struct {
	MaxDT float64 `yaml:"max_dt"` // scheduler stalls are clamped to this

	HungerRate     float64 `yaml:"hunger_rate"`     // hunger gained while not feeding
	SearchHunger   float64 `yaml:"search_hunger"`   // IDLE -> SEARCHING above this
	SatedHunger    float64 `yaml:"sated_hunger"`    // arrival feeds above this, idles otherwise
	FeedRate       float64 `yaml:"feed_rate"`       // hunger drained while FEEDING
	FeedMoodBonus  float64 `yaml:"feed_mood_bonus"` // mood granted when a meal completes
	StarveHunger   float64 `yaml:"starve_hunger"`   // mood decays above this
	MoodDecay      float64 `yaml:"mood_decay"`
	MoodRecover    float64 `yaml:"mood_recover"`     // while hunger is low
	MoodRecoverMid float64 `yaml:"mood_recover_mid"` // while hunger is moderate
	ContentHunger  float64 `yaml:"content_hunger"`   // "low hunger" threshold for MoodRecover

	WanderChance  float64 `yaml:"wander_chance"`  // per-tick IDLE -> SEARCHING probability
	RefocusChance float64 `yaml:"refocus_chance"` // per-tick FEEDING -> SEARCHING probability
	ArriveRadius  float64 `yaml:"arrive_radius"`  // px

	RestDuration float64 `yaml:"rest_duration"` // s
	RestMood     float64 `yaml:"rest_mood"`     // mood recovered while resting
	RestSink     float64 `yaml:"rest_sink"`     // px/s^2 downward drift while resting

	BaseSpeed   float64 `yaml:"base_speed"`  // px/s when mood is 0
	MoodSpeed   float64 `yaml:"mood_speed"`  // extra px/s at full mood
	SteerBlend  float64 `yaml:"steer_blend"` // fraction of desired velocity mixed in per tick
	Damping     float64 `yaml:"damping"`     // per-tick velocity decay when not seeking
	RestDamping float64 `yaml:"rest_damping"`
	JitterSpeed float64 `yaml:"jitter_speed"` // px/s nibble jitter while FEEDING
	BounceLoss  float64 `yaml:"bounce_loss"`  // velocity retained after hitting a wall
	TurnRate    float64 `yaml:"turn_rate"`    // rad/s facing limit
	FacingSpeed float64 `yaml:"facing_speed"` // facing only tracks velocity above this speed

	TargetInset   float64 `yaml:"target_inset"` // keep targets this far from the walls
	TargetRetries int     `yaml:"target_retries"`

	SanctuaryMinForce float64 `yaml:"sanctuary_min_force"` // ignore repulsion components below this
	SanctuaryMaxSpeed float64 `yaml:"sanctuary_max_speed"` // speed cap after a sanctuary push

	CursorRange    float64 `yaml:"cursor_range"`    // px, cursor ignored beyond this
	CursorChance   float64 `yaml:"cursor_chance"`   // per-tick probability at zero distance
	CursorMinDist  float64 `yaml:"cursor_min_dist"` // investigate point offset from the cursor
	CursorMaxDist  float64 `yaml:"cursor_max_dist"`
	PelletMoodGain float64 `yaml:"pellet_mood_gain"` // cosmetic reward per pellet eaten
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		MaxDT: 0.1,

		HungerRate:     0.5,
		SearchHunger:   30,
		SatedHunger:    20,
		FeedRate:       10,
		FeedMoodBonus:  10,
		StarveHunger:   70,
		MoodDecay:      1.5,
		MoodRecover:    0.3,
		MoodRecoverMid: 0.1,
		ContentHunger:  30,

		WanderChance:  0.004,
		RefocusChance: 0.03,
		ArriveRadius:  15,

		RestDuration: 5,
		RestMood:     0.5,
		RestSink:     2,

		BaseSpeed:   40,
		MoodSpeed:   120,
		SteerBlend:  0.08,
		Damping:     0.96,
		RestDamping: 0.96,
		JitterSpeed: 5,
		BounceLoss:  0.5,
		TurnRate:    4,
		FacingSpeed: 2,

		TargetInset:   50,
		TargetRetries: 20,

		SanctuaryMinForce: 0.1,
		SanctuaryMaxSpeed: 300,

		CursorRange:    300,
		CursorChance:   0.02,
		CursorMinDist:  50,
		CursorMaxDist:  150,
		PelletMoodGain: 5,
	}
}

// Validate rejects tunings that break the brain's invariants: dt must stay
// non-negative, drives stay in [0, 100], and target selection must try at
// least once.
func (p Params) Validate() error {
	var msg string
	switch {
	case !(p.MaxDT > 0):
		msg = "max_dt must be positive"
	case p.HungerRate < 0 || p.FeedRate < 0 || p.MoodDecay < 0 || p.MoodRecover < 0 || p.MoodRecoverMid < 0 || p.RestMood < 0:
		msg = "drive rates must not be negative"
	case !inDrive(p.SearchHunger) || !inDrive(p.SatedHunger) || !inDrive(p.StarveHunger) || !inDrive(p.ContentHunger):
		msg = "hunger thresholds must be within [0, 100]"
	case !inUnit(p.WanderChance) || !inUnit(p.RefocusChance) || !inUnit(p.CursorChance):
		msg = "chances must be within [0, 1]"
	case !(p.ArriveRadius > 0):
		msg = "arrive_radius must be positive"
	case p.RestDuration < 0:
		msg = "rest_duration must not be negative"
	case p.BaseSpeed < 0 || p.MoodSpeed < 0 || p.JitterSpeed < 0:
		msg = "speeds must not be negative"
	case !inUnit(p.SteerBlend) || !inUnit(p.Damping) || !inUnit(p.RestDamping) || !inUnit(p.BounceLoss):
		msg = "blend, damping and bounce_loss must be within [0, 1]"
	case !(p.TurnRate > 0):
		msg = "turn_rate must be positive"
	case p.TargetInset < 0:
		msg = "target_inset must not be negative"
	case p.TargetRetries < 1:
		msg = "target_retries must be at least 1"
	case !(p.SanctuaryMaxSpeed > 0):
		msg = "sanctuary_max_speed must be positive"
	case p.CursorRange < 0 || p.CursorMinDist < 0 || p.CursorMaxDist < p.CursorMinDist:
		msg = "cursor distances must satisfy 0 <= cursor_min_dist <= cursor_max_dist"
	case p.PelletMoodGain < 0:
		msg = "pellet_mood_gain must not be negative"
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidParams, msg)
}

func inDrive(v float64) bool { return v >= 0 && v <= maxHunger }
func inUnit(v float64) bool  { return v >= 0 && v <= 1 }
