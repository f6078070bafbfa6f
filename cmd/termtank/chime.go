package main

import (
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	chimeRate     = beep.SampleRate(44100)
	chimeFreq     = 880 // Hz
	chimeDuration = 60 * time.Millisecond
)

// chime plays a short tone whenever the creature eats a pellet.
type chime struct {
	ready bool
	eaten int // pellets eaten at the last notice
}

// newChime initializes the speaker. A failed init leaves the chime silent.
func newChime(enabled bool) *chime {
	c := &chime{}
	if !enabled {
		return c
	}
	if err := speaker.Init(chimeRate, chimeRate.N(time.Second/10)); err != nil {
		slog.Warn("audio unavailable, chime disabled", "error", err)
		return c
	}
	c.ready = true
	return c
}

// notice plays the chime if eaten grew since the last call.
func (c *chime) notice(eaten int) {
	grew := eaten > c.eaten
	c.eaten = eaten
	if !grew || !c.ready {
		return
	}
	sine, err := generators.SineTone(chimeRate, chimeFreq)
	if err != nil {
		return
	}
	tone := beep.Take(chimeRate.N(chimeDuration), sine)
	speaker.Play(&effects.Volume{Streamer: tone, Base: 2, Volume: -2})
}

func (c *chime) close() {
	if c.ready {
		speaker.Close()
		c.ready = false
	}
}
