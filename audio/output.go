package audio

import (
	"errors"
	"math"
	"sync"

	"cyberdrum/voice"
)

// ErrUnavailable means the host output (and so its clock) could not be acquired
var ErrUnavailable = errors.New("audio output unavailable")

// Clock is a monotonic time source in seconds
type Clock interface {
	Now() float64
}

// Output is the host audio subsystem as seen by the sequencer: a clock plus a
// primitive that starts a buffer at an absolute clock time. Schedule must not
// block; it reports false when the request could not be queued.
type Output interface {
	Clock
	Schedule(p Playback) bool
}

// Device is an Output that owns a host resource
type Device interface {
	Output
	SampleRate() int
	Close() error
}

// Playback is one fire-and-forget playback request
type Playback struct {
	Buffer *voice.Buffer
	Start  float64 // absolute clock time
	Stop   float64 // absolute clock time the instance is released
	Rate   float64 // 1 = native speed; also transposes
	Gain   Envelope
	Pan    float64 // carried, not applied by the mono mixer
}

// Shift moves every absolute time in p by d seconds
func (p Playback) Shift(d float64) Playback {
	p.Start += d
	p.Stop += d
	p.Gain.RampStart += d
	p.Gain.RampEnd += d
	return p
}

// Envelope is a constant gain with an optional exponential fade to Floor
// between RampStart and RampEnd.
type Envelope struct {
	Level     float64
	RampStart float64
	RampEnd   float64
	Floor     float64
}

// Ramped reports whether the envelope has a fade
func (e Envelope) Ramped() bool {
	return e.RampEnd > e.RampStart
}

// At returns the gain at absolute time t
func (e Envelope) At(t float64) float64 {
	if !e.Ramped() || t <= e.RampStart || e.Level <= e.Floor || e.Floor <= 0 {
		return e.Level
	}
	if t >= e.RampEnd {
		return e.Floor
	}
	frac := (t - e.RampStart) / (e.RampEnd - e.RampStart)
	return e.Level * math.Pow(e.Floor/e.Level, frac)
}

// ManualClock is a Clock driven by hand, for offline runs and tests
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps the clock; it never moves backwards
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}

func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
}
