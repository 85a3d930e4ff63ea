package voice

import (
	"math"
	"sort"
)

// Floor is the smallest value an exponential ramp may target. Ramping to
// exactly zero is undefined for an exponential curve.
const Floor = 0.01

type rampKind int

const (
	setValue rampKind = iota
	expRamp
)

type paramEvent struct {
	kind  rampKind
	value float64
	time  float64
}

// Param is an automation timeline in the style of an AudioParam: a list of
// instantaneous sets and exponential ramps evaluated against time in seconds.
type Param struct {
	initial float64
	events  []paramEvent
}

// NewParam returns a param holding v until the first event
func NewParam(v float64) Param {
	return Param{initial: v}
}

// SetValueAt jumps to v at time t
func (p *Param) SetValueAt(v, t float64) *Param {
	p.insert(paramEvent{kind: setValue, value: v, time: t})
	return p
}

// ExpRampTo ramps exponentially from the previous event to v, arriving at t.
// Non-positive targets are replaced by Floor.
func (p *Param) ExpRampTo(v, t float64) *Param {
	if v <= 0 {
		v = Floor
	}
	p.insert(paramEvent{kind: expRamp, value: v, time: t})
	return p
}

// insert keeps events ordered by time; equal times keep insertion order.
func (p *Param) insert(e paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// At evaluates the timeline at time t
func (p *Param) At(t float64) float64 {
	// index of the first event strictly after t
	next := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > t })

	prevTime, prevValue := 0.0, p.initial
	if next > 0 {
		prev := p.events[next-1]
		prevTime, prevValue = prev.time, prev.value
	}

	if next >= len(p.events) {
		return prevValue
	}

	e := p.events[next]
	if e.kind != expRamp {
		return prevValue
	}
	return expInterp(prevValue, e.value, prevTime, e.time, t)
}

// expInterp follows v0 * (v1/v0)^((t-t0)/(t1-t0)), holding v0 when the ramp
// is degenerate (zero length or a start value that cannot be ramped from).
func expInterp(v0, v1, t0, t1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	if v0 <= 0 || v1 <= 0 {
		return v0
	}
	frac := (t - t0) / (t1 - t0)
	return v0 * math.Pow(v1/v0, frac)
}
