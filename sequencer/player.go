package sequencer

import (
	"sync/atomic"

	"cyberdrum/audio"
	"cyberdrum/debug"
	"cyberdrum/voice"
)

// releaseTail is how long an instance is kept after its decay window
const releaseTail = 0.1

// Player turns triggers into fire-and-forget playbacks on an audio output
type Player struct {
	out     audio.Output
	dropped atomic.Int64
}

func NewPlayer(out audio.Output) *Player {
	return &Player{out: out}
}

// Trigger schedules t on the output without blocking
func (p *Player) Trigger(t Trigger) {
	if t.Buffer == nil || p.out == nil {
		return
	}
	if !p.out.Schedule(Playback(t)) {
		p.dropped.Add(1)
		debug.LogEvery(20, "audio", "output rejected %s at %.3f", t.Voice, t.Time)
	}
}

// Dropped counts playbacks the output refused
func (p *Player) Dropped() int64 {
	return p.dropped.Load()
}

// Playback computes the playback request for a trigger. Pitch is the playback
// rate; gain is volume scaled by master/100; a decay below 1 fades the gain
// exponentially to the floor over the shortened length, and the instance is
// released releaseTail after that length.
func Playback(t Trigger) audio.Playback {
	params := t.Params.Clamped()
	level := params.Volume * clampMaster(t.Master) / 100

	var length float64
	if t.Buffer != nil {
		length = t.Buffer.Duration * params.Decay
	}

	pb := audio.Playback{
		Buffer: t.Buffer,
		Start:  t.Time,
		Stop:   t.Time + length + releaseTail,
		Rate:   params.Pitch,
		Gain:   audio.Envelope{Level: level},
		Pan:    params.Pan,
	}
	if params.Decay < 1 {
		pb.Gain.RampStart = t.Time
		pb.Gain.RampEnd = t.Time + length
		pb.Gain.Floor = voice.Floor
	}
	return pb
}
