package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"cyberdrum/debug"
)

// queueSize bounds how many playback requests can wait between two audio
// callbacks.
const queueSize = 256

// blockSeconds is the most audio one Read renders. The clock advances in
// steps no larger than this however much the device asks for.
const blockSeconds = 0.005

// Mixer sums scheduled playbacks into a mono float stream. Its clock is the
// number of frames it has produced, so scheduled times and rendered audio
// share one timeline. Schedule may be called from any goroutine; Process and
// Read belong to the audio callback.
type Mixer struct {
	sampleRate int
	block      int // frames per Read
	frames     atomic.Int64
	incoming   chan Playback
	dropped    atomic.Int64
	playing    atomic.Int64

	active  []Playback
	scratch []float32
}

// NewMixer creates a mixer running at sampleRate
func NewMixer(sampleRate int) *Mixer {
	return &Mixer{
		sampleRate: sampleRate,
		block:      max(1, int(float64(sampleRate)*blockSeconds)),
		incoming:   make(chan Playback, queueSize),
		active:     make([]Playback, 0, queueSize),
		scratch:    make([]float32, 4096),
	}
}

func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// Now returns the time of the next frame to be produced
func (m *Mixer) Now() float64 {
	return float64(m.frames.Load()) / float64(m.sampleRate)
}

// Schedule queues p without blocking
func (m *Mixer) Schedule(p Playback) bool {
	if p.Buffer == nil {
		return false
	}
	if p.Rate <= 0 {
		p.Rate = 1
	}
	select {
	case m.incoming <- p:
		return true
	default:
		m.dropped.Add(1)
		debug.LogEvery(50, "audio", "mixer queue full, playback dropped")
		return false
	}
}

// Dropped counts requests rejected because the queue was full
func (m *Mixer) Dropped() int64 {
	return m.dropped.Load()
}

// Active returns the number of playing or pending instances
func (m *Mixer) Active() int {
	return int(m.playing.Load()) + len(m.incoming)
}

// Process renders len(out) frames and advances the clock
func (m *Mixer) Process(out []float32) {
	sr := float64(m.sampleRate)
	first := m.frames.Load()
	blockStart := float64(first) / sr

	m.admit(blockStart)

	for i := range out {
		t := float64(first+int64(i)) / sr
		var sum float64
		for j := range m.active {
			p := &m.active[j]
			if t < p.Start || t >= p.Stop {
				continue
			}
			pos := (t - p.Start) * p.Rate * float64(p.Buffer.SampleRate)
			sum += float64(p.Buffer.At(pos)) * p.Gain.At(t)
		}
		if sum > 1 {
			sum = 1
		} else if sum < -1 {
			sum = -1
		}
		out[i] = float32(sum)
	}

	m.frames.Add(int64(len(out)))
	m.expire(float64(first+int64(len(out))) / sr)
}

// Read implements io.Reader as little-endian float32 mono PCM. It renders at
// most one block per call.
func (m *Mixer) Read(p []byte) (int, error) {
	n := min(len(p)/4, m.block)
	if len(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	samples := m.scratch[:n]
	m.Process(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}
	return n * 4, nil
}

// admit moves queued requests into the active set. A request whose start has
// already passed is shifted to start now instead of losing its attack.
func (m *Mixer) admit(now float64) {
	for {
		select {
		case p := <-m.incoming:
			if late := now - p.Start; late > 0 {
				p = p.Shift(late)
				debug.LogEvery(20, "audio", "late playback shifted by %.4fs", late)
			}
			m.active = append(m.active, p)
		default:
			m.playing.Store(int64(len(m.active)))
			return
		}
	}
}

// expire drops instances that stopped or ran off the end of their buffer
func (m *Mixer) expire(now float64) {
	kept := m.active[:0]
	for _, p := range m.active {
		end := p.Start + p.Buffer.Duration/p.Rate
		if now >= p.Stop || now >= end {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(m.active); i++ {
		m.active[i] = Playback{}
	}
	m.active = kept
	m.playing.Store(int64(len(kept)))
}
