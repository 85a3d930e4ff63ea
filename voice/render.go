package voice

import (
	"math"
)

// Length is the fixed duration of every rendered voice, in seconds
const Length = 1.0

// Buffer is an immutable rendered voice. It is shared read-only between every
// trigger of its voice type.
type Buffer struct {
	Type       Type
	Samples    []float32
	SampleRate int
	Duration   float64
}

// At returns the sample at a fractional frame position using linear
// interpolation. Positions outside the buffer are silent.
func (b *Buffer) At(pos float64) float32 {
	if pos < 0 {
		return 0
	}
	i := int(pos)
	if i >= len(b.Samples) {
		return 0
	}
	s0 := b.Samples[i]
	if i+1 >= len(b.Samples) {
		return s0
	}
	frac := float32(pos - float64(i))
	return s0 + (b.Samples[i+1]-s0)*frac
}

// Peak returns the largest absolute sample value
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Render synthesizes voice t at sampleRate. Noise layers draw their beds
// from noise; nil uses a fresh unseeded source.
func Render(t Type, sampleRate int, noise *NoiseSource) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, errInvalidRate(sampleRate)
	}
	patch, ok := NewPatch(t)
	if !ok {
		return nil, errUnknown(t)
	}
	if noise == nil {
		noise = NewNoiseSource()
	}
	return RenderPatch(patch, sampleRate, noise), nil
}

// RenderPatch is the offline render pass: every layer is generated into a
// mix bus, which then runs through the limiter.
func RenderPatch(p Patch, sampleRate int, noise *NoiseSource) *Buffer {
	frames := int(Length * float64(sampleRate))
	mix := make([]float64, frames)
	sr := float64(sampleRate)

	for li := range p.Layers {
		layer := &p.Layers[li]

		var bed []float32
		if layer.Tone == nil {
			bed = noise.Generate(noiseSeconds, sampleRate)
		}
		var filter *biquad
		if layer.Filter != nil {
			filter = newBiquad(*layer.Filter, sampleRate)
		}

		phase := 0.0
		for i := 0; i < frames; i++ {
			t := float64(i) / sr

			var x float64
			if layer.Tone != nil {
				x = oscillate(layer.Tone.Wave, phase)
				phase += layer.Tone.Freq.At(t) / sr
				phase -= math.Floor(phase)
			} else if i < len(bed) {
				x = float64(bed[i])
			}

			if filter != nil {
				x = filter.process(x)
			}
			mix[i] += x * layer.Gain.At(t)
		}
	}

	lim := newLimiter(sampleRate)
	out := make([]float32, frames)
	for i, x := range mix {
		out[i] = float32(lim.process(x))
	}

	return &Buffer{
		Type:       p.Type,
		Samples:    out,
		SampleRate: sampleRate,
		Duration:   float64(frames) / sr,
	}
}

// oscillate evaluates a unit waveform at phase in [0, 1)
func oscillate(w Waveform, phase float64) float64 {
	switch w {
	case Triangle:
		// starts at zero rising, like a sine
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	case Sawtooth:
		if phase < 0.5 {
			return 2 * phase
		}
		return 2*phase - 2
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
