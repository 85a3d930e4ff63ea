package voice

import "math"

// FilterKind selects a biquad response
type FilterKind int

const (
	Highpass FilterKind = iota
	Bandpass
)

// Filter describes a fixed biquad stage in a layer
type Filter struct {
	Kind FilterKind
	Freq float64
	Q    float64
}

// biquad is a direct form I second-order section, coefficients normalized by a0.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// newBiquad builds RBJ cookbook coefficients. Highpass Q is read in dB and
// bandpass Q is linear, matching the browser filter node the recipes were
// voiced against.
func newBiquad(f Filter, sampleRate int) *biquad {
	nyquist := float64(sampleRate) / 2
	freq := f.Freq
	if freq > nyquist*0.98 {
		freq = nyquist * 0.98
	}
	if freq < 1 {
		freq = 1
	}
	q := f.Q
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosw, sinw := math.Cos(w0), math.Sin(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch f.Kind {
	case Bandpass:
		if q <= 0 {
			q = 1
		}
		alpha := sinw / (2 * q)
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	default:
		alpha := sinw / (2 * math.Pow(10, q/20))
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	}

	return &biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

func (b *biquad) process(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}
