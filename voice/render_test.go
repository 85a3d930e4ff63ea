package voice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

func TestEveryTypeHasRecipe(t *testing.T) {
	for _, vt := range Types() {
		p, ok := NewPatch(vt)
		require.True(t, ok, vt.String())
		assert.Equal(t, vt, p.Type)
		assert.NotEmpty(t, p.Layers, vt.String())
	}
	_, ok := NewPatch(Type(NumTypes))
	assert.False(t, ok)
}

func TestKickEnvelope(t *testing.T) {
	p, _ := NewPatch(Kick)
	gain := p.Layers[0].Gain

	assert.InDelta(t, 1.0, gain.At(0), 1e-12)
	prev := gain.At(0)
	for ms := 1; ms <= 500; ms++ {
		v := gain.At(float64(ms) / 1000)
		assert.Less(t, v, prev, "gain must fall at %dms", ms)
		prev = v
	}
	assert.InDelta(t, 0.01, gain.At(0.5), 1e-9)
	assert.InDelta(t, 0.01, gain.At(0.75), 1e-12)
	assert.InDelta(t, 0.01, gain.At(1.0), 1e-12)
}

func TestKickRender(t *testing.T) {
	buf, err := Render(Kick, testRate, NewSeededNoiseSource(1))
	require.NoError(t, err)

	assert.Len(t, buf.Samples, testRate)
	assert.Equal(t, 1.0, buf.Duration)
	assert.Equal(t, testRate, buf.SampleRate)
	assert.Equal(t, Kick, buf.Type)

	head := energy(buf.Samples[:testRate/10])
	tail := energy(buf.Samples[testRate*6/10:])
	assert.Greater(t, head, tail*10)
}

func TestClapPulses(t *testing.T) {
	p, _ := NewPatch(Clap)
	gain := p.Layers[0].Gain

	assert.Equal(t, 0.0, gain.At(0.005))
	for _, start := range []float64{0.01, 0.02, 0.03, 0.04} {
		assert.InDelta(t, 0.5, gain.At(start), 1e-12)
		mid := gain.At(start + 0.005)
		assert.Greater(t, mid, 0.1)
		assert.Less(t, mid, 0.5)
	}
	assert.InDelta(t, 1.0, gain.At(0.05), 1e-12)
	assert.InDelta(t, 0.01, gain.At(0.2), 1e-9)
}

func TestAllVoicesStayWithinHeadroom(t *testing.T) {
	noise := NewSeededNoiseSource(42)
	for _, vt := range Types() {
		buf, err := Render(vt, testRate, noise)
		require.NoError(t, err)
		assert.Len(t, buf.Samples, testRate, vt.String())
		assert.LessOrEqual(t, buf.Peak(), float32(1.0), vt.String())
		assert.Greater(t, buf.Peak(), float32(0), vt.String())
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	_, err := Render(Kick, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Render(Type(-1), testRate, nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestLimiterCapsLoudInput(t *testing.T) {
	l := newLimiter(testRate)
	for i := 0; i < testRate; i++ {
		y := l.process(4 * math.Sin(2*math.Pi*float64(i)*200/testRate))
		assert.LessOrEqual(t, math.Abs(y), 1.0)
	}
}

func TestLimiterCurve(t *testing.T) {
	l := newLimiter(testRate)
	assert.Equal(t, -40.0, l.curve(-40))                // below the knee
	assert.InDelta(t, -10+30.0/12, l.curve(20), 1e-12) // above the knee
	assert.Less(t, l.curve(-10), -10.0)                 // inside the knee
}

func TestHighpassBlocksDC(t *testing.T) {
	f := newBiquad(Filter{Kind: Highpass, Freq: 1000, Q: 1}, testRate)
	var y float64
	for i := 0; i < testRate; i++ {
		y = f.process(1)
	}
	assert.InDelta(t, 0, y, 1e-3)
}

func TestBandpassSelectsCenter(t *testing.T) {
	pass := sineThrough(Filter{Kind: Bandpass, Freq: 1500, Q: 1}, 1500)
	stop := sineThrough(Filter{Kind: Bandpass, Freq: 1500, Q: 1}, 50)
	assert.InDelta(t, 1.0, pass, 0.1)
	assert.Less(t, stop, 0.1)
}

func TestNoiseRange(t *testing.T) {
	n := NewNoiseSource()
	for _, rate := range []int{8000, 44100} {
		buf := n.Generate(0.5, rate)
		assert.Len(t, buf, rate/2)
		var nonzero bool
		for _, s := range buf {
			require.GreaterOrEqual(t, s, float32(-1))
			require.LessOrEqual(t, s, float32(1))
			if s != 0 {
				nonzero = true
			}
		}
		assert.True(t, nonzero)
	}
}

func TestBufferInterpolation(t *testing.T) {
	b := &Buffer{Samples: []float32{0, 1, 0}}
	assert.Equal(t, float32(0.5), b.At(0.5))
	assert.Equal(t, float32(0), b.At(-1))
	assert.Equal(t, float32(0), b.At(3))
}

func TestParseType(t *testing.T) {
	vt, err := ParseType("openhat")
	require.NoError(t, err)
	assert.Equal(t, OpenHat, vt)

	_, err = ParseType("cowbell")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func energy(s []float32) float64 {
	var e float64
	for _, v := range s {
		e += float64(v) * float64(v)
	}
	return e / float64(len(s))
}

// sineThrough returns the steady-state peak gain of f at freq
func sineThrough(f Filter, freq float64) float64 {
	bq := newBiquad(f, testRate)
	var peak float64
	for i := 0; i < testRate; i++ {
		y := bq.process(math.Sin(2 * math.Pi * freq * float64(i) / testRate))
		if i > testRate/2 && math.Abs(y) > peak {
			peak = math.Abs(y)
		}
	}
	return peak
}
