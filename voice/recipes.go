package voice

// Waveform of a tone generator
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
)

// Tone is an oscillator whose frequency follows an automation curve
type Tone struct {
	Wave Waveform
	Freq Param
}

// Layer is one signal path of a voice: a tone, or a noise bed when Tone is
// nil, then an optional filter and a gain curve. Layers are summed into the
// shared limiter.
type Layer struct {
	Tone   *Tone
	Filter *Filter
	Gain   Param
}

// Patch is the synthesis graph for a voice type
type Patch struct {
	Type   Type
	Layers []Layer
}

// noiseSeconds matches the length of the shared noise bed; longer than any render.
const noiseSeconds = 2.0

var recipes = [NumTypes]func() Patch{
	Kick:    kickPatch,
	Snare:   snarePatch,
	HiHat:   func() Patch { return hatPatch(HiHat, 0.05) },
	OpenHat: func() Patch { return hatPatch(OpenHat, 0.4) },
	Clap:    clapPatch,
	Tom:     tomPatch,
	Crash:   crashPatch,
	Zap:     zapPatch,
}

// NewPatch builds the graph for t. It returns false for an invalid type.
func NewPatch(t Type) (Patch, bool) {
	if !t.Valid() || recipes[t] == nil {
		return Patch{}, false
	}
	return recipes[t](), true
}

func kickPatch() Patch {
	freq := NewParam(150)
	freq.SetValueAt(150, 0).ExpRampTo(0.01, 0.5)
	gain := NewParam(1)
	gain.SetValueAt(1, 0).ExpRampTo(0.01, 0.5)
	return Patch{Type: Kick, Layers: []Layer{
		{Tone: &Tone{Wave: Sine, Freq: freq}, Gain: gain},
	}}
}

func snarePatch() Patch {
	toneGain := NewParam(0.5)
	toneGain.SetValueAt(0.5, 0).ExpRampTo(0.01, 0.2)
	noiseGain := NewParam(0.8)
	noiseGain.SetValueAt(0.8, 0).ExpRampTo(0.01, 0.2)
	return Patch{Type: Snare, Layers: []Layer{
		{Tone: &Tone{Wave: Triangle, Freq: NewParam(100)}, Gain: toneGain},
		{Filter: &Filter{Kind: Highpass, Freq: 1000, Q: 1}, Gain: noiseGain},
	}}
}

func hatPatch(t Type, decay float64) Patch {
	gain := NewParam(0.6)
	gain.SetValueAt(0.6, 0).ExpRampTo(0.01, decay)
	return Patch{Type: t, Layers: []Layer{
		{Filter: &Filter{Kind: Highpass, Freq: 8000, Q: 1}, Gain: gain},
	}}
}

func clapPatch() Patch {
	gain := NewParam(0)
	gain.SetValueAt(0, 0)
	for _, t := range []float64{0.01, 0.02, 0.03, 0.04} {
		gain.SetValueAt(0.5, t).ExpRampTo(0.1, t+0.01)
	}
	gain.SetValueAt(1, 0.05).ExpRampTo(0.01, 0.2)
	return Patch{Type: Clap, Layers: []Layer{
		{Filter: &Filter{Kind: Bandpass, Freq: 1500, Q: 1}, Gain: gain},
	}}
}

func tomPatch() Patch {
	freq := NewParam(200)
	freq.SetValueAt(200, 0).ExpRampTo(50, 0.4)
	gain := NewParam(0.8)
	gain.SetValueAt(0.8, 0).ExpRampTo(0.01, 0.4)
	return Patch{Type: Tom, Layers: []Layer{
		{Tone: &Tone{Wave: Sine, Freq: freq}, Gain: gain},
	}}
}

func crashPatch() Patch {
	gain := NewParam(0.8)
	gain.SetValueAt(0.8, 0).ExpRampTo(0.01, 1.5) // rings past the 1s buffer
	return Patch{Type: Crash, Layers: []Layer{
		{Filter: &Filter{Kind: Highpass, Freq: 3000, Q: 1}, Gain: gain},
	}}
}

func zapPatch() Patch {
	freq := NewParam(800)
	freq.SetValueAt(800, 0).ExpRampTo(50, 0.15)
	gain := NewParam(0.5)
	gain.SetValueAt(0.5, 0).ExpRampTo(0.01, 0.15)
	return Patch{Type: Zap, Layers: []Layer{
		{Tone: &Tone{Wave: Sawtooth, Freq: freq}, Gain: gain},
	}}
}
