package sequencer

import (
	"math"

	"cyberdrum/voice"
)

const (
	NumTracks   = 12
	NumSteps    = 16
	NumPatterns = 4
)

// Tempo range and defaults
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 128

	DefaultMasterVolume = 75
)

// TrackDef is one fixed row of the machine: a label, the voice it plays and
// the GM drum note it answers to on MIDI.
type TrackDef struct {
	Name  string
	Voice voice.Type
	Pitch float64 // default playback rate
	Note  uint8
}

// Tracks is the fixed track table
var Tracks = [NumTracks]TrackDef{
	{Name: "KICK", Voice: voice.Kick, Pitch: 1, Note: 36},
	{Name: "SNARE", Voice: voice.Snare, Pitch: 1, Note: 38},
	{Name: "CLAP", Voice: voice.Clap, Pitch: 1, Note: 39},
	{Name: "CH", Voice: voice.HiHat, Pitch: 1, Note: 42},
	{Name: "OH", Voice: voice.OpenHat, Pitch: 1, Note: 46},
	{Name: "L TOM", Voice: voice.Tom, Pitch: 1, Note: 41},
	{Name: "H TOM", Voice: voice.Tom, Pitch: 1.5, Note: 45},
	{Name: "CRASH", Voice: voice.Crash, Pitch: 1, Note: 49},
	{Name: "ZAP", Voice: voice.Zap, Pitch: 1, Note: 51},
	{Name: "PERC 1", Voice: voice.Tom, Pitch: 2, Note: 48},
	{Name: "PERC 2", Voice: voice.Snare, Pitch: 1, Note: 40},
	{Name: "PERC 3", Voice: voice.Zap, Pitch: 1, Note: 37},
}

// TrackForNote returns the track answering to a GM drum note
func TrackForNote(note uint8) (int, bool) {
	for i, def := range Tracks {
		if def.Note == note {
			return i, true
		}
	}
	return 0, false
}

// TrackParams are the per-track playback parameters
type TrackParams struct {
	Volume float64 `json:"volume"`
	Pitch  float64 `json:"pitch"`
	Decay  float64 `json:"decay"`
	Pan    float64 `json:"pan"`
}

// Param selects one field of TrackParams
type Param int

const (
	ParamVolume Param = iota
	ParamPitch
	ParamDecay
	ParamPan
)

var paramNames = [...]string{"volume", "pitch", "decay", "pan"}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return "unknown"
	}
	return paramNames[p]
}

// paramRanges holds [min, max] per Param
var paramRanges = [...][2]float64{
	ParamVolume: {0, 1.5},
	ParamPitch:  {0.1, 3},
	ParamDecay:  {0.1, 2},
	ParamPan:    {-1, 1},
}

// Range returns the valid interval for p
func (p Param) Range() (lo, hi float64) {
	if p < 0 || int(p) >= len(paramRanges) {
		return 0, 0
	}
	r := paramRanges[p]
	return r[0], r[1]
}

// DefaultParams returns the initial parameters of a track
func DefaultParams(def TrackDef) TrackParams {
	return TrackParams{Volume: 0.8, Pitch: def.Pitch, Decay: 1, Pan: 0}.Clamped()
}

// Get returns the value of one field
func (p TrackParams) Get(which Param) float64 {
	switch which {
	case ParamVolume:
		return p.Volume
	case ParamPitch:
		return p.Pitch
	case ParamDecay:
		return p.Decay
	case ParamPan:
		return p.Pan
	}
	return 0
}

// With returns p with one field replaced and clamped
func (p TrackParams) With(which Param, v float64) TrackParams {
	switch which {
	case ParamVolume:
		p.Volume = v
	case ParamPitch:
		p.Pitch = v
	case ParamDecay:
		p.Decay = v
	case ParamPan:
		p.Pan = v
	}
	return p.Clamped()
}

// Clamped forces every field into its range. NaN falls back to the default.
func (p TrackParams) Clamped() TrackParams {
	p.Volume = clampParam(p.Volume, ParamVolume, 0.8)
	p.Pitch = clampParam(p.Pitch, ParamPitch, 1)
	p.Decay = clampParam(p.Decay, ParamDecay, 1)
	p.Pan = clampParam(p.Pan, ParamPan, 0)
	return p
}

func clampParam(v float64, which Param, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	lo, hi := which.Range()
	return math.Max(lo, math.Min(hi, v))
}

// ClampTempo forces bpm into [MinTempo, MaxTempo]
func ClampTempo(bpm float64) float64 {
	if math.IsNaN(bpm) {
		return DefaultTempo
	}
	return math.Max(MinTempo, math.Min(MaxTempo, bpm))
}

// clampMaster forces a master volume into [0, 100]
func clampMaster(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultMasterVolume
	}
	return math.Max(0, math.Min(100, v))
}
