package sequencer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberdrum/voice"
)

func TestDefaults(t *testing.T) {
	st := NewState()
	snap := st.Snapshot()

	assert.Equal(t, 128.0, snap.Tempo)
	assert.Equal(t, 75.0, snap.MasterVolume)
	assert.Equal(t, 0, snap.Active)
	for i, p := range snap.Params {
		assert.Equal(t, 0.8, p.Volume, Tracks[i].Name)
		assert.Equal(t, 1.0, p.Decay)
		assert.Equal(t, 0.0, p.Pan)
	}
	assert.Equal(t, 1.5, snap.Params[6].Pitch)
	assert.Equal(t, 2.0, snap.Params[9].Pitch)
	for i := range snap.Patterns {
		assert.True(t, snap.Patterns[i].Empty())
	}
}

func TestTrackTable(t *testing.T) {
	want := []voice.Type{
		voice.Kick, voice.Snare, voice.Clap, voice.HiHat, voice.OpenHat, voice.Tom,
		voice.Tom, voice.Crash, voice.Zap, voice.Tom, voice.Snare, voice.Zap,
	}
	for i, def := range Tracks {
		assert.Equal(t, want[i], def.Voice, def.Name)
	}

	seen := map[uint8]bool{}
	for _, def := range Tracks {
		assert.False(t, seen[def.Note], "duplicate note %d", def.Note)
		seen[def.Note] = true
	}

	track, ok := TrackForNote(36)
	require.True(t, ok)
	assert.Equal(t, 0, track)
	_, ok = TrackForNote(100)
	assert.False(t, ok)
}

func TestToggleTwiceRestores(t *testing.T) {
	st := NewState()
	before := st.Snapshot()

	assert.True(t, st.Toggle(3, 7))
	assert.True(t, st.Step(0, 3, 7))
	assert.False(t, st.Toggle(3, 7))

	assert.Equal(t, before, st.Snapshot())
}

func TestToggleOutOfRangeIgnored(t *testing.T) {
	st := NewState()
	before := st.Snapshot()
	st.Toggle(-1, 0)
	st.Toggle(0, NumSteps)
	st.Toggle(NumTracks, 3)
	assert.Equal(t, before, st.Snapshot())
	assert.False(t, st.Step(7, 0, 0))
}

func TestPatternsAreIsolated(t *testing.T) {
	st := NewState()
	st.Toggle(0, 0)
	require.NoError(t, st.SelectPattern(1))
	assert.False(t, st.Step(1, 0, 0))

	st.Toggle(1, 4)
	st.ClearPattern()
	assert.True(t, st.Pattern(1).Empty())
	assert.True(t, st.Step(0, 0, 0))

	mask := st.ContentMask()
	assert.Equal(t, [NumPatterns]bool{true, false, false, false}, mask)
}

func TestSelectPatternRejectsInvalid(t *testing.T) {
	st := NewState()
	assert.ErrorIs(t, st.SelectPattern(4), ErrInvalidPattern)
	assert.ErrorIs(t, st.SelectPattern(-1), ErrInvalidPattern)
	assert.Equal(t, 0, st.ActivePattern())
}

func TestTempoClamped(t *testing.T) {
	st := NewState()
	assert.Equal(t, 300.0, st.SetTempo(1000))
	assert.Equal(t, 20.0, st.SetTempo(0))
	assert.Equal(t, 20.0, st.SetTempo(-5))
	assert.Equal(t, 128.0, st.SetTempo(math.NaN()))
	assert.Equal(t, 97.5, st.SetTempo(97.5))
}

func TestParamsClamped(t *testing.T) {
	st := NewState()

	p := st.SetParam(0, ParamVolume, 9)
	assert.Equal(t, 1.5, p.Volume)
	p = st.SetParam(0, ParamPitch, 0)
	assert.Equal(t, 0.1, p.Pitch)
	p = st.SetParam(0, ParamDecay, -1)
	assert.Equal(t, 0.1, p.Decay)
	p = st.SetParam(0, ParamPan, 3)
	assert.Equal(t, 1.0, p.Pan)

	p = st.AdjustParam(1, ParamVolume, -0.1)
	assert.InDelta(t, 0.7, p.Volume, 1e-12)

	assert.Equal(t, TrackParams{}, st.SetParam(NumTracks, ParamVolume, 1))

	nan := TrackParams{Volume: math.NaN(), Pitch: math.NaN(), Decay: math.NaN(), Pan: math.NaN()}.Clamped()
	assert.Equal(t, TrackParams{Volume: 0.8, Pitch: 1, Decay: 1, Pan: 0}, nan)
}

func TestMasterVolumeClamped(t *testing.T) {
	st := NewState()
	assert.Equal(t, 100.0, st.SetMasterVolume(150))
	assert.Equal(t, 0.0, st.SetMasterVolume(-1))
}

func TestChainOrderValidated(t *testing.T) {
	st := NewState()
	assert.ErrorIs(t, st.SetChainOrder([]int{0, 5}), ErrInvalidPattern)
	assert.Error(t, st.SetChainOrder(make([]int, MaxChain+1)))

	require.NoError(t, st.SetChainOrder([]int{1, 0}))
	st.SetChain(true)
	on, order := st.Chain()
	assert.True(t, on)
	assert.Equal(t, []int{1, 0}, order)

	// The returned order is a copy
	order[0] = 3
	_, again := st.Chain()
	assert.Equal(t, []int{1, 0}, again)
}

func TestSnapshotRestoreNormalizes(t *testing.T) {
	st := NewState()
	st.Toggle(2, 5)

	data, err := json.Marshal(st.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	snap.Tempo = 999
	snap.Active = 9
	snap.Params[0].Volume = 7
	snap.ChainOrder = []int{3, 8, 1}

	other := NewState()
	other.Restore(snap)

	assert.True(t, other.Step(0, 2, 5))
	assert.Equal(t, 300.0, other.Tempo())
	assert.Equal(t, 0, other.ActivePattern())
	assert.Equal(t, 1.5, other.Params(0).Volume)
	_, order := other.Chain()
	assert.Equal(t, []int{3, 1}, order)
}
