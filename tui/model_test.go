package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberdrum/midi"
	"cyberdrum/sequencer"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	mgr := sequencer.NewManager(nil, nil)
	mgr.SetStore(sequencer.Store{Dir: t.TempDir()})
	return NewModel(mgr, nil, nil)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestCursorWrapsAndToggles(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "left", "up", "x")
	assert.Equal(t, sequencer.NumSteps-1, m.col)
	assert.Equal(t, sequencer.NumTracks-1, m.row)
	assert.True(t, m.Manager.State.Step(0, sequencer.NumTracks-1, sequencer.NumSteps-1))

	m = press(t, m, "j", "l", "enter")
	assert.True(t, m.Manager.State.Step(0, 0, 0))
	m = press(t, m, "enter")
	assert.False(t, m.Manager.State.Step(0, 0, 0))
}

func TestPatternSelectAndClear(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "x", "2", "x", "c")
	assert.Equal(t, 1, m.Manager.State.ActivePattern())
	assert.False(t, m.Manager.State.Step(1, 0, 0))
	assert.True(t, m.Manager.State.Step(0, 0, 0))
	assert.Contains(t, m.status, "pattern 2 cleared")
}

func TestTempoAndMaster(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "+", "+", "-", "]", "[", "[")
	st := m.Manager.GetState()
	assert.Equal(t, 129.0, st.Tempo)
	assert.Equal(t, 70.0, st.Master)
}

func TestParamKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "V", "d", "d", "P")
	p := m.Manager.State.Params(0)
	assert.InDelta(t, 0.85, p.Volume, 1e-9)
	assert.InDelta(t, 0.9, p.Decay, 1e-9)
	assert.InDelta(t, 1.05, p.Pitch, 1e-9)
}

func TestPlayWithoutAudioShowsStatus(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, " ")
	assert.False(t, m.Manager.Playing())
	assert.Equal(t, "no audio output", m.status)
}

func TestChainAndSave(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "x", "m")
	assert.Equal(t, "chain 1", m.status)
	m = press(t, m, "s")
	assert.Contains(t, m.status, "saved untitled/")
	m = press(t, m, "c", "L")
	assert.Equal(t, "loaded untitled", m.status)
	assert.True(t, m.Manager.State.Step(0, 0, 0))
}

func TestDeviceEvents(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(DeviceEventMsg{Type: midi.DeviceConnected, ID: "pads"})
	m = next.(Model)
	assert.Equal(t, []string{"pads"}, m.inputs)

	next, _ = m.Update(DeviceEventMsg{Type: midi.DeviceDisconnected, ID: "pads"})
	m = next.(Model)
	assert.Empty(t, m.inputs)
}

func TestViewRendersGrid(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "x")
	out := m.View()
	assert.Contains(t, out, "CYBERDRUM")
	assert.Contains(t, out, "KICK")
	assert.Contains(t, out, "PERC 3")
	assert.Contains(t, out, "VOLUME")

	m = press(t, m, "?")
	assert.Contains(t, m.View(), "Transport")

	m = press(t, m, "q")
	assert.Equal(t, "", m.View())
}
