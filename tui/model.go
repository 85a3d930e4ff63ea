package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cyberdrum/debug"
	"cyberdrum/midi"
	"cyberdrum/sequencer"
	"cyberdrum/theme"
	"cyberdrum/voice"
	"cyberdrum/widgets"
)

// Editing step sizes
const (
	tempoStep  = 1.0
	masterStep = 5.0
	paramStep  = 0.05
	meterWidth = 16
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // nil when MIDI is disabled
	Theme     *theme.Theme

	row, col int
	showHelp bool
	status   string
	inputs   []string
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.inputs = append(m.inputs, event.ID)
			m.status = "midi: " + event.ID + " connected"
		case midi.DeviceDisconnected:
			m.inputs = remove(m.inputs, event.ID)
			m.status = "midi: " + event.ID + " disconnected"
		}
		if m.DeviceMgr == nil {
			return m, nil
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	mgr := m.Manager
	m.status = ""

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		mgr.Stop()
		return m, tea.Quit

	case " ", "space":
		if err := mgr.TogglePlay(); err != nil {
			m.status = describe(err)
		}

	case "h", "left":
		m.col = (m.col + sequencer.NumSteps - 1) % sequencer.NumSteps
	case "l", "right":
		m.col = (m.col + 1) % sequencer.NumSteps
	case "k", "up":
		m.row = (m.row + sequencer.NumTracks - 1) % sequencer.NumTracks
	case "j", "down":
		m.row = (m.row + 1) % sequencer.NumTracks

	case "enter", "x":
		mgr.State.Toggle(m.row, m.col)

	case "1", "2", "3", "4":
		mgr.SelectPattern(int(key[0] - '1'))

	case "c":
		mgr.State.ClearPattern()
		m.status = fmt.Sprintf("pattern %d cleared", mgr.State.ActivePattern()+1)

	case "+", "=":
		mgr.AdjustTempo(tempoStep)
	case "-", "_":
		mgr.AdjustTempo(-tempoStep)

	case "]":
		mgr.SetMasterVolume(mgr.State.MasterVolume() + masterStep)
	case "[":
		mgr.SetMasterVolume(mgr.State.MasterVolume() - masterStep)

	case "v":
		mgr.State.AdjustParam(m.row, sequencer.ParamVolume, -paramStep)
	case "V":
		mgr.State.AdjustParam(m.row, sequencer.ParamVolume, paramStep)
	case "p":
		mgr.State.AdjustParam(m.row, sequencer.ParamPitch, -paramStep)
	case "P":
		mgr.State.AdjustParam(m.row, sequencer.ParamPitch, paramStep)
	case "d":
		mgr.State.AdjustParam(m.row, sequencer.ParamDecay, -paramStep)
	case "D":
		mgr.State.AdjustParam(m.row, sequencer.ParamDecay, paramStep)
	case "n":
		mgr.State.AdjustParam(m.row, sequencer.ParamPan, -paramStep)
	case "N":
		mgr.State.AdjustParam(m.row, sequencer.ParamPan, paramStep)

	case "a":
		if !mgr.Preview(m.row) {
			m.status = "voices not ready"
		}

	case "m":
		if mgr.ToggleChain() {
			_, order := mgr.State.Chain()
			m.status = "chain " + chainString(order)
		} else {
			m.status = "chain off"
		}

	case "s":
		name := mgr.GetState().Project
		if name == "" {
			name = "untitled"
		}
		info, err := mgr.SaveProject(name, "")
		if err != nil {
			m.status = "save failed: " + err.Error()
			debug.Log("tui", "save: %v", err)
		} else {
			m.status = "saved " + name + "/" + info.Filename
		}

	case "L":
		name := mgr.GetState().Project
		if name == "" {
			name = "untitled"
		}
		if err := mgr.LoadProject(name, ""); err != nil {
			m.status = "load failed: " + err.Error()
		} else {
			m.status = "loaded " + name
		}

	case "?":
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	st := m.Manager.GetState()

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	header := headerStyle.Render(fmt.Sprintf("CYBERDRUM  %s  %3.0fbpm  master:%3.0f", playState, st.Tempo, st.Master))
	if st.Chain {
		header += "  " + warnStyle.Render("CHAIN")
	}
	if st.Ready < voice.NumTypes {
		header += "  " + dimStyle.Render(fmt.Sprintf("rendering %d/%d", st.Ready, voice.NumTypes))
	}

	mask := m.Manager.State.ContentMask()
	tabs := widgets.RenderTabs(sequencer.NumPatterns, st.Active, mask[:], th)

	playhead := -1
	if st.Playing && st.Position.Pattern == st.Active {
		// Position is the next step to be scheduled; the one sounding is
		// one behind it.
		playhead = (st.Position.Step + sequencer.NumSteps - 1) % sequencer.NumSteps
	}

	pattern := m.Manager.State.Pattern(st.Active)
	grid := widgets.StepGrid{
		Labels:    make([]string, sequencer.NumTracks),
		Cells:     make([][]bool, sequencer.NumTracks),
		CursorRow: m.row,
		CursorCol: m.col,
		Playhead:  playhead,
		BeatEvery: 4,
	}
	for i, def := range sequencer.Tracks {
		grid.Labels[i] = def.Name
		grid.Cells[i] = pattern[i][:]
	}

	params := m.Manager.State.Params(m.row)
	def := sequencer.Tracks[m.row]
	var panel []string
	panel = append(panel, headerStyle.Render(fmt.Sprintf("%s (%s)", def.Name, def.Voice)))
	for _, p := range []sequencer.Param{sequencer.ParamVolume, sequencer.ParamPitch, sequencer.ParamDecay, sequencer.ParamPan} {
		lo, hi := p.Range()
		panel = append(panel, widgets.RenderMeter(strings.ToUpper(p.String()), params.Get(p), lo, hi, meterWidth, th))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(tabs)
	out.WriteString("\n\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		widgets.RenderStepGrid(grid, th),
		"    ",
		strings.Join(panel, "\n"),
	))
	out.WriteString("\n\n")

	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(keyHelp))
		out.WriteString("\n")
	} else {
		out.WriteString(dimStyle.Render("space:play  hjkl:move  x:toggle  1-4:pattern  +/-:tempo  a:audition  ?:help  q:quit"))
		out.WriteString("\n")
	}

	var foot []string
	if len(m.inputs) > 0 {
		foot = append(foot, "midi: "+strings.Join(m.inputs, ", "))
	}
	if st.Dropped > 0 {
		foot = append(foot, fmt.Sprintf("dropped:%d", st.Dropped))
	}
	if m.status != "" {
		foot = append(foot, m.status)
	}
	if len(foot) > 0 {
		out.WriteString(dimStyle.Render(strings.Join(foot, "  ")))
	}

	return out.String()
}

var keyHelp = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "play / stop"},
		{Key: "+ / -", Desc: "tempo"},
		{Key: "[ / ]", Desc: "master volume"},
		{Key: "m", Desc: "chain patterns"},
	}},
	{Title: "Edit", Keys: []widgets.KeyBinding{
		{Key: "hjkl", Desc: "move cursor"},
		{Key: "x / enter", Desc: "toggle step"},
		{Key: "1-4", Desc: "select pattern"},
		{Key: "c", Desc: "clear pattern"},
		{Key: "v/V p/P", Desc: "volume, pitch down/up"},
		{Key: "d/D n/N", Desc: "decay, pan down/up"},
		{Key: "a", Desc: "audition track"},
	}},
	{Title: "Project", Keys: []widgets.KeyBinding{
		{Key: "s", Desc: "save"},
		{Key: "L", Desc: "load latest save"},
		{Key: "q", Desc: "quit"},
	}},
}

func describe(err error) string {
	if errors.Is(err, sequencer.ErrNotReady) {
		return "no audio output"
	}
	return err.Error()
}

func chainString(order []int) string {
	parts := make([]string, len(order))
	for i, p := range order {
		parts[i] = fmt.Sprint(p + 1)
	}
	return strings.Join(parts, "→")
}

func remove(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
