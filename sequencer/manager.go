package sequencer

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"

	"cyberdrum/audio"
	"cyberdrum/config"
	"cyberdrum/debug"
	"cyberdrum/midi"
	"cyberdrum/voice"
)

// configSaveDelay coalesces bursts of setting changes into one write
const configSaveDelay = 500 * time.Millisecond

// mirrorNoteLength is how long mirrored MIDI notes are held
const mirrorNoteLength = 50 * time.Millisecond

// Status is what the UI shows about the transport
type Status struct {
	Playing  bool
	Position Position
	Tempo    float64
	Master   float64
	Active   int
	Chain    bool
	Ready    int   // voices rendered
	Dropped  int64 // triggers skipped or refused
	Project  string
}

// Manager owns the state, the voice cache, the scheduler and the player, and
// is the only API the front end talks to.
type Manager struct {
	State *State

	cfg     *config.Config
	cfgMu   sync.Mutex
	persist func(func())

	out     audio.Output
	clock   audio.Clock
	cache   *voice.Cache
	player  *Player
	sched   *Scheduler
	mirror  atomic.Pointer[midi.Mirror]
	store   Store
	project Project

	pos    atomic.Pointer[Position]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires a manager around an output. out may be nil when no audio
// device could be opened: editing still works and Play reports ErrNotReady.
// cfg may be nil, in which case nothing is persisted.
func NewManager(cfg *config.Config, out audio.Output) *Manager {
	sampleRate := config.DefaultConfig().Audio.SampleRate
	if cfg != nil {
		sampleRate = cfg.Audio.SampleRate
	}
	if dev, ok := out.(interface{ SampleRate() int }); ok {
		sampleRate = dev.SampleRate()
	}

	m := &Manager{
		State:      NewState(),
		cfg:        cfg,
		out:        out,
		cache:      voice.NewCache(sampleRate),
		player:     NewPlayer(out),
		UpdateChan: make(chan struct{}, 1),
	}
	if out != nil {
		m.clock = out
	}
	m.sched = NewScheduler(m.State, m.clock, m.cache, m)

	if cfg != nil {
		m.persist = debounce.New(configSaveDelay)
		m.State.SetTempo(float64(cfg.UI.LastTempo))
		m.State.SetMasterVolume(cfg.Audio.MasterVolume)
		if err := m.State.SelectPattern(cfg.UI.LastPattern); err != nil {
			debug.Log("config", "last pattern %d: %v", cfg.UI.LastPattern, err)
		}
	}
	if store, err := DefaultStore(); err == nil {
		m.store = store
	}
	return m
}

// Start renders the voices and starts the runtime goroutines (called once at
// startup).
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.ctx = ctx

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := m.cache.Prepare(ctx); err != nil {
			debug.Log("voice", "prepare: %v", err)
		}
		m.notifyUpdate()
	}()
	go func() {
		defer m.wg.Done()
		m.positionLoop(ctx)
	}()
}

// positionLoop forwards the scheduler's step reports to the UI
func (m *Manager) positionLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pos := <-m.sched.Positions():
			m.pos.Store(&pos)
			m.notifyUpdate()
		}
	}
}

// ListenMIDI previews tracks for incoming GM drum notes until notes closes
// or the manager shuts down. Call after Start.
func (m *Manager) ListenMIDI(notes <-chan midi.NoteEvent) {
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-notes:
				if !ok {
					return
				}
				m.HandleNote(ev)
			}
		}
	}()
}

// HandleNote plays the track mapped to a note, if any
func (m *Manager) HandleNote(ev midi.NoteEvent) bool {
	track, ok := TrackForNote(ev.Note)
	if !ok {
		debug.Log("midi", "note %d from %s not mapped", ev.Note, ev.Port)
		return false
	}
	return m.Preview(track)
}

// SetMirror attaches (or with nil detaches) the MIDI trigger mirror
func (m *Manager) SetMirror(mir *midi.Mirror) {
	m.mirror.Store(mir)
}

// Trigger implements TriggerHandler: every trigger goes to the player and,
// when attached, to the MIDI mirror.
func (m *Manager) Trigger(t Trigger) {
	m.player.Trigger(t)

	mir := m.mirror.Load()
	if mir == nil || m.clock == nil {
		return
	}
	delay := time.Duration((t.Time - m.clock.Now()) * float64(time.Second))
	mir.Send(midi.Hit{
		Note:     Tracks[t.Track].Note,
		Velocity: midi.Velocity(t.Params.Volume * t.Master / 100),
		At:       time.Now().Add(delay),
		Length:   mirrorNoteLength,
	})
}

// Play starts playback
func (m *Manager) Play() error {
	if err := m.sched.Start(); err != nil {
		return err
	}
	m.notifyUpdate()
	return nil
}

// Stop stops playback
func (m *Manager) Stop() {
	m.sched.Stop()
	m.notifyUpdate()
}

// TogglePlay starts or stops playback
func (m *Manager) TogglePlay() error {
	if m.sched.Running() {
		m.Stop()
		return nil
	}
	return m.Play()
}

func (m *Manager) Playing() bool {
	return m.sched.Running()
}

// Preview plays one track immediately with its current parameters
func (m *Manager) Preview(track int) bool {
	if track < 0 || track >= NumTracks || m.clock == nil {
		return false
	}
	def := Tracks[track]
	buf, ok := m.cache.Get(def.Voice)
	if !ok {
		return false
	}
	m.Trigger(Trigger{
		Track:   track,
		Step:    -1,
		Pattern: m.State.ActivePattern(),
		Voice:   def.Voice,
		Buffer:  buf,
		Time:    m.clock.Now(),
		Params:  m.State.Params(track),
		Master:  m.State.MasterVolume(),
	})
	return true
}

// SetTempo sets and persists the tempo, returning the clamped value
func (m *Manager) SetTempo(bpm float64) float64 {
	bpm = m.State.SetTempo(bpm)
	m.updateConfig(func(c *config.Config) { c.UI.LastTempo = int(math.Round(bpm)) })
	m.notifyUpdate()
	return bpm
}

// AdjustTempo nudges the tempo by delta bpm
func (m *Manager) AdjustTempo(delta float64) float64 {
	return m.SetTempo(m.State.Tempo() + delta)
}

// SetMasterVolume sets and persists the master volume (0-100)
func (m *Manager) SetMasterVolume(v float64) float64 {
	v = m.State.SetMasterVolume(v)
	m.updateConfig(func(c *config.Config) { c.Audio.MasterVolume = v })
	m.notifyUpdate()
	return v
}

// SelectPattern switches the active pattern and persists the choice
func (m *Manager) SelectPattern(p int) error {
	if err := m.State.SelectPattern(p); err != nil {
		return err
	}
	m.updateConfig(func(c *config.Config) { c.UI.LastPattern = p })
	m.notifyUpdate()
	return nil
}

// ToggleChain flips chain mode. An empty chain order is filled with every
// pattern that has content.
func (m *Manager) ToggleChain() bool {
	on, order := m.State.Chain()
	on = !on
	if on && len(order) == 0 {
		mask := m.State.ContentMask()
		for i, used := range mask {
			if used {
				order = append(order, i)
			}
		}
		if len(order) == 0 {
			order = []int{m.State.ActivePattern()}
		}
		m.State.SetChainOrder(order)
	}
	m.State.SetChain(on)
	m.notifyUpdate()
	return on
}

// GetState returns the transport status
func (m *Manager) GetState() Status {
	on, _ := m.State.Chain()
	st := Status{
		Playing: m.sched.Running(),
		Tempo:   m.State.Tempo(),
		Master:  m.State.MasterVolume(),
		Active:  m.State.ActivePattern(),
		Chain:   on,
		Ready:   m.cache.Ready(),
		Dropped: m.sched.Dropped() + m.player.Dropped(),
		Project: m.project.Name,
	}
	if p := m.pos.Load(); p != nil && st.Playing {
		st.Position = *p
	} else {
		st.Position = Position{Step: -1, Pattern: st.Active}
	}
	return st
}

// Scheduler exposes the trigger scheduler
func (m *Manager) Scheduler() *Scheduler {
	return m.sched
}

// Cache exposes the voice cache
func (m *Manager) Cache() *voice.Cache {
	return m.cache
}

// SetStore overrides where projects are kept
func (m *Manager) SetStore(s Store) {
	m.store = s
}

// SaveProject writes the current bank as a new save of the named project
func (m *Manager) SaveProject(name, label string) (SaveInfo, error) {
	if name != "" && name != m.project.Name {
		m.project = Project{Name: name}
	}
	m.project.State = m.State.Snapshot()
	info, err := m.store.Save(&m.project, label)
	if err != nil {
		return SaveInfo{}, err
	}
	debug.Log("config", "saved project %s (%s) to %s", m.project.Name, m.project.ID, info.Filename)
	m.notifyUpdate()
	return info, nil
}

// LoadProject replaces the bank with a save (newest if filename is empty)
func (m *Manager) LoadProject(name, filename string) error {
	p, err := m.store.Load(name, filename)
	if err != nil {
		return err
	}
	m.State.Restore(p.State)
	m.project = *p
	debug.Log("config", "loaded project %s (%s)", p.Name, p.ID)
	m.notifyUpdate()
	return nil
}

// updateConfig applies fn to the config and schedules a debounced save of a
// copy, so the writer never races the editor.
func (m *Manager) updateConfig(fn func(c *config.Config)) {
	if m.cfg == nil {
		return
	}
	m.cfgMu.Lock()
	fn(m.cfg)
	snapshot := *m.cfg
	m.cfgMu.Unlock()

	m.persist(func() {
		if err := snapshot.Save(); err != nil {
			debug.Log("config", "save: %v", err)
		}
	})
}

// notifyUpdate signals the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Close stops playback and the runtime goroutines and writes the config
func (m *Manager) Close() error {
	m.sched.Stop()
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	if m.cfg == nil {
		return nil
	}
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	return m.cfg.Save()
}
