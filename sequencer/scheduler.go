package sequencer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cyberdrum/audio"
	"cyberdrum/debug"
	"cyberdrum/voice"
)

// Look-ahead timing. The tick interval is much shorter than the horizon so a
// late tick still finds its triggers already committed.
const (
	LookaheadInterval = 25 * time.Millisecond
	ScheduleAhead     = 0.1 // seconds

	// resyncLag is how far the cursor may fall behind the clock (a suspended
	// process, a stalled device) before it jumps forward instead of replaying
	// the missed steps in one burst.
	resyncLag = 1.0
)

// ErrNotReady is returned by Start when there is no audio clock to schedule
// against.
var ErrNotReady = errors.New("scheduler not ready")

// Trigger is one resolved playback decision
type Trigger struct {
	Track   int
	Step    int
	Pattern int
	Voice   voice.Type
	Buffer  *voice.Buffer
	Time    float64 // absolute audio clock time
	Params  TrackParams
	Master  float64 // 0-100
}

// TriggerHandler receives triggers from the scheduling tick. It must not block.
type TriggerHandler interface {
	Trigger(t Trigger)
}

// Handlers fans one trigger out to several handlers
type Handlers []TriggerHandler

func (h Handlers) Trigger(t Trigger) {
	for _, x := range h {
		if x != nil {
			x.Trigger(t)
		}
	}
}

// BufferSource resolves a voice to its rendered buffer
type BufferSource interface {
	Get(t voice.Type) (*voice.Buffer, bool)
}

// Position is the step the cursor will play next
type Position struct {
	Step    int
	Pattern int
}

// SchedulerState is the playback cursor. NextTime never decreases while
// running.
type SchedulerState struct {
	Step     int
	NextTime float64
	Running  bool
	ChainPos int
}

// Scheduler is the look-ahead trigger scheduler. It wakes every
// LookaheadInterval and commits every step whose time falls inside the
// ScheduleAhead horizon to the handler.
type Scheduler struct {
	state   *State
	clock   audio.Clock
	buffers BufferSource
	handler TriggerHandler

	mu   sync.Mutex
	cur  SchedulerState
	view tickView
	stop chan struct{}
	done chan struct{}

	positions chan Position
	dropped   atomic.Int64
	interval  time.Duration
}

// NewScheduler wires a scheduler. clock may be nil, in which case Start fails
// with ErrNotReady.
func NewScheduler(state *State, clock audio.Clock, buffers BufferSource, handler TriggerHandler) *Scheduler {
	return &Scheduler{
		state:     state,
		clock:     clock,
		buffers:   buffers,
		handler:   handler,
		positions: make(chan Position, 1),
		interval:  LookaheadInterval,
	}
}

// Start begins playback at step 0 aligned to the current clock time and
// starts the tick loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	stop, err := s.begin()
	if err != nil || stop == nil {
		return err
	}
	done := make(chan struct{})
	s.mu.Lock()
	if s.stop == stop {
		s.done = done
	}
	s.mu.Unlock()
	go s.loop(stop, done)
	return nil
}

// begin performs the state transition of Start without launching the loop
func (s *Scheduler) begin() (chan struct{}, error) {
	if s.clock == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, audio.ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Running {
		return nil, nil
	}

	s.cur = SchedulerState{
		Step:     0,
		NextTime: s.clock.Now(),
		Running:  true,
	}
	s.stop = make(chan struct{})
	debug.Log("sched", "start at t=%.3f", s.cur.NextTime)
	return s.stop, nil
}

// Stop halts the tick loop. Triggers already handed to the output are not
// retracted. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.cur.Running {
		s.mu.Unlock()
		return
	}
	s.cur.Running = false
	s.cur.Step = 0
	s.cur.ChainPos = 0
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	close(stop)
	if done != nil {
		<-done
	}
	s.report(Position{Step: 0, Pattern: s.state.ActivePattern()})
	debug.Log("sched", "stop")
}

func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs one look-ahead pass. It is called by the loop and may be called
// directly against a manual clock.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if !s.cur.Running {
		s.mu.Unlock()
		return
	}

	s.state.load(&s.view)
	secondsPerStep := 60 / ClampTempo(s.view.tempo) / 4
	now := s.clock.Now()

	if now-s.cur.NextTime > resyncLag {
		debug.LogEvery(10, "sched", "cursor %.3fs behind clock, resyncing", now-s.cur.NextTime)
		s.cur.NextTime = now
	}

	for s.cur.NextTime < now+ScheduleAhead {
		s.emit(s.playing(), s.cur.Step, s.cur.NextTime)
		s.cur.Step = (s.cur.Step + 1) % NumSteps
		s.cur.NextTime += secondsPerStep
		if s.cur.Step == 0 && s.view.chain && s.view.orderLen > 0 {
			s.cur.ChainPos = (s.cur.ChainPos + 1) % s.view.orderLen
		}
	}

	pos := Position{Step: s.cur.Step, Pattern: s.playing()}
	s.mu.Unlock()

	s.report(pos)
}

// playing returns the pattern the cursor reads from. In chain mode that is
// the chain entry under the cursor; the owner's active pattern is untouched.
func (s *Scheduler) playing() int {
	if s.view.chain && s.view.orderLen > 0 {
		return s.view.order[s.cur.ChainPos%s.view.orderLen]
	}
	return s.view.active
}

func (s *Scheduler) emit(pattern, step int, at float64) {
	for track := range NumTracks {
		if !s.view.patterns[pattern][track][step] {
			continue
		}
		def := Tracks[track]
		buf, ok := s.buffers.Get(def.Voice)
		if !ok {
			s.dropped.Add(1)
			debug.LogEvery(20, "sched", "no buffer for %s, trigger skipped", def.Voice)
			continue
		}
		s.handler.Trigger(Trigger{
			Track:   track,
			Step:    step,
			Pattern: pattern,
			Voice:   def.Voice,
			Buffer:  buf,
			Time:    at,
			Params:  s.view.params[track].Clamped(),
			Master:  clampMaster(s.view.master),
		})
	}
}

// report publishes pos, replacing an unread older value
func (s *Scheduler) report(pos Position) {
	select {
	case <-s.positions:
	default:
	}
	select {
	case s.positions <- pos:
	default:
	}
}

// Positions delivers the step about to play after every tick. Only the newest
// value is kept.
func (s *Scheduler) Positions() <-chan Position {
	return s.positions
}

// State returns a copy of the cursor
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Running reports whether playback is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Running
}

// Dropped counts triggers skipped because their buffer was not ready
func (s *Scheduler) Dropped() int64 {
	return s.dropped.Load()
}
