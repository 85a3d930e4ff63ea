package sequencer

import (
	"errors"
	"fmt"
	"sync"
)

// MaxChain bounds the length of a chain order
const MaxChain = 16

// ErrInvalidPattern is returned for a pattern index outside the bank
var ErrInvalidPattern = errors.New("invalid pattern index")

// Pattern is one bank slot: a bit per track per step
type Pattern [NumTracks][NumSteps]bool

// Empty reports whether no step is enabled
func (p Pattern) Empty() bool {
	for _, row := range p {
		for _, on := range row {
			if on {
				return false
			}
		}
	}
	return true
}

// Snapshot is a plain copy of the sequencer data, safe to marshal and to hand
// across goroutines.
type Snapshot struct {
	Tempo        float64                `json:"tempo"`
	MasterVolume float64                `json:"masterVolume"`
	Active       int                    `json:"active"`
	Patterns     [NumPatterns]Pattern   `json:"patterns"`
	Params       [NumTracks]TrackParams `json:"params"`
	Chain        bool                   `json:"chain"`
	ChainOrder   []int                  `json:"chainOrder,omitempty"`
}

// DefaultSnapshot returns an empty bank at the default tempo
func DefaultSnapshot() Snapshot {
	s := Snapshot{
		Tempo:        DefaultTempo,
		MasterVolume: DefaultMasterVolume,
	}
	for i, def := range Tracks {
		s.Params[i] = DefaultParams(def)
	}
	return s
}

// normalize clamps every field so a snapshot from disk can be trusted
func (s *Snapshot) normalize() {
	s.Tempo = ClampTempo(s.Tempo)
	s.MasterVolume = clampMaster(s.MasterVolume)
	if s.Active < 0 || s.Active >= NumPatterns {
		s.Active = 0
	}
	for i := range s.Params {
		s.Params[i] = s.Params[i].Clamped()
	}
	s.ChainOrder = cleanChain(s.ChainOrder)
}

func cleanChain(order []int) []int {
	var out []int
	for _, p := range order {
		if p < 0 || p >= NumPatterns {
			continue
		}
		if len(out) == MaxChain {
			break
		}
		out = append(out, p)
	}
	return out
}

// State is the live sequencer data. The editor writes it, the scheduler reads
// it once per tick; both go through the lock.
type State struct {
	mu sync.RWMutex
	s  Snapshot
}

// NewState creates a state holding DefaultSnapshot
func NewState() *State {
	return &State{s: DefaultSnapshot()}
}

// Snapshot returns a deep copy of the current data
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.s
	s.ChainOrder = append([]int(nil), st.s.ChainOrder...)
	return s
}

// Restore replaces all data with s, clamped
func (st *State) Restore(s Snapshot) {
	s.ChainOrder = append([]int(nil), s.ChainOrder...)
	s.normalize()
	st.mu.Lock()
	st.s = s
	st.mu.Unlock()
}

func (st *State) Tempo() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Tempo
}

// SetTempo stores bpm clamped to the tempo range and returns the stored value
func (st *State) SetTempo(bpm float64) float64 {
	bpm = ClampTempo(bpm)
	st.mu.Lock()
	st.s.Tempo = bpm
	st.mu.Unlock()
	return bpm
}

func (st *State) MasterVolume() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.MasterVolume
}

// SetMasterVolume stores v clamped to [0, 100] and returns the stored value
func (st *State) SetMasterVolume(v float64) float64 {
	v = clampMaster(v)
	st.mu.Lock()
	st.s.MasterVolume = v
	st.mu.Unlock()
	return v
}

// ActivePattern returns the pattern being edited and played
func (st *State) ActivePattern() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Active
}

// SelectPattern makes p the active pattern
func (st *State) SelectPattern(p int) error {
	if p < 0 || p >= NumPatterns {
		return fmt.Errorf("%w: %d", ErrInvalidPattern, p)
	}
	st.mu.Lock()
	st.s.Active = p
	st.mu.Unlock()
	return nil
}

// Toggle flips one step of the active pattern and returns its new value.
// Out-of-range coordinates are ignored.
func (st *State) Toggle(track, step int) bool {
	if !validCell(track, step) {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	cell := &st.s.Patterns[st.s.Active][track][step]
	*cell = !*cell
	return *cell
}

// Step reports whether a step is enabled in pattern p
func (st *State) Step(p, track, step int) bool {
	if p < 0 || p >= NumPatterns || !validCell(track, step) {
		return false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Patterns[p][track][step]
}

// Pattern returns a copy of pattern p
func (st *State) Pattern(p int) Pattern {
	if p < 0 || p >= NumPatterns {
		return Pattern{}
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Patterns[p]
}

// ClearPattern empties the active pattern only
func (st *State) ClearPattern() {
	st.mu.Lock()
	st.s.Patterns[st.s.Active] = Pattern{}
	st.mu.Unlock()
}

// Params returns the parameters of a track
func (st *State) Params(track int) TrackParams {
	if track < 0 || track >= NumTracks {
		return TrackParams{}
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Params[track]
}

// SetParam writes one parameter of a track, clamped, and returns the result
func (st *State) SetParam(track int, which Param, v float64) TrackParams {
	if track < 0 || track >= NumTracks {
		return TrackParams{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Params[track] = st.s.Params[track].With(which, v)
	return st.s.Params[track]
}

// AdjustParam adds delta to one parameter of a track
func (st *State) AdjustParam(track int, which Param, delta float64) TrackParams {
	if track < 0 || track >= NumTracks {
		return TrackParams{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	p := st.s.Params[track]
	st.s.Params[track] = p.With(which, p.Get(which)+delta)
	return st.s.Params[track]
}

// Chain reports whether chain mode is on and the order it plays
func (st *State) Chain() (bool, []int) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Chain, append([]int(nil), st.s.ChainOrder...)
}

func (st *State) SetChain(on bool) {
	st.mu.Lock()
	st.s.Chain = on
	st.mu.Unlock()
}

// SetChainOrder replaces the chain order. Every entry must be a valid pattern.
func (st *State) SetChainOrder(order []int) error {
	if len(order) > MaxChain {
		return fmt.Errorf("chain order too long: %d > %d", len(order), MaxChain)
	}
	for _, p := range order {
		if p < 0 || p >= NumPatterns {
			return fmt.Errorf("%w: %d in chain order", ErrInvalidPattern, p)
		}
	}
	st.mu.Lock()
	st.s.ChainOrder = append([]int(nil), order...)
	st.mu.Unlock()
	return nil
}

// ContentMask reports which patterns hold at least one step
func (st *State) ContentMask() [NumPatterns]bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var mask [NumPatterns]bool
	for i := range st.s.Patterns {
		mask[i] = !st.s.Patterns[i].Empty()
	}
	return mask
}

// tickView is what the scheduler needs for one tick, copied without allocating
type tickView struct {
	tempo    float64
	master   float64
	active   int
	chain    bool
	order    [MaxChain]int
	orderLen int
	patterns [NumPatterns]Pattern
	params   [NumTracks]TrackParams
}

func (st *State) load(v *tickView) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	v.tempo = st.s.Tempo
	v.master = st.s.MasterVolume
	v.active = st.s.Active
	v.chain = st.s.Chain
	v.orderLen = copy(v.order[:], st.s.ChainOrder)
	v.patterns = st.s.Patterns
	v.params = st.s.Params
}

func validCell(track, step int) bool {
	return track >= 0 && track < NumTracks && step >= 0 && step < NumSteps
}
