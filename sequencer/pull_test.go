package sequencer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberdrum/audio"
)

// lateCounter counts playbacks whose start was already rendered when they
// reached the mixer
type lateCounter struct {
	*audio.Mixer
	total, late int
}

func (c *lateCounter) Schedule(p audio.Playback) bool {
	c.total++
	if p.Start < c.Mixer.Now()-1e-9 {
		c.late++
	}
	return c.Mixer.Schedule(p)
}

// TestDevicePullKeepsTriggersAhead drives the mixer the way oto does: the
// player tops its buffer up with large reads whenever playback drains it,
// while the scheduler ticks every 25ms against the mixer clock.
func TestDevicePullKeepsTriggersAhead(t *testing.T) {
	const sr = 8000
	bufBytes := audio.PlayerBufferBytes(sr, 20*time.Millisecond)
	bufFrames := int64(bufBytes / 4)

	st := NewState()
	st.SetTempo(120)
	fullRow(st, 0)

	out := &lateCounter{Mixer: audio.NewMixer(sr)}
	s := NewScheduler(st, out, fakeBuffers{}, NewPlayer(out))
	_, err := s.begin()
	require.NoError(t, err)

	// oto reads with a slice the size of its default half-second buffer
	chunk := make([]byte, sr/2*4)
	produced := func() int64 { return int64(math.Round(out.Now() * sr)) }

	var played int64
	for tickN := 0; tickN < 80; tickN++ {
		s.Tick()
		played += sr * 25 / 1000
		for produced()-played < bufFrames {
			n, err := out.Read(chunk)
			require.NoError(t, err)
			require.Positive(t, n)
		}
	}

	assert.GreaterOrEqual(t, out.total, 16)
	assert.Zero(t, out.late)
}
