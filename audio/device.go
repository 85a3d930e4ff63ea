package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"cyberdrum/debug"
)

// maxBuffer bounds the audio oto may pull ahead of the speaker. It must stay
// well under the scheduler's look-ahead or steps land in audio already mixed.
const maxBuffer = 40 * time.Millisecond

// OtoDevice plays the mixer through the system output
type OtoDevice struct {
	*Mixer
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

// Open acquires the system output. Failure is reported as ErrUnavailable.
func Open(sampleRate int, buffer time.Duration) (*OtoDevice, error) {
	buffer = min(max(buffer, time.Millisecond), maxBuffer)
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-ready

	mix := NewMixer(sampleRate)
	d := &OtoDevice{
		Mixer:  mix,
		ctx:    ctx,
		player: ctx.NewPlayer(mix),
	}
	// oto's default player buffer is half a second
	d.player.SetBufferSize(PlayerBufferBytes(sampleRate, buffer))
	d.player.Play()
	debug.Log("audio", "oto output open: %dHz buffer=%s", sampleRate, buffer)
	return d, nil
}

// Resume restarts a suspended output
func (d *OtoDevice) Resume() error {
	return d.ctx.Resume()
}

func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	if err := d.ctx.Suspend(); err != nil {
		debug.Log("audio", "suspend: %v", err)
	}
	return err
}

// PlayerBufferBytes sizes oto's player buffer for buffer of float32 mono audio
func PlayerBufferBytes(sampleRate int, buffer time.Duration) int {
	frames := max(1, int(float64(sampleRate)*buffer.Seconds()))
	return frames * 4
}
