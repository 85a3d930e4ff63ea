package audio

import (
	"context"
	"sync"
	"time"
)

// HeadlessDevice drives a mixer from the wall clock and discards the audio.
// It stands in for a sound card on machines without one.
type HeadlessDevice struct {
	*Mixer
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// OpenHeadless starts pumping a mixer every period
func OpenHeadless(sampleRate int, period time.Duration) *HeadlessDevice {
	ctx, cancel := context.WithCancel(context.Background())
	d := &HeadlessDevice{
		Mixer:  NewMixer(sampleRate),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run(ctx, period)
	return d
}

func (d *HeadlessDevice) run(ctx context.Context, period time.Duration) {
	defer close(d.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	buf := make([]float32, d.sampleRate/10)
	var produced int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due := int64(time.Since(start).Seconds() * float64(d.sampleRate))
			for produced < due {
				n := min(int64(len(buf)), due-produced)
				d.Process(buf[:n])
				produced += n
			}
		}
	}
}

func (d *HeadlessDevice) Close() error {
	d.once.Do(func() {
		d.cancel()
		<-d.done
	})
	return nil
}
