package voice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cyberdrum/debug"
)

// Cache holds one rendered buffer per voice type for the current output
// rate. Reads are lock-free so the scheduling tick can call Get freely.
type Cache struct {
	rate    atomic.Int64
	buffers [NumTypes]atomic.Pointer[Buffer]
	noise   *NoiseSource

	prepareMu sync.Mutex // serializes render passes
}

// NewCache creates an empty cache for the given output rate
func NewCache(sampleRate int) *Cache {
	c := &Cache{noise: NewNoiseSource()}
	c.rate.Store(int64(sampleRate))
	return c
}

// SampleRate returns the rate buffers are rendered at
func (c *Cache) SampleRate() int {
	return int(c.rate.Load())
}

// Get returns the buffer for t, or false while it has not been rendered for
// the current rate.
func (c *Cache) Get(t Type) (*Buffer, bool) {
	if !t.Valid() {
		return nil, false
	}
	b := c.buffers[t].Load()
	if b == nil || int64(b.SampleRate) != c.rate.Load() {
		return nil, false
	}
	return b, true
}

// Ready reports how many voice types currently have a usable buffer
func (c *Cache) Ready() int {
	n := 0
	for i := 0; i < NumTypes; i++ {
		if _, ok := c.Get(Type(i)); ok {
			n++
		}
	}
	return n
}

// SetSampleRate switches the output rate. Buffers rendered at the old rate
// stop being served until Prepare runs again.
func (c *Cache) SetSampleRate(sampleRate int) {
	if int64(sampleRate) == c.rate.Swap(int64(sampleRate)) {
		return
	}
	debug.Log("voice", "sample rate changed to %d, cache invalidated", sampleRate)
}

// Prepare renders every voice type that is missing, concurrently and off the
// real-time path. Types already rendered at the current rate are kept.
func (c *Cache) Prepare(ctx context.Context) error {
	c.prepareMu.Lock()
	defer c.prepareMu.Unlock()

	rate := c.SampleRate()
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range Types() {
		if _, ok := c.Get(t); ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := Render(t, rate, c.noise)
			if err != nil {
				return fmt.Errorf("render %s: %w", t, err)
			}
			c.buffers[t].Store(buf)
			debug.Log("voice", "rendered %s: %d frames @ %dHz peak=%.3f", t, len(buf.Samples), rate, buf.Peak())
			return nil
		})
	}
	return g.Wait()
}
