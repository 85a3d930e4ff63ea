package voice

import (
	"math/rand/v2"
	"sync"
)

// NoiseSource produces buffers of independent uniform samples in [-1, 1].
type NoiseSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNoiseSource seeds from the runtime's entropy
func NewNoiseSource() *NoiseSource {
	return &NoiseSource{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededNoiseSource gives reproducible noise
func NewSeededNoiseSource(seed uint64) *NoiseSource {
	return &NoiseSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns round(seconds*sampleRate) samples
func (n *NoiseSource) Generate(seconds float64, sampleRate int) []float32 {
	count := int(seconds*float64(sampleRate) + 0.5)
	if count < 0 {
		count = 0
	}
	buf := make([]float32, count)

	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range buf {
		buf[i] = float32(n.rng.Float64()*2 - 1)
	}
	return buf
}
