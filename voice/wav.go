package voice

import (
	"fmt"
	"io"

	wav "github.com/youpy/go-wav"
)

// WriteWAV encodes b as 16-bit mono PCM
func WriteWAV(w io.Writer, b *Buffer) error {
	ww := wav.NewWriter(w, uint32(len(b.Samples)), 1, uint32(b.SampleRate), 16)

	samples := make([]wav.Sample, len(b.Samples))
	for i, s := range b.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		samples[i].Values[0] = int(s * 32767)
	}
	if err := ww.WriteSamples(samples); err != nil {
		return fmt.Errorf("write %s samples: %w", b.Type, err)
	}
	return nil
}
