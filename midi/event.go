package midi

import "time"

// DrumChannel is the General MIDI percussion channel (1-based)
const DrumChannel = 10

// Hit is a note to be played at a wall-clock time and released Length later
type Hit struct {
	Note     uint8
	Velocity uint8
	At       time.Time
	Length   time.Duration
}

// Velocity maps a linear gain (1.0 = full) to a MIDI velocity in [1, 127]
func Velocity(gain float64) uint8 {
	v := int(gain*127 + 0.5)
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
