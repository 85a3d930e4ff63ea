package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamHoldsInitialValue(t *testing.T) {
	p := NewParam(0.7)
	assert.Equal(t, 0.7, p.At(0))
	assert.Equal(t, 0.7, p.At(3))
}

func TestParamExponentialRamp(t *testing.T) {
	p := NewParam(1)
	p.SetValueAt(1, 0).ExpRampTo(0.01, 1)

	assert.InDelta(t, 1.0, p.At(0), 1e-12)
	assert.InDelta(t, 0.1, p.At(0.5), 1e-9) // geometric midpoint
	assert.InDelta(t, 0.01, p.At(1), 1e-12)
	assert.InDelta(t, 0.01, p.At(2), 1e-12)
}

func TestParamRampNeverTargetsZero(t *testing.T) {
	p := NewParam(1)
	p.SetValueAt(1, 0).ExpRampTo(0, 0.1)
	assert.InDelta(t, Floor, p.At(0.1), 1e-12)
	assert.Greater(t, p.At(0.05), 0.0)
}

func TestParamSetAtRampEndJumps(t *testing.T) {
	p := NewParam(0)
	p.SetValueAt(0.5, 0.01).ExpRampTo(0.1, 0.02)
	p.SetValueAt(0.5, 0.02).ExpRampTo(0.1, 0.03)

	assert.Equal(t, 0.0, p.At(0.005))
	assert.Equal(t, 0.5, p.At(0.01))
	assert.Equal(t, 0.5, p.At(0.02))
	assert.InDelta(t, 0.1, p.At(0.03), 1e-12)
}

func TestParamEventsOutOfOrder(t *testing.T) {
	p := NewParam(1)
	p.ExpRampTo(0.25, 2)
	p.SetValueAt(1, 0)
	assert.InDelta(t, 0.5, p.At(1), 1e-9)
}
