package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseGateSilencesBelowThreshold(t *testing.T) {
	g := NewNoiseGate(48000)
	buf := make([]float32, 2000)
	for i := range buf {
		buf[i] = 0.001 // well below any reasonable gate threshold
	}
	g.Process(buf, len(buf), -40)

	for _, v := range buf[len(buf)-10:] {
		assert.Equal(t, float32(0), v)
	}
}

func TestNoiseGatePassesAboveThreshold(t *testing.T) {
	g := NewNoiseGate(48000)
	buf := make([]float32, 2000)
	for i := range buf {
		buf[i] = 0.9
	}
	g.Process(buf, len(buf), -40)

	assert.NotEqual(t, float32(0), buf[len(buf)-1])
}

func TestDBToLinearZeroIsUnity(t *testing.T) {
	assert.InDelta(t, 1.0, DBToLinear(0), 1e-9)
}
