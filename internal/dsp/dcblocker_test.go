package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDCBlockerConvergesOnConstantInput(t *testing.T) {
	d := NewDCBlocker(48000)
	buf := make([]float32, 48000) // 1s at 48kHz
	for i := range buf {
		buf[i] = 1.0
	}
	d.Process(buf, len(buf))

	// After ~1s a 10Hz-cutoff blocker should have collapsed a DC input by
	// at least 40dB (linear factor 0.01).
	assert.Less(t, absF32(buf[len(buf)-1]), float32(0.01))
}

func TestDCBlockerResetClearsMemory(t *testing.T) {
	d := NewDCBlocker(48000)
	buf := []float32{1, 1, 1, 1}
	d.Process(buf, len(buf))
	d.Reset()

	fresh := []float32{0, 0, 0}
	d.Process(fresh, len(fresh))
	for _, v := range fresh {
		assert.Equal(t, float32(0), v)
	}
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
