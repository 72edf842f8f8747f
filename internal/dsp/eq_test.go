package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// At 0dB on all three bands the EQ is an allpass: it may shift phase but
// must not change the long-run RMS of a steady sine.
func TestThreeBandEQUnityGainPreservesRMS(t *testing.T) {
	const sampleRate = 48000.0
	eq := NewThreeBandEQ(sampleRate)

	n := 4800
	buf := make([]float32, n)
	freq := 440.0
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}

	var rmsBefore float64
	for _, v := range buf {
		rmsBefore += float64(v) * float64(v)
	}
	rmsBefore = math.Sqrt(rmsBefore / float64(n))

	eq.Process(buf, n, 0, 0, 0)

	// Discard the filter's settling period before measuring.
	tail := buf[n/2:]
	var rmsAfter float64
	for _, v := range tail {
		rmsAfter += float64(v) * float64(v)
	}
	rmsAfter = math.Sqrt(rmsAfter / float64(len(tail)))

	assert.InDelta(t, rmsBefore, rmsAfter, 0.05)
}

func TestThreeBandEQBoostIncreasesLowFrequencyEnergy(t *testing.T) {
	const sampleRate = 48000.0
	flat := NewThreeBandEQ(sampleRate)
	boosted := NewThreeBandEQ(sampleRate)

	n := 4800
	makeTone := func() []float32 {
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / sampleRate))
		}
		return buf
	}

	flatBuf := makeTone()
	boostedBuf := makeTone()
	flat.Process(flatBuf, n, 0, 0, 0)
	boosted.Process(boostedBuf, n, 12, 0, 0)

	sumSq := func(buf []float32) float64 {
		var s float64
		for _, v := range buf[n/2:] {
			s += float64(v) * float64(v)
		}
		return s
	}

	assert.Greater(t, sumSq(boostedBuf), sumSq(flatBuf))
}
