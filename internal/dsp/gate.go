package dsp

import "math"

// NoiseGate is a peak-follower envelope gate per spec §4.3: exponential
// attack (1 ms) and release (100 ms), hard-gated output (input when the
// envelope exceeds the linear threshold, else silence). Threshold changes
// take effect immediately; the envelope itself is never reset implicitly,
// matching the spec's explicit invariant.
type NoiseGate struct {
	attackCoeff  float64
	releaseCoeff float64
	envelope     float64
}

func NewNoiseGate(sampleRate float64) *NoiseGate {
	return &NoiseGate{
		attackCoeff:  envelopeCoeff(1, sampleRate),
		releaseCoeff: envelopeCoeff(100, sampleRate),
	}
}

// envelopeCoeff converts a time constant in milliseconds to a per-sample
// exponential coefficient: exp(-1 / (ms * sr / 1000)).
func envelopeCoeff(ms, sampleRate float64) float64 {
	return math.Exp(-1 / (ms * sampleRate / 1000))
}

// Process gates buf[:n] in place against thresholdDB (decibels, linear
// internally).
func (g *NoiseGate) Process(buf []float32, n int, thresholdDB float64) {
	thresholdLinear := DBToLinear(thresholdDB)

	for i := 0; i < n; i++ {
		absX := math.Abs(float64(buf[i]))
		if absX > g.envelope {
			g.envelope = g.attackCoeff*g.envelope + (1-g.attackCoeff)*absX
		} else {
			g.envelope = g.releaseCoeff*g.envelope + (1-g.releaseCoeff)*absX
		}

		if g.envelope <= thresholdLinear {
			buf[i] = 0
		}
	}
}

// DBToLinear converts decibels to a linear amplitude multiplier. Duplicated
// (rather than imported) from paramplane.DBToLinear so dsp stays free of any
// dependency on the parameter plane — it is pure signal math.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
