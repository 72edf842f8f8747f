package dsp

// ThreeBandEQ cascades three RBJ biquads per spec §4.3: a low shelf @ 120 Hz,
// a peaking band @ 750 Hz, and a high shelf @ 3000 Hz, each Q as documented.
// Gains are expected to already be clamped to +/-20 dB and smoothed by the
// caller (paramplane.SmoothedGain) before being passed to Process; the
// source's "coeffsDirty, recompute once" optimisation collapses here to an
// unconditional per-period recompute, since the smoothed gain can still be
// moving every period and the three RBJ formulas are cheap relative to the
// 128-sample period budget.
type ThreeBandEQ struct {
	sampleRate float64
	low        Biquad
	mid        Biquad
	high       Biquad
}

const (
	lowShelfFreq  = 120.0
	lowShelfQ     = 0.707
	peakingFreq   = 750.0
	peakingQ      = 1.0
	highShelfFreq = 3000.0
	highShelfQ    = 0.707
)

func NewThreeBandEQ(sampleRate float64) *ThreeBandEQ {
	eq := &ThreeBandEQ{sampleRate: sampleRate}
	eq.Recompute(0, 0, 0)
	return eq
}

// Recompute rebuilds the three biquads' coefficients for the given band
// gains in dB. It does not reset filter state, so it is safe to call every
// period while gains are still ramping.
func (eq *ThreeBandEQ) Recompute(bassDB, midDB, trebleDB float64) {
	eq.low.SetLowShelf(lowShelfFreq, eq.sampleRate, lowShelfQ, bassDB)
	eq.mid.SetPeaking(peakingFreq, eq.sampleRate, peakingQ, midDB)
	eq.high.SetHighShelf(highShelfFreq, eq.sampleRate, highShelfQ, trebleDB)
}

// Process recomputes coefficients for the current (already-smoothed) band
// gains and runs all three sections over buf[:n] in place.
func (eq *ThreeBandEQ) Process(buf []float32, n int, bassDB, midDB, trebleDB float64) {
	eq.Recompute(bassDB, midDB, trebleDB)
	eq.low.Process(buf, n)
	eq.mid.Process(buf, n)
	eq.high.Process(buf, n)
}
