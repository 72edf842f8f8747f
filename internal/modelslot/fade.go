package modelslot

import "sync/atomic"

// FadeSamples is the fixed fade length from spec §4.2: "a linear ramp over
// exactly F = 256 samples (~5 ms at 48 kHz)".
const FadeSamples = 256

const (
	fadeRequestNone = iota
	fadeRequestOut
	fadeRequestIn
)

// FadeEnvelope is the RT-owned linear fade-out/fade-in ramp (spec §4.2
// "Fade envelope"). Everything except the two completion channels and the
// pending-request flag is touched only by the RT thread calling Step; the
// pending flag is the single atomic handoff from the worker thread that
// drives a hot swap.
type FadeEnvelope struct {
	gain      float64 // RT-owned, 0..1
	counter   int     // RT-owned, samples remaining in the current ramp
	direction int     // RT-owned: -1 fading out, +1 fading in, 0 idle
	pending   atomic.Int32

	outDone chan struct{}
	inDone  chan struct{}
}

func NewFadeEnvelope() *FadeEnvelope {
	return &FadeEnvelope{
		outDone: make(chan struct{}, 1),
		inDone:  make(chan struct{}, 1),
	}
}

// SetIdle forces the envelope to a steady Idle gain without ramping — used
// only at construction, never while RT is mid-period.
func (f *FadeEnvelope) SetIdle(gain float64) {
	f.gain = gain
	f.counter = 0
	f.direction = 0
}

// RequestFadeOut is called from the worker thread to start a fade-out on
// the next RT-thread Step. Non-blocking, no allocation.
func (f *FadeEnvelope) RequestFadeOut() {
	f.pending.Store(fadeRequestOut)
}

// RequestFadeIn is called from the worker thread to start a fade-in on the
// next RT-thread Step.
func (f *FadeEnvelope) RequestFadeIn() {
	f.pending.Store(fadeRequestIn)
}

// FadeOutDone and FadeInDone return channels that receive a value when a
// fade-out or fade-in ramp completes; the worker selects on them alongside
// its own timeout. Non-RT only.
func (f *FadeEnvelope) FadeOutDone() <-chan struct{} { return f.outDone }
func (f *FadeEnvelope) FadeInDone() <-chan struct{}  { return f.inDone }

// Step advances the envelope by one sample and returns the gain to apply to
// that sample. RT-safe: one atomic swap, no allocation, no lock.
func (f *FadeEnvelope) Step() float64 {
	if p := f.pending.Swap(fadeRequestNone); p != fadeRequestNone {
		f.counter = FadeSamples
		if p == fadeRequestOut {
			f.direction = -1
		} else {
			f.direction = 1
		}
	}

	gain := f.gain

	if f.counter > 0 {
		const step = 1.0 / FadeSamples
		if f.direction < 0 {
			f.gain -= step
			if f.gain < 0 {
				f.gain = 0
			}
		} else {
			f.gain += step
			if f.gain > 1 {
				f.gain = 1
			}
		}
		f.counter--

		if f.counter == 0 {
			switch f.direction {
			case -1:
				nonBlockingSend(f.outDone)
			case 1:
				nonBlockingSend(f.inDone)
			}
			f.direction = 0
		}
	}

	return gain
}

func nonBlockingSend(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
