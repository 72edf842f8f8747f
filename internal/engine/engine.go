// Package engine composes the parameter plane, DSP primitives, model slots,
// recorder, and backing track into the single RT-safe per-period entry
// point, process_stereo (spec §4.1).
package engine

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/kidproquo/hoopipi/internal/backingtrack"
	"github.com/kidproquo/hoopipi/internal/dsp"
	"github.com/kidproquo/hoopipi/internal/modelslot"
	"github.com/kidproquo/hoopipi/internal/paramplane"
	"github.com/kidproquo/hoopipi/internal/recorder"
)

// Engine owns every RT-touched component and the work buffers they share.
// One Engine per running instance; ProcessStereo is called once per host
// period from the audio thread and must never allocate.
type Engine struct {
	log *log.Logger

	Params *paramplane.Registry

	SlotL *modelslot.ModelSlot
	SlotR *modelslot.ModelSlot

	gateL *dsp.NoiseGate
	gateR *dsp.NoiseGate
	eqL   *dsp.ThreeBandEQ
	eqR   *dsp.ThreeBandEQ
	dcL   *dsp.DCBlocker
	dcR   *dsp.DCBlocker
	verb  *dsp.Reverb

	Recorder *recorder.Recorder
	Backing  *backingtrack.Track

	maxPeriod int

	workL    []float32
	workR    []float32
	scratchL []float32
	scratchR []float32

	xruns atomic.Uint64
}

// New builds an Engine sized for maxPeriod-sample periods at sampleRate.
func New(logger *log.Logger, sampleRate float64, maxPeriod int, slotL, slotR *modelslot.ModelSlot, rec *recorder.Recorder, backing *backingtrack.Track) *Engine {
	return &Engine{
		log:    logger,
		Params: paramplane.NewRegistry(),

		SlotL: slotL,
		SlotR: slotR,

		gateL: dsp.NewNoiseGate(sampleRate),
		gateR: dsp.NewNoiseGate(sampleRate),
		eqL:   dsp.NewThreeBandEQ(sampleRate),
		eqR:   dsp.NewThreeBandEQ(sampleRate),
		dcL:   dsp.NewDCBlocker(sampleRate),
		dcR:   dsp.NewDCBlocker(sampleRate),
		verb:  dsp.NewReverb(sampleRate),

		Recorder: rec,
		Backing:  backing,

		maxPeriod: maxPeriod,

		workL:    make([]float32, maxPeriod),
		workR:    make([]float32, maxPeriod),
		scratchL: make([]float32, maxPeriod),
		scratchR: make([]float32, maxPeriod),
	}
}

// XrunCount is the running total of periods rejected for exceeding maxPeriod
// (spec §4.1 step 1).
func (e *Engine) XrunCount() uint64 { return e.xruns.Load() }

// ProcessStereo is the RT entry point (spec §4.1). inR may be nil, in which
// case it is treated as aliased to inL. outL and outR must not alias each
// other. Never allocates, never locks, never blocks.
func (e *Engine) ProcessStereo(inL, inR, outL, outR []float32, n int) {
	if n > e.maxPeriod {
		e.xruns.Add(1)
		passthrough(inL, inR, outL, outR, n)
		return
	}

	if e.Params.GlobalBypass.Load() {
		passthrough(inL, inR, outL, outR, n)
		return
	}

	e.smoothGains()

	selL, selR := e.selectChannels(inL, inR, n)

	mode := e.Params.StereoMode.Load()
	workL := e.workL[:n]
	workR := e.workR[:n]

	if mode == paramplane.StereoToMono {
		mixL := e.Params.Stereo2MonoMixL.Load()
		mixR := e.Params.Stereo2MonoMixR.Load()
		for i := 0; i < n; i++ {
			workL[i] = float32(mixL*float64(selL[i]) + mixR*float64(selR[i]))
		}
	} else {
		copy(workL, selL[:n])
	}

	e.runChannelChain(workL, n, true)

	if mode == paramplane.TrueStereo {
		copy(workR, selR[:n])
		e.runChannelChain(workR, n, false)
	} else {
		copy(workR, workL)
	}

	if e.Params.ReverbEnabled.Load() {
		e.verb.MaybeReconfigure(e.Params.ReverbRoom.Load(), e.Params.ReverbRT60.Load())
		e.verb.Process(workL, workR, workL, workR, n, e.Params.ReverbDry.Load(), e.Params.ReverbWet.Load())
	}

	if e.Recorder != nil && e.Recorder.Status().Capturing {
		if e.Backing != nil && e.Params.BackingTrackEnabledForRecording.Load() && e.Backing.Status().State == backingtrack.Playing {
			scratchL := e.scratchL[:n]
			scratchR := e.scratchR[:n]
			e.Backing.Fill(scratchL, scratchR, n)
			for i := 0; i < n; i++ {
				workL[i] += scratchL[i]
				workR[i] += scratchR[i]
			}
		}
		e.Recorder.Push(workL, workR, n)
	}

	copy(outL[:n], workL)
	if outR != nil {
		copy(outR[:n], workR)
	}
}

// passthrough implements steps 1/2's "copy input to output" fallback,
// duplicating L into R when R is absent.
func passthrough(inL, inR, outL, outR []float32, n int) {
	copy(outL[:n], inL[:n])
	if outR == nil {
		return
	}
	if inR != nil {
		copy(outR[:n], inR[:n])
	} else {
		copy(outR[:n], inL[:n])
	}
}

// smoothGains advances every SmoothedGain one period-step toward its target
// (spec §4.1 step 3).
func (e *Engine) smoothGains() {
	e.Params.InputGainL.Advance()
	e.Params.InputGainR.Advance()
	e.Params.OutputGainL.Advance()
	e.Params.OutputGainR.Advance()
	e.Params.EQBassL.Advance()
	e.Params.EQMidL.Advance()
	e.Params.EQTrebleL.Advance()
	e.Params.EQBassR.Advance()
	e.Params.EQMidR.Advance()
	e.Params.EQTrebleR.Advance()
}

// selectChannels derives selectedInL/selectedInR from StereoMode (spec §4.1
// step 4): mono-source modes read only the side they need, TrueStereo and
// Stereo2Mono read both sides (inR falling back to inL when absent).
func (e *Engine) selectChannels(inL, inR []float32, n int) ([]float32, []float32) {
	if inR == nil {
		inR = inL
	}

	switch e.Params.StereoMode.Load() {
	case paramplane.LeftMonoToStereo:
		return inL[:n], inL[:n]
	case paramplane.RightMonoToStereo:
		return inR[:n], inR[:n]
	default: // StereoToMono, TrueStereo: read the genuine stereo pair
		return inL[:n], inR[:n]
	}
}

// runChannelChain runs the per-channel chain of spec §4.1 step 6 (and,
// minus model processing, step 7's TrueStereo R path) over buf[:n] in
// place. isLeft selects which channel's gain/gate/model/EQ/DC-block state to
// use.
func (e *Engine) runChannelChain(buf []float32, n int, isLeft bool) {
	p := e.Params

	inGain := p.InputGainL
	gateEnabled := p.NoiseGateEnabledL
	gateThresh := p.NoiseGateThreshL
	bypassModel := p.BypassModelL
	slot := e.SlotL
	eq := e.eqL
	eqBass, eqMid, eqTreble := p.EQBassL, p.EQMidL, p.EQTrebleL
	dcEnabled := p.DCBlockEnabledL
	dc := e.dcL
	outGain := p.OutputGainL
	gate := e.gateL

	if !isLeft {
		inGain = p.InputGainR
		gateEnabled = p.NoiseGateEnabledR
		gateThresh = p.NoiseGateThreshR
		bypassModel = p.BypassModelR
		// runChannelChain is only ever called for R on the TrueStereo path
		// (spec §4.1 step 7), which explicitly skips model processing.
		slot = nil
		eq = e.eqR
		eqBass, eqMid, eqTreble = p.EQBassR, p.EQMidR, p.EQTrebleR
		dcEnabled = p.DCBlockEnabledR
		dc = e.dcR
		outGain = p.OutputGainR
		gate = e.gateR
	}

	// a. input gain
	if g := inGain.Current(); g != 1 {
		for i := 0; i < n; i++ {
			buf[i] *= float32(g)
		}
	}

	// b. noise gate
	if gateEnabled.Load() {
		gate.Process(buf, n, gateThresh.Load())
	}

	// c. model
	if slot != nil && !bypassModel.Load() {
		slot.Process(buf, n, true)
	}

	// d. EQ
	eq.Process(buf, n, eqBass.Current(), eqMid.Current(), eqTreble.Current())

	// e. DC blocker
	if dcEnabled.Load() {
		dc.Process(buf, n)
	}

	// f. output gain
	if g := outGain.Current(); g != 1 {
		for i := 0; i < n; i++ {
			buf[i] *= float32(g)
		}
	}
}

// Status is a point-in-time snapshot for the control façade's getStatus.
type Status struct {
	Xruns         uint64
	StereoMode    string
	GlobalBypass  bool
	SlotL         modelslot.Status
	SlotR         modelslot.Status
	RecorderState recorder.State
	Backing       backingtrack.Status
}

func (e *Engine) Status() Status {
	return Status{
		Xruns:         e.xruns.Load(),
		StereoMode:    e.Params.StereoMode.Load().String(),
		GlobalBypass:  e.Params.GlobalBypass.Load(),
		SlotL:         e.SlotL.Status(),
		SlotR:         e.SlotR.Status(),
		RecorderState: e.Recorder.Status(),
		Backing:       e.Backing.Status(),
	}
}
