package modelslot

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// State is the slot's status-machine value (spec §3 "ModelSlot"). It is
// reported to the control plane via Status(). The RT path reads it only
// while the ready flag is false, to tell an Empty slot (passed through) from
// one that is mid-load (silenced); otherwise it relies on the ready flag and
// the fade envelope, which is what keeps the hot-swap protocol lock-free.
type State int32

const (
	Empty State = iota
	Loading
	Ready
	FadingOut
	FadingIn
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case FadingOut:
		return "FadingOut"
	case FadingIn:
		return "FadingIn"
	default:
		return "Unknown"
	}
}

// headroomDB is the source's fixed headroom applied to every normalisation
// gain: normGain = 10^((-6 + trim)/20) (spec §4.2 step 4).
const headroomDB = -6.0

// fadeOutGraceTimeout bounds how long the hot-swap worker waits for the
// outgoing model's fade-out to complete before proceeding regardless (spec
// §4.2 "wait up to 60 ms for completion, or proceed regardless").
const fadeOutGraceTimeout = 60 * time.Millisecond

const prewarmSamples = FadeSamples

// request is a single load/unload job handed from a non-RT caller to the
// slot's worker goroutine.
type request struct {
	path   string // model to load; ignored when unload is set
	unload bool
}

// ModelSlot owns one neural model, its fade envelope, and the load worker
// that performs the hot-swap protocol of spec §4.2.
type ModelSlot struct {
	log    *log.Logger
	loader Loader
	name   string

	maxBufferSize int

	ready atomic.Bool
	state atomic.Int32 // State, for status reporting only

	model    atomic.Pointer[Model]
	normGain atomic.Uint64 // float64 bits, linear gain

	path atomic.Pointer[string]

	fade *FadeEnvelope

	requests chan request
	running  atomic.Bool

	onLoadComplete func(path string, err error)
}

// NewModelSlot constructs a slot in the Empty state. loader is the injected
// model-file loader (spec §1: the neural model library is an external
// collaborator). onLoadComplete, if non-nil, is invoked from the worker
// goroutine after every load attempt, success or failure (spec §4.2 step 3
// "surface via a callback").
func NewModelSlot(logger *log.Logger, name string, loader Loader, maxBufferSize int, onLoadComplete func(path string, err error)) *ModelSlot {
	s := &ModelSlot{
		log:            logger,
		loader:         loader,
		name:           name,
		maxBufferSize:  maxBufferSize,
		fade:           NewFadeEnvelope(),
		requests:       make(chan request, 1),
		onLoadComplete: onLoadComplete,
	}
	s.fade.SetIdle(0)
	s.state.Store(int32(Empty))
	emptyPath := ""
	s.path.Store(&emptyPath)
	return s
}

// Run starts the slot's worker goroutine; it exits when stop is closed.
// One worker goroutine per model slot (spec §5 "Worker threads (one per
// model slot...)").
func (s *ModelSlot) Run(stop <-chan struct{}) {
	s.running.Store(true)
	go func() {
		defer s.running.Store(false)
		for {
			select {
			case <-stop:
				return
			case req := <-s.requests:
				if !s.running.Load() {
					return
				}
				if req.unload {
					s.doUnload()
				} else {
					s.doHotSwap(req.path)
				}
			}
		}
	}()
}

// LoadAsync queues a load request (spec §4.2 "load_async(path): non-RT;
// queues a load request to the slot's worker thread"). If a request is
// already queued, it is replaced — only the most recent request matters.
func (s *ModelSlot) LoadAsync(path string) {
	s.drainAndSend(request{path: path})
}

// UnloadAsync queues a request to clear the slot via the same fade-out
// protocol used for a hot swap, landing in Empty instead of Ready.
func (s *ModelSlot) UnloadAsync() {
	s.drainAndSend(request{unload: true})
}

func (s *ModelSlot) drainAndSend(req request) {
	select {
	case <-s.requests:
	default:
	}
	select {
	case s.requests <- req:
	default:
	}
}

func (s *ModelSlot) doHotSwap(path string) {
	s.log.Info("model hot-swap starting", "slot", s.name, "path", path)

	s.fadeOutCurrentAndWait()

	s.ready.Store(false)
	s.state.Store(int32(Loading))

	m, err := s.loader(path)
	if err != nil {
		s.log.Error("model load failed", "slot", s.name, "path", path, "err", err)
		s.ready.Store(false)
		s.state.Store(int32(Empty))
		s.setPath("")
		if s.onLoadComplete != nil {
			s.onLoadComplete(path, err)
		}
		return
	}

	m.SetMaxBufferSize(s.maxBufferSize)
	trim := m.RecommendedOutputTrimDB()
	normGain := dBToLinear(headroomDB + trim)

	zeros := make([]float32, prewarmSamples)
	m.Process(zeros, prewarmSamples)

	s.normGain.Store(float64Bits(normGain))
	s.model.Store(&m)

	s.setPath(path)
	s.state.Store(int32(Ready))
	s.ready.Store(true)
	s.fade.RequestFadeIn()

	if s.onLoadComplete != nil {
		s.onLoadComplete(path, nil)
	}
	s.log.Info("model hot-swap complete", "slot", s.name, "path", path)
}

func (s *ModelSlot) doUnload() {
	s.fadeOutCurrentAndWait()
	s.ready.Store(false)
	s.state.Store(int32(Empty))
	s.model.Store(nil)
	s.normGain.Store(float64Bits(1.0))
	s.setPath("")
}

func (s *ModelSlot) fadeOutCurrentAndWait() {
	if !s.ready.Load() {
		return
	}
	s.state.Store(int32(FadingOut))
	s.fade.RequestFadeOut()

	timer := time.NewTimer(fadeOutGraceTimeout)
	defer timer.Stop()
	select {
	case <-s.fade.FadeOutDone():
	case <-timer.C:
		s.log.Warn("fade-out grace period expired, proceeding", "slot", s.name)
	}
}

func (s *ModelSlot) setPath(p string) {
	s.path.Store(&p)
}

// IsReady is an RT-safe snapshot (spec §4.2 "is_ready(): RT-safe snapshot").
func (s *ModelSlot) IsReady() bool { return s.ready.Load() }

// Process is RT-safe: passthrough if the slot is Empty, silence while a
// load is in progress, else Model.Process in place, optional normalisation
// multiply, then the fade envelope (spec §4.2 "process(buf, n,
// apply_normalisation)").
func (s *ModelSlot) Process(buf []float32, n int, applyNormalisation bool) {
	if !s.ready.Load() {
		if State(s.state.Load()) != Empty {
			for i := 0; i < n; i++ {
				buf[i] = 0
			}
		}
		return
	}

	mp := s.model.Load()
	if mp == nil {
		return
	}
	model := *mp

	model.Process(buf, n)

	norm := float64FromBits(s.normGain.Load())

	for i := 0; i < n; i++ {
		v := float64(buf[i])
		if applyNormalisation {
			v *= norm
		}
		v *= s.fade.Step()
		buf[i] = float32(v)
	}
}

// Status is a point-in-time snapshot for the control façade's getStatus.
type Status struct {
	State State
	Path  string
	Ready bool
}

func (s *ModelSlot) Status() Status {
	var path string
	if p := s.path.Load(); p != nil {
		path = *p
	}
	return Status{
		State: State(s.state.Load()),
		Path:  path,
		Ready: s.ready.Load(),
	}
}

func dBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func float64Bits(f float64) uint64     { return math.Float64bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
