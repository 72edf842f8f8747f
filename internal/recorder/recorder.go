// Package recorder implements the lock-free SPSC tap from the RT audio
// path to a background WAV-writing goroutine (spec §4.5).
package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	batchSamples = 32768
	emptySleep   = 10 * time.Millisecond
	sampleRateHz = 48000
)

// State mirrors spec §3 "RecorderState {Idle, Capturing(...)}" as a flat
// snapshot convenient for getStatus.
type State struct {
	Capturing     bool
	Path          string
	StartedAt     time.Time
	SampleRate    int
	DroppedFrames uint64
}

// Recorder owns the ring buffer and the writer goroutine's lifecycle.
type Recorder struct {
	log *log.Logger
	dir string

	ring *ring

	recording atomic.Bool
	dropped   atomic.Uint64
	path      atomic.Pointer[string]
	startedAt atomic.Int64 // unix nano, 0 if not capturing
	sampleRate int

	// interleave is the RT-path scratch buffer Push interleaves into,
	// sized once at construction to 2*maxPeriod so Push never allocates
	// regardless of how large a period the caller configures.
	interleave []float32

	writerDone chan struct{}
}

// New constructs a Recorder whose RT-safe Push never allocates for any
// n <= maxPeriod frames (spec §4.1 "Never allocates, never locks, never
// blocks"; maxPeriod should match the engine's configured period size).
func New(logger *log.Logger, dir string, maxPeriod int) *Recorder {
	empty := ""
	r := &Recorder{
		log:        logger,
		dir:        dir,
		ring:       newRing(),
		interleave: make([]float32, 2*maxPeriod),
	}
	r.path.Store(&empty)
	return r
}

// Start opens a new WAV file and launches the writer goroutine (spec §4.5
// "start"). filename may be empty, in which case a wall-clock-timestamped
// name is derived. Returns the resolved path, or "" if already recording
// or the file could not be created.
func (r *Recorder) Start(filename string, sampleRate int) string {
	if r.recording.Load() {
		return ""
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.log.Error("recorder: cannot create directory", "dir", r.dir, "err", err)
		return ""
	}

	if filename == "" {
		filename = fmt.Sprintf("recording-%s.wav", time.Now().Format("2006-01-02-150405"))
	}
	if filepath.Ext(filename) != ".wav" {
		filename += ".wav"
	}
	full := filepath.Join(r.dir, filename)

	f, err := os.Create(full)
	if err != nil {
		r.log.Error("recorder: cannot create file", "path", full, "err", err)
		return ""
	}

	r.ring = newRing()
	r.dropped.Store(0)
	r.sampleRate = sampleRate
	r.startedAt.Store(time.Now().UnixNano())
	r.path.Store(&full)
	r.recording.Store(true)
	r.writerDone = make(chan struct{})

	go r.writerLoop(f, sampleRate)

	r.log.Info("recording started", "path", full)
	return full
}

// Stop flips recording off and joins the writer, which flushes the tail
// and finalises the WAV header (spec §4.5 "stop").
func (r *Recorder) Stop() {
	if !r.recording.Load() {
		return
	}
	r.recording.Store(false)
	<-r.writerDone
}

// Push is the RT-safe producer side (spec §4.5 "push"): writes n
// interleaved stereo frames, or counts them dropped if the ring lacks
// room. Never blocks, never allocates: n is assumed <= the maxPeriod
// passed to New, the same bound the engine enforces before calling in.
func (r *Recorder) Push(l, rch []float32, n int) {
	if !r.recording.Load() {
		return
	}

	needed := 2 * n
	if r.ring.availableToWrite() < needed {
		r.dropped.Add(uint64(n))
		return
	}

	buf := r.interleave[:needed]
	for i := 0; i < n; i++ {
		buf[2*i] = l[i]
		buf[2*i+1] = rch[i]
	}
	r.ring.write(buf)
}

// Status is a point-in-time snapshot for getStatus.
func (r *Recorder) Status() State {
	var path string
	if p := r.path.Load(); p != nil {
		path = *p
	}
	var started time.Time
	if n := r.startedAt.Load(); n != 0 {
		started = time.Unix(0, n)
	}
	return State{
		Capturing:     r.recording.Load(),
		Path:          path,
		StartedAt:     started,
		SampleRate:    r.sampleRate,
		DroppedFrames: r.dropped.Load(),
	}
}

func (r *Recorder) writerLoop(f *os.File, sampleRate int) {
	defer close(r.writerDone)
	defer f.Close()

	writer := newWavWriter(f, sampleRate)
	if err := writer.writeHeaderPlaceholder(); err != nil {
		r.log.Error("recorder: writing wav header", "err", err)
		return
	}

	batch := make([]float32, batchSamples)

	for {
		n := r.ring.readInto(batch)
		if n > 0 {
			if err := writer.writeSamples(batch[:n]); err != nil {
				r.log.Error("recorder: write error", "err", err)
				return
			}
			continue
		}

		if !r.recording.Load() {
			// Drain any final samples written just before Stop flipped.
			if n2 := r.ring.readInto(batch); n2 > 0 {
				writer.writeSamples(batch[:n2])
			}
			break
		}

		time.Sleep(emptySleep)
	}

	if err := writer.finalize(); err != nil {
		r.log.Error("recorder: finalizing wav header", "err", err)
	}
}
