// Package backingtrack decodes a WAV or MP3 file into an in-memory stereo
// float buffer and exposes an RT-safe mix source (spec §4.6).
package backingtrack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// PlaybackState is the atomic playback state machine driving fill().
type PlaybackState int32

const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

func (s PlaybackState) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

type buffer struct {
	left, right []float32
	sampleRate  int
	frames      int
}

// Track is the engine-owned backing-track source. The decoded buffer is
// published with Release after a stop-the-world load (spec §9 "Backing-
// track load while RT runs"); the RT thread only ever reads via fill().
type Track struct {
	log *log.Logger

	buf atomic.Pointer[buffer]

	state    atomic.Int32
	position atomic.Int64 // current frame index, RT-owned but published via atomic for status
	volume   atomic.Uint64 // float64 bits, linear

	loop          atomic.Bool
	startFrame    atomic.Int64
	stopFrame     atomic.Int64 // 0 means "end of buffer"
}

func New(logger *log.Logger) *Track {
	t := &Track{log: logger}
	t.volume.Store(float64bits(1.0))
	return t
}

// Load decodes path (WAV or MP3) entirely into memory and publishes it
// without resampling (no sample-rate conversion per non-goals; targetSR is
// not used). Callers must Stop() playback before calling Load, per spec
// §9's stop-the-world requirement.
func (t *Track) Load(path string, targetSR int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("backingtrack: open %s: %w", path, err)
	}
	defer f.Close()

	var buf *buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		buf, err = decodeWav(f)
	case ".mp3":
		buf, err = decodeMp3(f)
	default:
		return fmt.Errorf("backingtrack: unsupported extension for %s", path)
	}
	if err != nil {
		return fmt.Errorf("backingtrack: decode %s: %w", path, err)
	}

	t.Stop()
	t.buf.Store(buf)
	t.position.Store(0)
	t.startFrame.Store(0)
	t.stopFrame.Store(0)

	t.log.Info("backing track loaded", "path", path, "frames", buf.frames, "sr", buf.sampleRate)
	return nil
}

func decodeWav(f *os.File) (*buffer, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return pcmBufferToStereo(buf), nil
}

func decodeMp3(f *os.File) (*buffer, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	var left, right []float32
	var scratch [4 * 1024]byte
	for {
		n, err := dec.Read(scratch[:])
		for i := 0; i+4 <= n; i += 4 {
			l := int16(scratch[i]) | int16(scratch[i+1])<<8
			r := int16(scratch[i+2]) | int16(scratch[i+3])<<8
			left = append(left, float32(l)/32768)
			right = append(right, float32(r)/32768)
		}
		if err != nil {
			break
		}
	}

	return &buffer{left: left, right: right, sampleRate: dec.SampleRate(), frames: len(left)}, nil
}

func pcmBufferToStereo(buf *audio.IntBuffer) *buffer {
	fmtInfo := buf.Format
	channels := 1
	if fmtInfo != nil {
		channels = fmtInfo.NumChannels
	}
	if channels < 1 {
		channels = 1
	}

	max := float32(int(1) << (uint(buf.SourceBitDepth) - 1))
	if buf.SourceBitDepth == 0 {
		max = 32768
	}

	frames := len(buf.Data) / channels
	left := make([]float32, frames)
	right := make([]float32, frames)

	for i := 0; i < frames; i++ {
		l := float32(buf.Data[i*channels]) / max
		left[i] = l
		if channels > 1 {
			right[i] = float32(buf.Data[i*channels+1]) / max
		} else {
			right[i] = l
		}
	}

	sr := 44100
	if fmtInfo != nil {
		sr = fmtInfo.SampleRate
	}

	return &buffer{left: left, right: right, sampleRate: sr, frames: frames}
}

// Play, Pause, Stop mutate the playback state atomically; non-RT.
func (t *Track) Play()  { t.state.Store(int32(Playing)) }
func (t *Track) Pause() { t.state.Store(int32(Paused)) }
func (t *Track) Stop() {
	t.state.Store(int32(Stopped))
	t.position.Store(t.startFrame.Load())
}

func (t *Track) SetLoop(enabled bool) { t.loop.Store(enabled) }

// SetVolume clamps to [0,1] linear (spec §4.6 "Volume is an atomic linear
// scalar").
func (t *Track) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	t.volume.Store(float64bits(v))
}

// SetStartPosition/SetStopPosition take seconds; converted to frame
// indices against the currently loaded buffer's sample rate.
func (t *Track) SetStartPosition(seconds float64) {
	if b := t.buf.Load(); b != nil {
		t.startFrame.Store(int64(seconds * float64(b.sampleRate)))
	}
}

func (t *Track) SetStopPosition(seconds float64) {
	if b := t.buf.Load(); b != nil {
		t.stopFrame.Store(int64(seconds * float64(b.sampleRate)))
	}
}

// Fill is RT-safe (spec §4.6 "fill"): zero-fills when not Playing, else
// copies n frames advancing position, looping or stopping at the
// configured stop position.
func (t *Track) Fill(l, r []float32, n int) {
	if PlaybackState(t.state.Load()) != Playing {
		for i := 0; i < n; i++ {
			l[i] = 0
			r[i] = 0
		}
		return
	}

	b := t.buf.Load()
	if b == nil {
		for i := 0; i < n; i++ {
			l[i] = 0
			r[i] = 0
		}
		return
	}

	stop := int(t.stopFrame.Load())
	if stop == 0 || stop > b.frames {
		stop = b.frames
	}
	vol := float64frombits(t.volume.Load())
	pos := int(t.position.Load())

	for i := 0; i < n; i++ {
		if pos >= stop {
			if t.loop.Load() {
				pos = int(t.startFrame.Load())
			} else {
				t.state.Store(int32(Stopped))
				for ; i < n; i++ {
					l[i] = 0
					r[i] = 0
				}
				break
			}
		}
		l[i] = b.left[pos] * float32(vol)
		r[i] = b.right[pos] * float32(vol)
		pos++
	}

	t.position.Store(int64(pos))
}

// Status is a point-in-time snapshot for getBackingTrackStatus.
type Status struct {
	State      PlaybackState
	Loop       bool
	Volume     float64
	PositionS  float64
	FrameCount int
	SampleRate int
}

func (t *Track) Status() Status {
	b := t.buf.Load()
	frames, sr := 0, 0
	if b != nil {
		frames, sr = b.frames, b.sampleRate
	}
	posSeconds := 0.0
	if sr > 0 {
		posSeconds = float64(t.position.Load()) / float64(sr)
	}
	return Status{
		State:      PlaybackState(t.state.Load()),
		Loop:       t.loop.Load(),
		Volume:     float64frombits(t.volume.Load()),
		PositionS:  posSeconds,
		FrameCount: frames,
		SampleRate: sr,
	}
}
