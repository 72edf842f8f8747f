package recorder

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCaptureRoundTripsThroughWav(t *testing.T) {
	logger := log.New(io.Discard)
	n := 480
	r := New(logger, t.TempDir(), n)

	path := r.Start("take1.wav", 48000)
	require.NotEmpty(t, path)

	l := make([]float32, n)
	rch := make([]float32, n)
	for i := range l {
		l[i] = 0.5
		rch[i] = -0.5
	}
	r.Push(l, rch, n)

	// Give the writer goroutine a moment to drain the ring before Stop
	// joins it; Stop itself blocks until the writer flushes the tail.
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 48000, buf.Format.SampleRate)
	assert.Equal(t, 2*n, len(buf.Data))
}

func TestRecorderStartTwiceReturnsEmptyPathSecondTime(t *testing.T) {
	logger := log.New(io.Discard)
	r := New(logger, t.TempDir(), 128)

	first := r.Start("", 48000)
	require.NotEmpty(t, first)

	second := r.Start("", 48000)
	assert.Empty(t, second)

	r.Stop()
}

func TestRecorderPushWhileIdleIsNoop(t *testing.T) {
	logger := log.New(io.Discard)
	r := New(logger, t.TempDir(), 128)

	l := make([]float32, 16)
	rch := make([]float32, 16)
	r.Push(l, rch, 16)

	assert.Equal(t, uint64(0), r.Status().DroppedFrames)
	assert.False(t, r.Status().Capturing)
}

func TestRecorderFilenameGetsWavExtension(t *testing.T) {
	logger := log.New(io.Discard)
	r := New(logger, t.TempDir(), 128)

	path := r.Start("session", 48000)
	require.Equal(t, ".wav", filepath.Ext(path))
	r.Stop()
}

// A large --period (spec allows any operator-configured frame count) must
// not overrun Push's pre-sized scratch buffer, since Push is RT-safe and
// never allocates (spec §4.1).
func TestRecorderPushAtMaxPeriodNeverPanics(t *testing.T) {
	logger := log.New(io.Discard)
	const maxPeriod = 8192
	r := New(logger, t.TempDir(), maxPeriod)

	path := r.Start("", 48000)
	require.NotEmpty(t, path)

	l := make([]float32, maxPeriod)
	rch := make([]float32, maxPeriod)
	assert.NotPanics(t, func() { r.Push(l, rch, maxPeriod) })

	r.Stop()
}
