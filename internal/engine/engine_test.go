package engine

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidproquo/hoopipi/internal/backingtrack"
	"github.com/kidproquo/hoopipi/internal/modelslot"
	"github.com/kidproquo/hoopipi/internal/recorder"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// noopModel passes samples through unchanged.
type noopModel struct{}

func (noopModel) Process(buf []float32, n int)     {}
func (noopModel) RecommendedOutputTrimDB() float64 { return 0 }
func (noopModel) SetMaxBufferSize(n int)           {}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := testLogger()
	loader := func(path string) (modelslot.Model, error) { return noopModel{}, nil }
	slotL := modelslot.NewModelSlot(logger, "L", loader, 128, nil)
	slotR := modelslot.NewModelSlot(logger, "R", loader, 128, nil)
	rec := recorder.New(logger, t.TempDir(), 128)
	track := backingtrack.New(logger)
	return New(logger, 48000, 128, slotL, slotR, rec, track)
}

func TestProcessStereoIdentityAtUnityGain(t *testing.T) {
	e := newTestEngine(t)
	e.Params.DCBlockEnabledL.Store(false)
	e.Params.DCBlockEnabledR.Store(false)

	n := 64
	inL := make([]float32, n)
	inR := make([]float32, n)
	for i := range inL {
		inL[i] = float32(i) / float32(n)
		inR[i] = inL[i]
	}
	outL := make([]float32, n)
	outR := make([]float32, n)

	e.ProcessStereo(inL, inR, outL, outR, n)

	// Gate, model, reverb disabled by default and the DC blocker switched
	// off above (it is a high-pass and would attenuate this slow ramp); the
	// EQ biquads at 0dB are identity up to floating point noise.
	for i := 0; i < n; i++ {
		assert.InDelta(t, float64(inL[i]), float64(outL[i]), 1e-3, "sample %d", i)
	}
}

func TestProcessStereoGlobalBypassCopiesInput(t *testing.T) {
	e := newTestEngine(t)
	e.Params.GlobalBypass.Store(true)

	n := 32
	inL := make([]float32, n)
	inR := make([]float32, n)
	for i := range inL {
		inL[i] = 0.5
		inR[i] = -0.25
	}
	outL := make([]float32, n)
	outR := make([]float32, n)

	e.ProcessStereo(inL, inR, outL, outR, n)

	assert.Equal(t, inL, outL)
	assert.Equal(t, inR, outR)
}

func TestProcessStereoXrunOnOversizePeriod(t *testing.T) {
	e := newTestEngine(t)

	n := e.maxPeriod + 1
	inL := make([]float32, n)
	outL := make([]float32, n)
	outR := make([]float32, n)

	require.Zero(t, e.XrunCount())
	e.ProcessStereo(inL, nil, outL, outR, n)
	assert.EqualValues(t, 1, e.XrunCount())
}

func TestProcessStereoLeftMonoDuplicatesToRight(t *testing.T) {
	e := newTestEngine(t)

	n := 16
	inL := make([]float32, n)
	for i := range inL {
		inL[i] = float32(i+1) / float32(n)
	}
	outL := make([]float32, n)
	outR := make([]float32, n)

	e.ProcessStereo(inL, nil, outL, outR, n)

	assert.Equal(t, outL, outR)
}

func TestProcessStereoInputGainIsApplied(t *testing.T) {
	e := newTestEngine(t)
	e.Params.SetInputGainDB(6, true, false, false)

	// Settle the one-pole smoother toward the new target.
	for i := 0; i < 20000; i++ {
		e.Params.InputGainL.Advance()
	}

	n := 8
	inL := make([]float32, n)
	for i := range inL {
		inL[i] = 0.1
	}
	outL := make([]float32, n)
	outR := make([]float32, n)

	e.ProcessStereo(inL, nil, outL, outR, n)

	for i := 0; i < n; i++ {
		assert.Greater(t, float64(outL[i]), float64(inL[i]))
	}
}

func TestProcessStereoRecorderCapturesSamples(t *testing.T) {
	e := newTestEngine(t)
	path := e.Recorder.Start("", 48000)
	require.NotEmpty(t, path)

	n := 64
	inL := make([]float32, n)
	inR := make([]float32, n)
	outL := make([]float32, n)
	outR := make([]float32, n)
	e.ProcessStereo(inL, inR, outL, outR, n)

	e.Recorder.Stop()
	status := e.Recorder.Status()
	assert.False(t, status.Capturing)
	assert.Zero(t, status.DroppedFrames)
}
