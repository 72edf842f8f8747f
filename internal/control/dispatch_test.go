package control

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidproquo/hoopipi/internal/backingtrack"
	"github.com/kidproquo/hoopipi/internal/config"
	"github.com/kidproquo/hoopipi/internal/engine"
	"github.com/kidproquo/hoopipi/internal/modelslot"
	"github.com/kidproquo/hoopipi/internal/paramplane"
	"github.com/kidproquo/hoopipi/internal/recorder"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	logger := log.New(io.Discard)
	loader := func(path string) (modelslot.Model, error) { return passthroughModel{}, nil }
	slotL := modelslot.NewModelSlot(logger, "L", loader, 128, nil)
	slotR := modelslot.NewModelSlot(logger, "R", loader, 128, nil)
	rec := recorder.New(logger, t.TempDir(), 128)
	track := backingtrack.New(logger)
	eng := engine.New(logger, 48000, 128, slotL, slotR, rec, track)
	return &Handler{Engine: eng, Store: config.NewStore(logger, t.TempDir())}
}

type passthroughModel struct{}

func (passthroughModel) Process(buf []float32, n int)     {}
func (passthroughModel) RecommendedOutputTrimDB() float64 { return 0 }
func (passthroughModel) SetMaxBufferSize(n int)           {}

func TestDispatchUnknownAction(t *testing.T) {
	h := testHandler(t)
	resp := h.dispatch(request{Action: "doSomethingWeird"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Unknown action")
}

func TestDispatchSetInputGainClampsAndReadsBack(t *testing.T) {
	h := testHandler(t)
	gain := 100.0 // beyond +/-40dB limit
	resp := h.dispatch(request{Action: "setInputGainL", Gain: &gain})
	require.True(t, resp.Success)
	assert.Equal(t, 40.0, resp.Fields["gain"])
}

// getStatus must return the just-applied target immediately, before the
// RT-owned one-pole smoother has had a chance to settle (spec §8).
func TestDispatchSetEQBassThenGetStatusRoundTripsImmediately(t *testing.T) {
	h := testHandler(t)
	gain := 6.0
	setResp := h.dispatch(request{Action: "setEQBass", Gain: &gain})
	require.True(t, setResp.Success)

	statusResp := h.dispatch(request{Action: "getStatus"})
	require.True(t, statusResp.Success)
	assert.Equal(t, 6.0, statusResp.Fields["eqBassL"])
	assert.Equal(t, 6.0, statusResp.Fields["eqBassR"])
}

func TestDispatchSetEQTrebleRReflectsOnlyRChannelInStatus(t *testing.T) {
	h := testHandler(t)
	gain := 4.0
	setResp := h.dispatch(request{Action: "setEQTrebleR", Gain: &gain})
	require.True(t, setResp.Success)

	statusResp := h.dispatch(request{Action: "getStatus"})
	require.True(t, statusResp.Success)
	assert.Equal(t, 4.0, statusResp.Fields["eqTrebleR"])
	assert.Equal(t, 0.0, statusResp.Fields["eqTrebleL"])
}

func TestDispatchSetInputGainThenGetStatusRoundTripsImmediately(t *testing.T) {
	h := testHandler(t)
	gain := 12.0
	setResp := h.dispatch(request{Action: "setInputGainL", Gain: &gain})
	require.True(t, setResp.Success)

	statusResp := h.dispatch(request{Action: "getStatus"})
	require.True(t, statusResp.Success)
	assert.InDelta(t, 12.0, statusResp.Fields["inputGainL"].(float64), 1e-9)
}

func TestDispatchStartRecordingTwiceFailsSecondTime(t *testing.T) {
	h := testHandler(t)
	first := h.dispatch(request{Action: "startRecording"})
	require.True(t, first.Success)

	second := h.dispatch(request{Action: "startRecording"})
	assert.False(t, second.Success)

	h.Engine.Recorder.Stop()
}

func TestDispatchSetStereoModeRejectsUnknown(t *testing.T) {
	h := testHandler(t)
	resp := h.dispatch(request{Action: "setStereoMode", StereoMode: "NotAMode"})
	assert.False(t, resp.Success)
}

func TestSaveAndLoadConfigRoundTrips(t *testing.T) {
	h := testHandler(t)
	gain := 12.0
	require.True(t, h.dispatch(request{Action: "setInputGainL", Gain: &gain}).Success)

	require.NoError(t, h.SaveConfig())

	rt, err := h.Store.Load()
	require.NoError(t, err)
	assert.InDelta(t, 12.0, rt.InputGainL, 1e-9)

	h2 := testHandler(t)
	h2.LoadConfig(rt)
	assert.InDelta(t, 12.0, paramplane.LinearToDB(h2.Engine.Params.InputGainL.Target.Load()), 0.01)
}
