package control

import (
	"fmt"

	"github.com/kidproquo/hoopipi/internal/config"
	"github.com/kidproquo/hoopipi/internal/engine"
	"github.com/kidproquo/hoopipi/internal/modelcatalog"
	"github.com/kidproquo/hoopipi/internal/modelslot"
	"github.com/kidproquo/hoopipi/internal/paramplane"
)

// Handler owns every component the control façade is allowed to mutate. It
// holds no RT state of its own; every method call is a thin translation from
// a decoded request to one call on the engine/backing-track/recorder/config.
type Handler struct {
	Engine  *engine.Engine
	Store   *config.Store
	Catalog *modelcatalog.Catalog
}

// dispatch routes a decoded request to its handler. Unknown actions and
// malformed requests never mutate state (spec §7 kinds 5, 6).
func (h *Handler) dispatch(req request) response {
	switch req.Action {
	case "loadModel":
		return h.loadModel(req)
	case "unloadModel":
		return h.unloadModel(req)
	case "setActiveModel", "setActiveModelL", "setActiveModelR":
		return h.setActiveModel(req)
	case "setBypassModel", "setBypassModelL", "setBypassModelR":
		return h.setBypassModel(req)
	case "setInputGain", "setInputGainL", "setInputGainR":
		return h.setInputGain(req)
	case "setOutputGain", "setOutputGainL", "setOutputGainR":
		return h.setOutputGain(req)
	case "setNoiseGateEnabled", "setNoiseGateEnabledL", "setNoiseGateEnabledR":
		return h.setNoiseGateEnabled(req)
	case "setNoiseGateThreshold", "setNoiseGateThresholdL", "setNoiseGateThresholdR":
		return h.setNoiseGateThreshold(req)
	case "setEQEnabled", "setEQEnabledL", "setEQEnabledR":
		return h.setEQEnabled(req)
	case "setEQBass", "setEQBassL", "setEQBassR":
		return h.setEQBand("bass", req)
	case "setEQMid", "setEQMidL", "setEQMidR":
		return h.setEQBand("mid", req)
	case "setEQTreble", "setEQTrebleL", "setEQTrebleR":
		return h.setEQBand("treble", req)
	case "setStereoMode":
		return h.setStereoMode(req)
	case "setStereo2MonoMixL":
		return h.setStereo2MonoMix(true, req)
	case "setStereo2MonoMixR":
		return h.setStereo2MonoMix(false, req)
	case "setReverbEnabled":
		return h.setReverbEnabled(req)
	case "setReverbRoomSize":
		return h.setReverbRoomSize(req)
	case "setReverbDecayTime":
		return h.setReverbDecayTime(req)
	case "setReverbMix":
		return h.setReverbMix(req)
	case "startRecording":
		return h.startRecording(req)
	case "stopRecording":
		return h.stopRecording(req)
	case "loadBackingTrack":
		return h.loadBackingTrack(req)
	case "playBackingTrack":
		return h.playBackingTrack(req)
	case "stopBackingTrack":
		return h.stopBackingTrack(req)
	case "pauseBackingTrack":
		return h.pauseBackingTrack(req)
	case "setBackingTrackLoop":
		return h.setBackingTrackLoop(req)
	case "setBackingTrackVolume":
		return h.setBackingTrackVolume(req)
	case "setBackingTrackStartPosition":
		return h.setBackingTrackStartPosition(req)
	case "setBackingTrackStopPosition":
		return h.setBackingTrackStopPosition(req)
	case "getStatus":
		return h.getStatus(req)
	case "getBackingTrackStatus":
		return h.getBackingTrackStatus(req)
	default:
		return fail(fmt.Sprintf("Unknown action: %s", req.Action))
	}
}

func (h *Handler) slotOf(req request) *modelslot.ModelSlot {
	if req.Slot != nil && *req.Slot == 1 {
		return h.Engine.SlotR
	}
	return h.Engine.SlotL
}

func (h *Handler) loadModel(req request) response {
	if req.ModelPath == "" {
		return fail("loadModel requires modelPath")
	}
	path := req.ModelPath
	if h.Catalog != nil {
		if entry, found := h.Catalog.Lookup(path); found {
			path = entry.Path
		}
	}
	h.slotOf(req).LoadAsync(path)
	return ok(nil)
}

func (h *Handler) unloadModel(req request) response {
	h.slotOf(req).UnloadAsync()
	return ok(nil)
}

func (h *Handler) setActiveModel(req request) response {
	var target *paramplane.EnumCell[paramplane.SlotIndex]
	switch req.Action {
	case "setActiveModelR":
		target = h.Engine.Params.ActiveSlotR
	default:
		target = h.Engine.Params.ActiveSlotL
	}
	if req.Slot == nil {
		return fail("setActiveModel requires slot")
	}
	target.Store(paramplane.SlotIndex(*req.Slot))
	return ok(map[string]interface{}{"slot": *req.Slot})
}

func (h *Handler) setBypassModel(req request) response {
	v := req.Enabled != nil && *req.Enabled
	both, left, right := sidesFor(req.Action, "setBypassModel")
	if both || left {
		h.Engine.Params.BypassModelL.Store(v)
	}
	if both || right {
		h.Engine.Params.BypassModelR.Store(v)
	}
	return ok(map[string]interface{}{"bypassModel": v})
}

func (h *Handler) setInputGain(req request) response {
	if req.Gain == nil {
		return fail("setInputGain requires gain")
	}
	both, left, right := sidesFor(req.Action, "setInputGain")
	clamped := h.Engine.Params.SetInputGainDB(*req.Gain, both, left, right)
	return ok(map[string]interface{}{"gain": clamped})
}

func (h *Handler) setOutputGain(req request) response {
	if req.Gain == nil {
		return fail("setOutputGain requires gain")
	}
	both, left, right := sidesFor(req.Action, "setOutputGain")
	clamped := h.Engine.Params.SetOutputGainDB(*req.Gain, both, left, right)
	return ok(map[string]interface{}{"gain": clamped})
}

func (h *Handler) setNoiseGateEnabled(req request) response {
	v := req.Enabled != nil && *req.Enabled
	both, left, right := sidesFor(req.Action, "setNoiseGateEnabled")
	if both || left {
		h.Engine.Params.NoiseGateEnabledL.Store(v)
	}
	if both || right {
		h.Engine.Params.NoiseGateEnabledR.Store(v)
	}
	return ok(map[string]interface{}{"enabled": v})
}

func (h *Handler) setNoiseGateThreshold(req request) response {
	if req.Threshold == nil {
		return fail("setNoiseGateThreshold requires threshold")
	}
	both, left, right := sidesFor(req.Action, "setNoiseGateThreshold")
	clamped := h.Engine.Params.SetNoiseGateThreshold(*req.Threshold, both, left, right)
	return ok(map[string]interface{}{"threshold": clamped})
}

func (h *Handler) setEQEnabled(req request) response {
	v := req.Enabled != nil && *req.Enabled
	both, left, right := sidesFor(req.Action, "setEQEnabled")
	if both || left {
		h.Engine.Params.EQEnabledL.Store(v)
	}
	if both || right {
		h.Engine.Params.EQEnabledR.Store(v)
	}
	return ok(map[string]interface{}{"enabled": v})
}

func (h *Handler) setEQBand(band string, req request) response {
	var gain *float64
	var base string
	switch band {
	case "bass":
		gain, base = req.Bass, "setEQBass"
	case "mid":
		gain, base = req.Mid, "setEQMid"
	default:
		gain, base = req.Treble, "setEQTreble"
	}
	if gain == nil {
		gain = req.Gain
	}
	if gain == nil {
		return fail(fmt.Sprintf("setEQ%s requires gain", band))
	}
	both, left, right := sidesFor(req.Action, base)
	clamped := h.Engine.Params.SetEQBand(band, *gain, both, left, right)
	return ok(map[string]interface{}{"gain": clamped})
}

func (h *Handler) setStereoMode(req request) response {
	mode, known := paramplane.ParseStereoMode(req.StereoMode)
	if !known {
		return fail(fmt.Sprintf("Unknown stereoMode: %s", req.StereoMode))
	}
	h.Engine.Params.StereoMode.Store(mode)
	return ok(map[string]interface{}{"stereoMode": mode.String()})
}

func (h *Handler) setStereo2MonoMix(left bool, req request) response {
	v := req.Gain
	if left && req.MixL != nil {
		v = req.MixL
	}
	if !left && req.MixR != nil {
		v = req.MixR
	}
	if v == nil {
		return fail("setStereo2MonoMix requires a mix value")
	}
	clamped := h.Engine.Params.SetStereo2MonoMix(left, *v)
	return ok(map[string]interface{}{"mix": clamped})
}

func (h *Handler) setReverbEnabled(req request) response {
	v := req.Enabled != nil && *req.Enabled
	h.Engine.Params.ReverbEnabled.Store(v)
	return ok(map[string]interface{}{"enabled": v})
}

func (h *Handler) setReverbRoomSize(req request) response {
	if req.RoomSize == nil {
		return fail("setReverbRoomSize requires roomSize")
	}
	clamped := h.Engine.Params.SetReverbRoom(*req.RoomSize)
	return ok(map[string]interface{}{"roomSize": clamped})
}

func (h *Handler) setReverbDecayTime(req request) response {
	if req.DecayTime == nil {
		return fail("setReverbDecayTime requires decayTime")
	}
	clamped := h.Engine.Params.SetReverbRT60(*req.DecayTime)
	return ok(map[string]interface{}{"decayTime": clamped})
}

func (h *Handler) setReverbMix(req request) response {
	if req.Dry == nil || req.Wet == nil {
		return fail("setReverbMix requires dry and wet")
	}
	dry, wet := h.Engine.Params.SetReverbMix(*req.Dry, *req.Wet)
	return ok(map[string]interface{}{"dry": dry, "wet": wet})
}

func (h *Handler) startRecording(req request) response {
	sr := req.SampleRate
	if sr == 0 {
		sr = 48000
	}
	path := h.Engine.Recorder.Start(req.Filename, sr)
	if path == "" {
		return fail("recording already in progress or could not be started")
	}
	return ok(map[string]interface{}{"path": path})
}

func (h *Handler) stopRecording(req request) response {
	h.Engine.Recorder.Stop()
	return ok(nil)
}

func (h *Handler) loadBackingTrack(req request) response {
	if req.Path == "" {
		return fail("loadBackingTrack requires path")
	}
	if err := h.Engine.Backing.Load(req.Path, 48000); err != nil {
		return fail(err.Error())
	}
	return ok(nil)
}

func (h *Handler) playBackingTrack(req request) response {
	h.Engine.Backing.Play()
	return ok(nil)
}

func (h *Handler) stopBackingTrack(req request) response {
	h.Engine.Backing.Stop()
	return ok(nil)
}

func (h *Handler) pauseBackingTrack(req request) response {
	h.Engine.Backing.Pause()
	return ok(nil)
}

func (h *Handler) setBackingTrackLoop(req request) response {
	v := req.Loop != nil && *req.Loop
	h.Engine.Backing.SetLoop(v)
	return ok(map[string]interface{}{"loop": v})
}

func (h *Handler) setBackingTrackVolume(req request) response {
	if req.Volume == nil {
		return fail("setBackingTrackVolume requires volume")
	}
	h.Engine.Backing.SetVolume(*req.Volume)
	return ok(map[string]interface{}{"volume": *req.Volume})
}

func (h *Handler) setBackingTrackStartPosition(req request) response {
	if req.StartPosition == nil {
		return fail("setBackingTrackStartPosition requires startPosition")
	}
	h.Engine.Backing.SetStartPosition(*req.StartPosition)
	return ok(map[string]interface{}{"startPosition": *req.StartPosition})
}

func (h *Handler) setBackingTrackStopPosition(req request) response {
	if req.StopPosition == nil {
		return fail("setBackingTrackStopPosition requires stopPosition")
	}
	h.Engine.Backing.SetStopPosition(*req.StopPosition)
	return ok(map[string]interface{}{"stopPosition": *req.StopPosition})
}

// getStatus reports the control-plane-visible target values, not the
// RT-smoothed Current() values: a setter's readback (and a status poll
// immediately afterward) must reflect the clamped value just applied, not
// whatever the one-pole smoother has settled to so far (spec §8).
func (h *Handler) getStatus(req request) response {
	st := h.Engine.Status()
	return ok(map[string]interface{}{
		"xrunCount":           st.Xruns,
		"stereoMode":          st.StereoMode,
		"globalBypass":        st.GlobalBypass,
		"slotL":               slotFields(st.SlotL),
		"slotR":               slotFields(st.SlotR),
		"recording":           st.RecorderState.Capturing,
		"droppedFrames":       st.RecorderState.DroppedFrames,
		"inputGainL":          paramplane.LinearToDB(h.Engine.Params.InputGainL.Target.Load()),
		"inputGainR":          paramplane.LinearToDB(h.Engine.Params.InputGainR.Target.Load()),
		"outputGainL":         paramplane.LinearToDB(h.Engine.Params.OutputGainL.Target.Load()),
		"outputGainR":         paramplane.LinearToDB(h.Engine.Params.OutputGainR.Target.Load()),
		"eqBassL":             h.Engine.Params.EQBassL.Target.Load(),
		"eqMidL":              h.Engine.Params.EQMidL.Target.Load(),
		"eqTrebleL":           h.Engine.Params.EQTrebleL.Target.Load(),
		"eqBassR":             h.Engine.Params.EQBassR.Target.Load(),
		"eqMidR":              h.Engine.Params.EQMidR.Target.Load(),
		"eqTrebleR":           h.Engine.Params.EQTrebleR.Target.Load(),
		"noiseGateThresholdL": h.Engine.Params.NoiseGateThreshL.Load(),
		"noiseGateThresholdR": h.Engine.Params.NoiseGateThreshR.Load(),
		"reverbEnabled":       h.Engine.Params.ReverbEnabled.Load(),
		"reverbRoom":          h.Engine.Params.ReverbRoom.Load(),
		"reverbDecay":         h.Engine.Params.ReverbRT60.Load(),
		"reverbDry":           h.Engine.Params.ReverbDry.Load(),
		"reverbWet":           h.Engine.Params.ReverbWet.Load(),
	})
}

func (h *Handler) getBackingTrackStatus(req request) response {
	st := h.Engine.Backing.Status()
	return ok(map[string]interface{}{
		"state":      st.State.String(),
		"loop":       st.Loop,
		"volume":     st.Volume,
		"position":   st.PositionS,
		"frameCount": st.FrameCount,
		"sampleRate": st.SampleRate,
	})
}

func slotFields(s modelslot.Status) map[string]interface{} {
	return map[string]interface{}{
		"state": s.State.String(),
		"path":  s.Path,
		"ready": s.Ready,
	}
}

// sidesFor derives (both, left, right) from an action-name suffix
// ("...L"/"...R"); a bare action name (no suffix) targets both channels.
func sidesFor(action, base string) (both, left, right bool) {
	switch {
	case action == base+"L":
		return false, true, false
	case action == base+"R":
		return false, false, true
	default:
		return true, false, false
	}
}
