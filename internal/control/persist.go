package control

import (
	"github.com/kidproquo/hoopipi/internal/config"
	"github.com/kidproquo/hoopipi/internal/paramplane"
)

func slotIndexFromInt(i int) paramplane.SlotIndex {
	if i == 1 {
		return paramplane.Slot1
	}
	return paramplane.Slot0
}

func modeFromString(s string) (paramplane.StereoMode, bool) {
	return paramplane.ParseStereoMode(s)
}

// SaveConfig snapshots the live parameter plane into a config.Runtime and
// persists it via h.Store, so control changes survive a restart (spec §6
// "Configuration persistence"). Called on graceful shutdown and may also be
// invoked by a future "saveConfig" action without changing its shape.
func (h *Handler) SaveConfig() error {
	p := h.Engine.Params

	rt := config.Defaults()
	rt.ActiveSlot = int(p.ActiveSlotL.Load())
	rt.BypassModelL = p.BypassModelL.Load()
	rt.BypassModelR = p.BypassModelR.Load()
	rt.StereoMode = p.StereoMode.Load().String()

	// Persist the targets set via the control plane, not the RT-smoothed
	// Current() values: a save immediately after a setter call must
	// round-trip the value just applied, not whatever the one-pole
	// smoother has settled to so far (spec §8).
	rt.InputGainL = paramplane.LinearToDB(p.InputGainL.Target.Load())
	rt.InputGainR = paramplane.LinearToDB(p.InputGainR.Target.Load())
	rt.OutputGainL = paramplane.LinearToDB(p.OutputGainL.Target.Load())
	rt.OutputGainR = paramplane.LinearToDB(p.OutputGainR.Target.Load())

	rt.NoiseGateEnabledL = p.NoiseGateEnabledL.Load()
	rt.NoiseGateEnabledR = p.NoiseGateEnabledR.Load()
	rt.NoiseGateThresholdL = p.NoiseGateThreshL.Load()
	rt.NoiseGateThresholdR = p.NoiseGateThreshR.Load()

	rt.EQEnabledL = p.EQEnabledL.Load()
	rt.EQBassL = p.EQBassL.Target.Load()
	rt.EQMidL = p.EQMidL.Target.Load()
	rt.EQTrebleL = p.EQTrebleL.Target.Load()
	rt.EQEnabledR = p.EQEnabledR.Load()
	rt.EQBassR = p.EQBassR.Target.Load()
	rt.EQMidR = p.EQMidR.Target.Load()
	rt.EQTrebleR = p.EQTrebleR.Target.Load()

	rt.ReverbEnabled = p.ReverbEnabled.Load()
	rt.ReverbRoom = p.ReverbRoom.Load()
	rt.ReverbDecay = p.ReverbRT60.Load()
	rt.ReverbDry = p.ReverbDry.Load()
	rt.ReverbWet = p.ReverbWet.Load()

	rt.Stereo2MonoMixL = p.Stereo2MonoMixL.Load()
	rt.Stereo2MonoMixR = p.Stereo2MonoMixR.Load()

	return h.Store.Save(rt)
}

// LoadConfig applies a previously persisted Runtime onto the live parameter
// plane at startup.
func (h *Handler) LoadConfig(rt config.Runtime) {
	p := h.Engine.Params

	p.ActiveSlotL.Store(slotIndexFromInt(rt.ActiveSlot))
	p.BypassModelL.Store(rt.BypassModelL)
	p.BypassModelR.Store(rt.BypassModelR)
	if mode, ok := modeFromString(rt.StereoMode); ok {
		p.StereoMode.Store(mode)
	}

	p.SetInputGainDB(rt.InputGainL, false, true, false)
	p.SetInputGainDB(rt.InputGainR, false, false, true)
	p.SetOutputGainDB(rt.OutputGainL, false, true, false)
	p.SetOutputGainDB(rt.OutputGainR, false, false, true)

	p.NoiseGateEnabledL.Store(rt.NoiseGateEnabledL)
	p.NoiseGateEnabledR.Store(rt.NoiseGateEnabledR)
	p.SetNoiseGateThreshold(rt.NoiseGateThresholdL, false, true, false)
	p.SetNoiseGateThreshold(rt.NoiseGateThresholdR, false, false, true)

	p.EQEnabledL.Store(rt.EQEnabledL)
	p.SetEQBand("bass", rt.EQBassL, false, true, false)
	p.SetEQBand("mid", rt.EQMidL, false, true, false)
	p.SetEQBand("treble", rt.EQTrebleL, false, true, false)
	p.EQEnabledR.Store(rt.EQEnabledR)
	p.SetEQBand("bass", rt.EQBassR, false, false, true)
	p.SetEQBand("mid", rt.EQMidR, false, false, true)
	p.SetEQBand("treble", rt.EQTrebleR, false, false, true)

	p.ReverbEnabled.Store(rt.ReverbEnabled)
	p.SetReverbRoom(rt.ReverbRoom)
	p.SetReverbRT60(rt.ReverbDecay)
	p.SetReverbMix(rt.ReverbDry, rt.ReverbWet)

	p.SetStereo2MonoMix(true, rt.Stereo2MonoMixL)
	p.SetStereo2MonoMix(false, rt.Stereo2MonoMixR)
}
