package paramplane

// Clamp ranges from spec §4.7 "Setters clamp to their documented ranges".
const (
	InputOutputGainDBLimit = 40.0
	GenericGainDBLimit     = 20.0
	GateThresholdMinDB     = -60.0
	GateThresholdMaxDB     = 0.0
	ReverbRoomMin          = 0.0
	ReverbRoomMax          = 1.0
	ReverbRT60Min          = 0.1
	ReverbRT60Max          = 10.0
	MixMin                 = 0.0
	MixMax                 = 1.0
)

// Registry holds every mutable control in the engine as a lock-free cell.
// Non-RT threads call the Set* methods; the RT path calls the Load() methods
// on the embedded cells directly (there is no Get* wrapper layer on the hot
// path — one less indirection between the RT reader and the atomic load).
type Registry struct {
	GlobalBypass *BoolCell

	StereoMode      *EnumCell[StereoMode]
	Stereo2MonoMixL *FloatCell
	Stereo2MonoMixR *FloatCell

	InputGainL  *SmoothedGain
	InputGainR  *SmoothedGain
	OutputGainL *SmoothedGain
	OutputGainR *SmoothedGain

	BypassModelL *BoolCell
	BypassModelR *BoolCell
	ActiveSlotL  *EnumCell[SlotIndex]
	ActiveSlotR  *EnumCell[SlotIndex]

	NoiseGateEnabledL  *BoolCell
	NoiseGateEnabledR  *BoolCell
	NoiseGateThreshold *FloatCell // last value stored by SetNoiseGateThreshold on any side; the engine reads only the L/R cells
	NoiseGateThreshL   *FloatCell
	NoiseGateThreshR   *FloatCell

	EQEnabledL *BoolCell
	EQEnabledR *BoolCell
	EQBassL    *SmoothedGain
	EQMidL     *SmoothedGain
	EQTrebleL  *SmoothedGain
	EQBassR    *SmoothedGain
	EQMidR     *SmoothedGain
	EQTrebleR  *SmoothedGain

	DCBlockEnabledL *BoolCell
	DCBlockEnabledR *BoolCell

	ReverbEnabled *BoolCell
	ReverbRoom    *FloatCell
	ReverbRT60    *FloatCell
	ReverbDry     *FloatCell
	ReverbWet     *FloatCell

	BackingTrackEnabledForRecording *BoolCell
}

// SlotIndex selects one of the engine's two model slots (spec §4.2 "Two
// slots per engine").
type SlotIndex int32

const (
	Slot0 SlotIndex = 0
	Slot1 SlotIndex = 1
)

// NewRegistry builds a Registry at the documented defaults (spec §6
// "Configuration persistence ... Recognised options and defaults").
func NewRegistry() *Registry {
	return &Registry{
		GlobalBypass: NewBoolCell(false),

		StereoMode:      NewEnumCell(LeftMonoToStereo),
		Stereo2MonoMixL: NewFloatCell(0.5),
		Stereo2MonoMixR: NewFloatCell(0.5),

		InputGainL:  NewSmoothedGain(1.0),
		InputGainR:  NewSmoothedGain(1.0),
		OutputGainL: NewSmoothedGain(1.0),
		OutputGainR: NewSmoothedGain(1.0),

		BypassModelL: NewBoolCell(false),
		BypassModelR: NewBoolCell(true), // R defaults true per spec §6
		ActiveSlotL:  NewEnumCell(Slot0),
		ActiveSlotR:  NewEnumCell(Slot0),

		NoiseGateEnabledL:  NewBoolCell(false),
		NoiseGateEnabledR:  NewBoolCell(false),
		NoiseGateThreshold: NewFloatCell(-40),
		NoiseGateThreshL:   NewFloatCell(-40),
		NoiseGateThreshR:   NewFloatCell(-40),

		EQEnabledL: NewBoolCell(false),
		EQEnabledR: NewBoolCell(false),
		EQBassL:    NewSmoothedGain(0),
		EQMidL:     NewSmoothedGain(0),
		EQTrebleL:  NewSmoothedGain(0),
		EQBassR:    NewSmoothedGain(0),
		EQMidR:     NewSmoothedGain(0),
		EQTrebleR:  NewSmoothedGain(0),

		DCBlockEnabledL: NewBoolCell(true),
		DCBlockEnabledR: NewBoolCell(true),

		ReverbEnabled: NewBoolCell(false),
		ReverbRoom:    NewFloatCell(0.3),
		ReverbRT60:    NewFloatCell(2.0),
		ReverbDry:     NewFloatCell(1.0),
		ReverbWet:     NewFloatCell(0.3),

		BackingTrackEnabledForRecording: NewBoolCell(false),
	}
}

// SetInputGainDB clamps dB to +/-40 and stores the linear target.
func (r *Registry) SetInputGainDB(db float64, both, left, right bool) float64 {
	clamped := clampDB(db, InputOutputGainDBLimit)
	linear := DBToLinear(clamped)
	if both || left {
		r.InputGainL.Target.Store(linear)
	}
	if both || right {
		r.InputGainR.Target.Store(linear)
	}
	return clamped
}

// SetOutputGainDB mirrors SetInputGainDB for the output-gain stage.
func (r *Registry) SetOutputGainDB(db float64, both, left, right bool) float64 {
	clamped := clampDB(db, InputOutputGainDBLimit)
	linear := DBToLinear(clamped)
	if both || left {
		r.OutputGainL.Target.Store(linear)
	}
	if both || right {
		r.OutputGainR.Target.Store(linear)
	}
	return clamped
}

// SetNoiseGateThreshold clamps to [-60, 0] dB (spec §4.7) and forwards to
// both channels when neither L nor R is specified, following the legacy
// "single field drives L and R" shape the source uses (spec §9 open
// question 3) while keeping true per-channel storage underneath.
func (r *Registry) SetNoiseGateThreshold(db float64, both, left, right bool) float64 {
	clamped := clampRange(db, GateThresholdMinDB, GateThresholdMaxDB)
	r.NoiseGateThreshold.Store(clamped)
	if both || left {
		r.NoiseGateThreshL.Store(clamped)
	}
	if both || right {
		r.NoiseGateThreshR.Store(clamped)
	}
	return clamped
}

// SetEQBand clamps an EQ band gain to +/-20dB and stores it as a smoothed
// target for the named band ("bass", "mid", "treble") on the requested
// channel(s).
func (r *Registry) SetEQBand(band string, db float64, both, left, right bool) float64 {
	clamped := clampDB(db, GenericGainDBLimit)
	if both || left {
		r.eqCellFor(band, false).Target.Store(clamped)
	}
	if both || right {
		r.eqCellFor(band, true).Target.Store(clamped)
	}
	return clamped
}

func (r *Registry) eqCellFor(band string, rightChannel bool) *SmoothedGain {
	switch band {
	case "bass":
		if rightChannel {
			return r.EQBassR
		}
		return r.EQBassL
	case "mid":
		if rightChannel {
			return r.EQMidR
		}
		return r.EQMidL
	default: // "treble"
		if rightChannel {
			return r.EQTrebleR
		}
		return r.EQTrebleL
	}
}

// SetReverbRoom clamps room size to [0,1].
func (r *Registry) SetReverbRoom(v float64) float64 {
	clamped := clampRange(v, ReverbRoomMin, ReverbRoomMax)
	r.ReverbRoom.Store(clamped)
	return clamped
}

// SetReverbRT60 clamps decay time to [0.1, 10] seconds.
func (r *Registry) SetReverbRT60(v float64) float64 {
	clamped := clampRange(v, ReverbRT60Min, ReverbRT60Max)
	r.ReverbRT60.Store(clamped)
	return clamped
}

// SetReverbMix clamps dry/wet mix to [0,1].
func (r *Registry) SetReverbMix(dry, wet float64) (float64, float64) {
	d := clampRange(dry, MixMin, MixMax)
	w := clampRange(wet, MixMin, MixMax)
	r.ReverbDry.Store(d)
	r.ReverbWet.Store(w)
	return d, w
}

// SetStereo2MonoMix clamps mixL/mixR to [0,1] (spec §4.7).
func (r *Registry) SetStereo2MonoMix(left bool, v float64) float64 {
	clamped := clampRange(v, MixMin, MixMax)
	if left {
		r.Stereo2MonoMixL.Store(clamped)
	} else {
		r.Stereo2MonoMixR.Store(clamped)
	}
	return clamped
}

func clampDB(db, limit float64) float64 {
	return clampRange(db, -limit, limit)
}

func clampRange(v, lo, hi float64) float64 {
	switch {
	case v != v: // NaN
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
