// Package config persists the engine's runtime parameters as a single
// JSON object, replacing the pack's legacy line-oriented config.go with a
// format the control façade and web UI can round-trip directly (spec §6
// "Configuration persistence").
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Runtime is the recognised subset of runtime.json (spec §6's default
// table). Fields are plain values decoded over Defaults(), so a key absent
// from the file keeps its default, and none uses omitempty, so every
// recognised key is always written back out explicitly.
type Runtime struct {
	ActiveSlot int    `json:"activeSlot"`
	Slot0Model string `json:"slot0Model"`
	Slot1Model string `json:"slot1Model"`

	BypassModel  bool `json:"bypassModel"`
	BypassModelL bool `json:"bypassModelL"`
	BypassModelR bool `json:"bypassModelR"`

	StereoMode string `json:"stereoMode"`

	InputGain   float64 `json:"inputGain"`
	InputGainL  float64 `json:"inputGainL"`
	InputGainR  float64 `json:"inputGainR"`
	OutputGain  float64 `json:"outputGain"`
	OutputGainL float64 `json:"outputGainL"`
	OutputGainR float64 `json:"outputGainR"`

	NoiseGateEnabled    bool    `json:"noiseGateEnabled"`
	NoiseGateThreshold  float64 `json:"noiseGateThreshold"`
	NoiseGateEnabledL   bool    `json:"noiseGateEnabledL"`
	NoiseGateThresholdL float64 `json:"noiseGateThresholdL"`
	NoiseGateEnabledR   bool    `json:"noiseGateEnabledR"`
	NoiseGateThresholdR float64 `json:"noiseGateThresholdR"`

	EQEnabled  bool    `json:"eqEnabled"`
	EQBass     float64 `json:"eqBass"`
	EQMid      float64 `json:"eqMid"`
	EQTreble   float64 `json:"eqTreble"`
	EQEnabledL bool    `json:"eqEnabledL"`
	EQBassL    float64 `json:"eqBassL"`
	EQMidL     float64 `json:"eqMidL"`
	EQTrebleL  float64 `json:"eqTrebleL"`
	EQEnabledR bool    `json:"eqEnabledR"`
	EQBassR    float64 `json:"eqBassR"`
	EQMidR     float64 `json:"eqMidR"`
	EQTrebleR  float64 `json:"eqTrebleR"`

	ReverbEnabled bool    `json:"reverbEnabled"`
	ReverbRoom    float64 `json:"reverbRoom"`
	ReverbDecay   float64 `json:"reverbDecay"`
	ReverbDry     float64 `json:"reverbDry"`
	ReverbWet     float64 `json:"reverbWet"`

	Stereo2MonoMixL float64 `json:"stereo2MonoMixL"`
	Stereo2MonoMixR float64 `json:"stereo2MonoMixR"`
}

// Defaults returns the spec §6 default table.
func Defaults() Runtime {
	return Runtime{
		ActiveSlot:          0,
		BypassModelR:        true,
		StereoMode:          "LeftMono2Stereo",
		NoiseGateThreshold:  -40,
		NoiseGateThresholdL: -40,
		NoiseGateThresholdR: -40,
		ReverbRoom:          0.3,
		ReverbDecay:         2.0,
		ReverbDry:           1.0,
		ReverbWet:           0.3,
		Stereo2MonoMixL:     0.5,
		Stereo2MonoMixR:     0.5,
	}
}

// Store loads and persists runtime.json at <configDir>/runtime.json,
// preserving any keys it does not recognise (spec §6 "Unknown keys are
// preserved on write").
type Store struct {
	log  *log.Logger
	path string

	unknown map[string]json.RawMessage
}

func NewStore(logger *log.Logger, configDir string) *Store {
	return &Store{log: logger, path: filepath.Join(configDir, "runtime.json")}
}

// Load reads runtime.json, returning Defaults() if the file does not exist
// yet and otherwise the file decoded over Defaults(). Recognised fields are
// decoded into Runtime;
// everything else is kept in s.unknown for round-tripping on Save.
func (s *Store) Load() (Runtime, error) {
	rt := Defaults()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.Warn("no runtime config found, using defaults", "path", s.path)
		return rt, nil
	}
	if err != nil {
		return rt, fmt.Errorf("config: reading %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, &rt); err != nil {
		return rt, fmt.Errorf("config: parsing %s: %w", s.path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		known := recognisedKeys(rt)
		s.unknown = make(map[string]json.RawMessage)
		for k, v := range raw {
			if !known[k] {
				s.unknown[k] = v
			}
		}
	}

	return rt, nil
}

// Save writes rt back to runtime.json, merging in any unknown keys
// observed at Load time.
func (s *Store) Save(rt Runtime) error {
	known, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("config: marshalling runtime: %w", err)
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return err
	}
	for k, v := range s.unknown {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("config: creating dir: %w", err)
	}

	return os.WriteFile(s.path, out, 0o644)
}

func recognisedKeys(rt Runtime) map[string]bool {
	data, _ := json.Marshal(rt)
	var raw map[string]json.RawMessage
	json.Unmarshal(data, &raw)
	out := make(map[string]bool, len(raw))
	for k := range raw {
		out[k] = true
	}
	return out
}
