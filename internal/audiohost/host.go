// Package audiohost abstracts the platform sound device behind a single
// Host interface, the way the pack's audio.go multiplexes ALSA/OSS/sndio
// behind one set of audio_open/audio_get/audio_put entry points. Two
// concrete backends are provided: a cgo ALSA backend for Linux, and a
// gordonklaus/portaudio backend for everything else.
package audiohost

import "context"

// Config mirrors the pack's audio_s fields that matter to us: channel
// count, sample rate, and the requested period size in frames.
type Config struct {
	InputDevice  string
	OutputDevice string
	SampleRate   int
	Channels     int
	FramesPerIO  int // frames per period, e.g. 128 for ~2.7ms at 48kHz
}

// DefaultConfig mirrors the pack's DEFAULT_* audio constants, adapted to
// a low-latency stereo guitar signal chain.
func DefaultConfig() Config {
	return Config{
		InputDevice:  "default",
		OutputDevice: "default",
		SampleRate:   48000,
		Channels:     2,
		FramesPerIO:  128,
	}
}

// Host is an open full-duplex audio stream. Process is invoked once per
// period on the host's own real-time thread; it must not allocate, log,
// take a lock, or block. in/out are interleaved per Config.Channels,
// length Config.FramesPerIO*Config.Channels.
type Host interface {
	Start(ctx context.Context, process func(in, out []float32, frames int)) error
	Stop() error
	Config() Config
}

// Backend selects which concrete Host implementation Open constructs.
type Backend string

const (
	BackendALSA      Backend = "alsa"
	BackendPortAudio Backend = "portaudio"
)

// Open constructs the requested backend without starting the stream.
func Open(backend Backend, cfg Config) (Host, error) {
	switch backend {
	case BackendALSA:
		return newALSAHost(cfg)
	case BackendPortAudio:
		return newPortAudioHost(cfg)
	default:
		return newPortAudioHost(cfg)
	}
}
