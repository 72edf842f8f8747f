package audiohost

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// portAudioHost is the portable fallback backend for platforms without
// ALSA, using gordonklaus/portaudio's stereo interleaved float32 stream.
type portAudioHost struct {
	cfg    Config
	stream *portaudio.Stream
}

func newPortAudioHost(cfg Config) (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audiohost: portaudio init: %w", err)
	}
	return &portAudioHost{cfg: cfg}, nil
}

func (h *portAudioHost) Config() Config { return h.cfg }

func (h *portAudioHost) Start(ctx context.Context, process func(in, out []float32, frames int)) error {
	frames := h.cfg.FramesPerIO

	callback := func(in, out []float32) {
		process(in, out, frames)
	}

	params := portaudio.LowLatencyParameters(nil, nil)
	params.Input.Channels = h.cfg.Channels
	params.Output.Channels = h.cfg.Channels
	params.SampleRate = float64(h.cfg.SampleRate)
	params.FramesPerBuffer = frames

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return fmt.Errorf("audiohost: open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return fmt.Errorf("audiohost: start portaudio stream: %w", err)
	}
	h.stream = stream

	go func() {
		<-ctx.Done()
		h.Stop()
	}()

	return nil
}

func (h *portAudioHost) Stop() error {
	if h.stream == nil {
		return nil
	}
	err := h.stream.Stop()
	h.stream.Close()
	portaudio.Terminate()
	return err
}
