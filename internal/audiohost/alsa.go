//go:build linux

package audiohost

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"
)

// alsaHost opens full-duplex interleaved float32 streams via ALSA, the
// way the pack's audio_open/set_alsa_params sets up SND_PCM_FORMAT_S16_LE
// streams, adapted to SND_PCM_FORMAT_FLOAT_LE interleaved buffers and a
// much shorter period for real-time guitar latency.
type alsaHost struct {
	cfg Config

	in  *C.snd_pcm_t
	out *C.snd_pcm_t
}

func newALSAHost(cfg Config) (Host, error) {
	return &alsaHost{cfg: cfg}, nil
}

func (h *alsaHost) Config() Config { return h.cfg }

func (h *alsaHost) openStream(deviceName string, stream C.snd_pcm_stream_t) (*C.snd_pcm_t, error) {
	cname := C.CString(deviceName)
	defer C.free(unsafe.Pointer(cname))

	var handle *C.snd_pcm_t
	if err := C.snd_pcm_open(&handle, cname, stream, 0); err < 0 {
		return nil, fmt.Errorf("audiohost: snd_pcm_open %s: %s", deviceName, C.GoString(C.snd_strerror(err)))
	}

	var params *C.snd_pcm_hw_params_t
	C.snd_pcm_hw_params_malloc(&params)
	defer C.snd_pcm_hw_params_free(params)

	C.snd_pcm_hw_params_any(handle, params)
	C.snd_pcm_hw_params_set_access(handle, params, C.SND_PCM_ACCESS_RW_INTERLEAVED)
	C.snd_pcm_hw_params_set_format(handle, params, C.SND_PCM_FORMAT_FLOAT_LE)
	C.snd_pcm_hw_params_set_channels(handle, params, C.uint(h.cfg.Channels))

	rate := C.uint(h.cfg.SampleRate)
	var dir C.int
	if err := C.snd_pcm_hw_params_set_rate_near(handle, params, &rate, &dir); err < 0 {
		return nil, fmt.Errorf("audiohost: set rate near: %s", C.GoString(C.snd_strerror(err)))
	}

	frames := C.snd_pcm_uframes_t(h.cfg.FramesPerIO)
	if err := C.snd_pcm_hw_params_set_period_size_near(handle, params, &frames, &dir); err < 0 {
		return nil, fmt.Errorf("audiohost: set period size near: %s", C.GoString(C.snd_strerror(err)))
	}

	if err := C.snd_pcm_hw_params(handle, params); err < 0 {
		return nil, fmt.Errorf("audiohost: apply hw params: %s", C.GoString(C.snd_strerror(err)))
	}

	return handle, nil
}

func (h *alsaHost) Start(ctx context.Context, process func(in, out []float32, frames int) ) error {
	in, err := h.openStream(h.cfg.InputDevice, C.SND_PCM_STREAM_CAPTURE)
	if err != nil {
		return err
	}
	out, err := h.openStream(h.cfg.OutputDevice, C.SND_PCM_STREAM_PLAYBACK)
	if err != nil {
		C.snd_pcm_close(in)
		return err
	}
	h.in, h.out = in, out

	frames := h.cfg.FramesPerIO
	samples := frames * h.cfg.Channels
	inBuf := make([]float32, samples)
	outBuf := make([]float32, samples)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n := C.snd_pcm_readi(h.in, unsafe.Pointer(&inBuf[0]), C.snd_pcm_uframes_t(frames))
			if n < 0 {
				C.snd_pcm_recover(h.in, C.int(n), 1)
				continue
			}
			got := int(n)

			process(inBuf[:got*h.cfg.Channels], outBuf[:got*h.cfg.Channels], got)

			w := C.snd_pcm_writei(h.out, unsafe.Pointer(&outBuf[0]), C.snd_pcm_uframes_t(got))
			if w < 0 {
				C.snd_pcm_recover(h.out, C.int(w), 1)
			}
		}
	}()

	return nil
}

func (h *alsaHost) Stop() error {
	if h.in != nil {
		C.snd_pcm_drop(h.in)
		C.snd_pcm_close(h.in)
	}
	if h.out != nil {
		C.snd_pcm_drain(h.out)
		C.snd_pcm_close(h.out)
	}
	return nil
}
