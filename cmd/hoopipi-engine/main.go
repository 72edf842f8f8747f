// Command hoopipi-engine runs the real-time guitar DSP engine: it opens an
// audio device, wires the engine to the parameter plane, and serves the
// control façade on a local TCP port.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kidproquo/hoopipi/internal/audiohost"
	"github.com/kidproquo/hoopipi/internal/backingtrack"
	"github.com/kidproquo/hoopipi/internal/config"
	"github.com/kidproquo/hoopipi/internal/control"
	"github.com/kidproquo/hoopipi/internal/engine"
	"github.com/kidproquo/hoopipi/internal/hplog"
	"github.com/kidproquo/hoopipi/internal/modelcatalog"
	"github.com/kidproquo/hoopipi/internal/modelslot"
	"github.com/kidproquo/hoopipi/internal/recorder"
)

func main() {
	var (
		backend    = pflag.StringP("backend", "b", "portaudio", "Audio backend: alsa or portaudio.")
		sampleRate = pflag.IntP("sample-rate", "r", 48000, "Audio sample rate, per sec.")
		period     = pflag.IntP("period", "n", 128, "Frames per period.")
		inputDev   = pflag.String("input-device", "default", "Input device name.")
		outputDev  = pflag.String("output-device", "default", "Output device name.")
		configDir  = pflag.StringP("config-dir", "c", ".", "Directory holding runtime.json.")
		recordDir  = pflag.StringP("record-dir", "R", "recordings", "Directory for recorder output.")
		controlAddr = pflag.StringP("control-addr", "l", "127.0.0.1:7878", "Control façade listen address.")
		logLevel   = pflag.String("log-level", "info", "Log level: debug, info, warn, error.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "hoopipi-engine - real-time guitar amp/effects DSP engine.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := hplog.New(os.Stderr, *logLevel)

	catalog, err := modelcatalog.Load(logger)
	if err != nil {
		logger.Error("loading model catalog", "err", err)
		os.Exit(1)
	}
	logger.Info("model catalog ready", "count", len(catalog.List()))

	store := config.NewStore(logger, *configDir)
	runtime, err := store.Load()
	if err != nil {
		logger.Error("loading runtime config", "err", err)
		os.Exit(1)
	}

	loader := unconfiguredModelLoader()

	slotL := modelslot.NewModelSlot(logger, "L", loader, *period, func(path string, err error) {
		if err != nil {
			logger.Error("model load failed", "slot", "L", "path", path, "err", err)
		}
	})
	slotR := modelslot.NewModelSlot(logger, "R", loader, *period, func(path string, err error) {
		if err != nil {
			logger.Error("model load failed", "slot", "R", "path", path, "err", err)
		}
	})

	stop := make(chan struct{})
	slotL.Run(stop)
	slotR.Run(stop)

	rec := recorder.New(logger, *recordDir, *period)
	backing := backingtrack.New(logger)

	eng := engine.New(logger, float64(*sampleRate), *period, slotL, slotR, rec, backing)

	handler := &control.Handler{Engine: eng, Store: store, Catalog: catalog}
	handler.LoadConfig(runtime)

	if runtime.Slot0Model != "" {
		if entry, ok := catalog.Lookup(runtime.Slot0Model); ok {
			slotL.LoadAsync(entry.Path)
		} else {
			slotL.LoadAsync(runtime.Slot0Model)
		}
	}
	if runtime.Slot1Model != "" {
		if entry, ok := catalog.Lookup(runtime.Slot1Model); ok {
			slotR.LoadAsync(entry.Path)
		} else {
			slotR.LoadAsync(runtime.Slot1Model)
		}
	}

	hostCfg := audiohost.Config{
		InputDevice:  *inputDev,
		OutputDevice: *outputDev,
		SampleRate:   *sampleRate,
		Channels:     2,
		FramesPerIO:  *period,
	}

	host, err := audiohost.Open(audiohost.Backend(*backend), hostCfg)
	if err != nil {
		logger.Error("opening audio backend", "backend", *backend, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inL := make([]float32, *period)
	inR := make([]float32, *period)
	outL := make([]float32, *period)
	outR := make([]float32, *period)

	process := func(in, out []float32, frames int) {
		for i := 0; i < frames; i++ {
			inL[i] = in[2*i]
			inR[i] = in[2*i+1]
		}
		eng.ProcessStereo(inL[:frames], inR[:frames], outL[:frames], outR[:frames], frames)
		for i := 0; i < frames; i++ {
			out[2*i] = outL[i]
			out[2*i+1] = outR[i]
		}
	}

	if err := host.Start(ctx, process); err != nil {
		logger.Error("starting audio stream", "err", err)
		os.Exit(1)
	}
	logger.Info("audio stream started", "backend", *backend, "sampleRate", *sampleRate, "period", *period)

	srv := control.NewServer(logger, handler)
	go func() {
		if err := srv.ListenAndServe(*controlAddr); err != nil {
			logger.Error("control façade stopped", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	srv.Close()
	_ = host.Stop()
	close(stop)

	if err := handler.SaveConfig(); err != nil {
		logger.Error("saving runtime config", "err", err)
	}
}

// unconfiguredModelLoader is the default modelslot.Loader: the neural
// inference library itself is an external collaborator this module does not
// depend on, so every load attempt fails until a real loader is injected by
// a build that vendors one.
func unconfiguredModelLoader() modelslot.Loader {
	return func(path string) (modelslot.Model, error) {
		return nil, fmt.Errorf("no neural model backend configured, cannot load %s", path)
	}
}
