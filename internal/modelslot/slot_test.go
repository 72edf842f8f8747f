package modelslot

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gainModel struct {
	gain float64
	trim float64
}

func (m gainModel) Process(buf []float32, n int) {
	for i := 0; i < n; i++ {
		buf[i] *= float32(m.gain)
	}
}
func (m gainModel) RecommendedOutputTrimDB() float64 { return m.trim }
func (m gainModel) SetMaxBufferSize(n int)           {}

func newTestSlot(t *testing.T, loader Loader) *ModelSlot {
	t.Helper()
	logger := log.New(io.Discard)
	s := NewModelSlot(logger, "test", loader, 128, nil)
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	s.Run(stop)
	return s
}

func waitUntilReady(t *testing.T, s *ModelSlot) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if s.IsReady() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("slot never became ready")
}

func TestModelSlotLoadAsyncBecomesReady(t *testing.T) {
	loader := func(path string) (Model, error) { return gainModel{gain: 2, trim: 0}, nil }
	s := newTestSlot(t, loader)

	s.LoadAsync("some/model.bin")
	waitUntilReady(t, s)

	assert.Equal(t, Ready, s.Status().State)
	assert.Equal(t, "some/model.bin", s.Status().Path)
}

func TestModelSlotLoadFailureLeavesEmpty(t *testing.T) {
	loader := func(path string) (Model, error) { return nil, assertError{} }
	logger := log.New(io.Discard)
	done := make(chan struct{})
	s := NewModelSlot(logger, "test", loader, 128, func(path string, err error) { close(done) })
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	s.Run(stop)

	s.LoadAsync("bad/path.bin")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("load never completed")
	}

	assert.False(t, s.IsReady())
	assert.Equal(t, Empty, s.Status().State)
}

type assertError struct{}

func (assertError) Error() string { return "load failed" }

func TestModelSlotProcessIsNoopWhenNotReady(t *testing.T) {
	loader := func(path string) (Model, error) { return gainModel{gain: 100}, nil }
	s := newTestSlot(t, loader)

	buf := []float32{0.1, 0.2, 0.3}
	s.Process(buf, len(buf), true)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, buf)
}

func TestModelSlotUnloadAsyncReturnsToEmpty(t *testing.T) {
	loader := func(path string) (Model, error) { return gainModel{gain: 1}, nil }
	s := newTestSlot(t, loader)

	s.LoadAsync("model.bin")
	waitUntilReady(t, s)

	s.UnloadAsync()
	for i := 0; i < 1000 && s.IsReady(); i++ {
		time.Sleep(time.Millisecond)
	}

	require.False(t, s.IsReady())
	assert.Equal(t, Empty, s.Status().State)
	assert.Equal(t, "", s.Status().Path)
}

func TestModelSlotHotSwapFadesOutThenInWithoutDiscontinuity(t *testing.T) {
	loader := func(path string) (Model, error) { return gainModel{gain: 1}, nil }
	s := newTestSlot(t, loader)

	s.LoadAsync("first.bin")
	waitUntilReady(t, s)

	// Drive enough periods of Process to let the fade-in from the first
	// load settle, then swap to a second model and confirm every sample
	// step during the transition stays within one fade increment.
	settle := make([]float32, FadeSamples+8)
	for i := range settle {
		settle[i] = 1
	}
	s.Process(settle, len(settle), false)

	s.LoadAsync("second.bin")

	buf := make([]float32, 8)
	var prevAbs float32
	haveLast := false
	for period := 0; period < 400; period++ {
		for i := range buf {
			buf[i] = 1
		}
		s.Process(buf, len(buf), false)
		for _, v := range buf {
			abs := v
			if abs < 0 {
				abs = -abs
			}
			if haveLast {
				diff := abs - prevAbs
				if diff < 0 {
					diff = -diff
				}
				assert.LessOrEqual(t, diff, float32(1.0/FadeSamples)+1e-3)
			}
			prevAbs = abs
			haveLast = true
		}
	}
}
