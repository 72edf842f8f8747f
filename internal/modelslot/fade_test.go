package modelslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFadeEnvelopeFadeOutReachesZeroWithinFadeSamples(t *testing.T) {
	f := NewFadeEnvelope()
	f.SetIdle(1.0)
	f.RequestFadeOut()

	var last float64
	for i := 0; i < FadeSamples+1; i++ {
		last = f.Step()
	}

	assert.Equal(t, 0.0, last)

	select {
	case <-f.FadeOutDone():
	default:
		t.Fatal("expected fade-out completion signal")
	}
}

func TestFadeEnvelopeStepNeverJumpsMoreThanOneIncrement(t *testing.T) {
	f := NewFadeEnvelope()
	f.SetIdle(1.0)
	f.RequestFadeOut()

	prev := f.Step()
	const maxStep = 1.0/FadeSamples + 1e-9
	for i := 1; i < FadeSamples; i++ {
		next := f.Step()
		assert.LessOrEqual(t, prev-next, maxStep)
		prev = next
	}
}

func TestFadeEnvelopeFadeInReachesUnity(t *testing.T) {
	f := NewFadeEnvelope()
	f.SetIdle(0.0)
	f.RequestFadeIn()

	var last float64
	for i := 0; i < FadeSamples+1; i++ {
		last = f.Step()
	}

	assert.Equal(t, 1.0, last)

	select {
	case <-f.FadeInDone():
	default:
		t.Fatal("expected fade-in completion signal")
	}
}

func TestFadeEnvelopeIdleHoldsGainSteady(t *testing.T) {
	f := NewFadeEnvelope()
	f.SetIdle(0.7)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 0.7, f.Step())
	}
}
