package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingWriteThenReadPreservesOrder(t *testing.T) {
	r := newRing()
	in := []float32{1, 2, 3, 4, 5, 6}
	r.write(in)

	out := make([]float32, len(in))
	n := r.readInto(out)

	assert.Equal(t, len(in), n)
	assert.Equal(t, in, out)
}

func TestRingAvailableToWriteShrinksAfterWrite(t *testing.T) {
	r := newRing()
	before := r.availableToWrite()
	r.write(make([]float32, 100))
	after := r.availableToWrite()

	assert.Equal(t, before-100, after)
}

func TestRingReadIntoPartialDrainReturnsOnlyAvailable(t *testing.T) {
	r := newRing()
	r.write([]float32{1, 2, 3})

	out := make([]float32, 10)
	n := r.readInto(out)

	assert.Equal(t, 3, n)
}

func TestRingSteadyStateNoOverrun(t *testing.T) {
	r := newRing()
	// Simulate many periods of push-then-drain at a rate well under
	// capacity; available-to-write should never go negative.
	batch := make([]float32, 256)
	drain := make([]float32, 256)
	for i := 0; i < 10000; i++ {
		if r.availableToWrite() >= len(batch) {
			r.write(batch)
		}
		r.readInto(drain)
	}
	assert.GreaterOrEqual(t, r.availableToWrite(), 0)
}
