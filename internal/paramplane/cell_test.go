package paramplane

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFloatCellStoreClampedAlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.Float64Range(-100, 0).Draw(rt, "lo")
		hi := rapid.Float64Range(lo, lo+200).Draw(rt, "hi")
		v := rapid.Float64Range(-1e6, 1e6).Draw(rt, "v")

		c := NewFloatCell(0)
		got := c.StoreClamped(v, lo, hi)

		assert.GreaterOrEqual(t, got, lo)
		assert.LessOrEqual(t, got, hi)
		assert.Equal(t, got, c.Load())
	})
}

func TestFloatCellStoreClampedRejectsNaN(t *testing.T) {
	c := NewFloatCell(5)
	got := c.StoreClamped(math.NaN(), -10, 10)
	assert.Equal(t, 0.0, got)
}

func TestBoolCellRoundTrips(t *testing.T) {
	c := NewBoolCell(false)
	assert.False(t, c.Load())
	c.Store(true)
	assert.True(t, c.Load())
}

func TestStringCellRoundTrips(t *testing.T) {
	c := NewStringCell("")
	assert.Equal(t, "", c.Load())
	c.Store("/models/amp.bin")
	assert.Equal(t, "/models/amp.bin", c.Load())
}

type fakeEnum int32

const (
	fakeA fakeEnum = iota
	fakeB
)

func TestEnumCellRoundTrips(t *testing.T) {
	c := NewEnumCell[fakeEnum](fakeA)
	assert.Equal(t, fakeA, c.Load())
	c.Store(fakeB)
	assert.Equal(t, fakeB, c.Load())
}
