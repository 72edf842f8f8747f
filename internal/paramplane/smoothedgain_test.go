package paramplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothedGainConvergesToTarget(t *testing.T) {
	g := NewSmoothedGain(1.0)
	g.Target.Store(2.0)

	for i := 0; i < 20000; i++ {
		g.Advance()
	}

	assert.InDelta(t, 2.0, g.Current(), 0.01)
}

func TestSmoothedGainNeverJumpsInOnePeriod(t *testing.T) {
	g := NewSmoothedGain(0)
	g.Target.Store(1.0)
	next := g.Advance()

	assert.Less(t, next, 1.0)
	assert.InDelta(t, 1-SmoothingAlpha, next, 1e-9)
}

func TestDBToLinearRoundTrip(t *testing.T) {
	for _, db := range []float64{-40, -12, -6, 0, 6, 12, 40} {
		linear := DBToLinear(db)
		assert.InDelta(t, db, LinearToDB(linear), 1e-9)
	}
}

func TestLinearToDBNeverReturnsInfOrNaN(t *testing.T) {
	assert.Equal(t, -120.0, LinearToDB(0))
	assert.Equal(t, -120.0, LinearToDB(-5))
}
