package paramplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStereoModeRoundTrips(t *testing.T) {
	modes := []StereoMode{LeftMonoToStereo, RightMonoToStereo, StereoToMono, TrueStereo}
	for _, m := range modes {
		parsed, ok := ParseStereoMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, parsed)
	}
}

func TestParseStereoModeRejectsUnknown(t *testing.T) {
	_, ok := ParseStereoMode("SomeOtherMode")
	assert.False(t, ok)
}
