package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()

	updated := false
	// 61 frames of 1/60s push the accumulator past one second.
	for i := 0; i < 61; i++ {
		if m.Update(1.0 / 60.0) {
			updated = true
		}
	}
	assert.True(t, updated)
	assert.InDelta(t, 61, m.FPS(), 1)
	assert.InDelta(t, 1000.0/60.0, m.FrameTime(), 0.001)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("Warn")
	assert.NoError(t, err)
	assert.Equal(t, WarnLevel, level)

	level, err = ParseLogLevel("")
	assert.NoError(t, err)
	assert.Equal(t, InfoLevel, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
