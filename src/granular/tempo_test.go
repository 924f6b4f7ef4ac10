package granular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivisionIndex(t *testing.T) {
	assert.Equal(t, 0, DivisionIndex(0))
	assert.Equal(t, 7, DivisionIndex(1))
	assert.Equal(t, 3, DivisionIndex(3.0/7))
	assert.Equal(t, 0, DivisionIndex(-0.5))
	assert.Equal(t, 7, DivisionIndex(1.5))
	assert.Equal(t, "1/4", Divisions[DivisionIndex(3.0/7)].Name)
}

func TestSyncedQuarterAt120(t *testing.T) {
	q := tempoQuantizer{sync: true, bpm: 120}
	assert.InDelta(t, 0.125, q.grainDuration(3.0/7), 1e-12)
}

func TestSyncedDensityIsInverted(t *testing.T) {
	q := tempoQuantizer{sync: true, bpm: 120}
	// full density picks 1/32, zero density picks 4 bars
	assert.InDelta(t, 0.5*0.03125, q.spawnPeriod(1), 1e-12)
	assert.InDelta(t, 0.5*4, q.spawnPeriod(0), 1e-12)
}

func TestSyncedPeriodsAreFloored(t *testing.T) {
	q := tempoQuantizer{sync: true, bpm: 1e9}
	assert.Equal(t, minPeriod, q.spawnPeriod(1))
	assert.Equal(t, minPeriod, q.grainDuration(0))

	q.bpm = 0
	assert.Greater(t, q.grainDuration(0), 0.0)
}

func TestFreeRunning(t *testing.T) {
	q := tempoQuantizer{bpm: 120}
	assert.InDelta(t, 1, q.spawnPeriod(0), 1e-12)
	assert.InDelta(t, 0.01, q.spawnPeriod(1), 1e-12)
	assert.InDelta(t, 0.01, q.grainDuration(0), 1e-12)
	assert.InDelta(t, 2, q.grainDuration(1), 1e-12)
}

func TestSchmittTrigger(t *testing.T) {
	var s schmittTrigger
	assert.False(t, s.process(0.5))
	assert.True(t, s.process(1))
	assert.False(t, s.process(5))
	assert.False(t, s.process(0.5))
	assert.False(t, s.process(2), "must fall below the low threshold first")
	assert.False(t, s.process(0.1))
	assert.True(t, s.process(1.2))
}

func TestClockDetectorMeasuresBeat(t *testing.T) {
	const rate = 48000.0
	var c clockDetector
	_, ok := c.bpm()
	assert.False(t, ok)

	for i := 0; i < 24000; i++ {
		c.process(pulse(i, 24000), 1/rate)
	}
	_, ok = c.bpm()
	require.False(t, ok, "one edge is not a period")

	for i := 24000; i < 72000; i++ {
		c.process(pulse(i, 24000), 1/rate)
	}
	bpm, ok := c.bpm()
	require.True(t, ok)
	assert.InDelta(t, 120, bpm, 1e-6)

	c.reset()
	_, ok = c.bpm()
	assert.False(t, ok)
}

func pulse(i, period int) float64 {
	if i%period < 100 {
		return 5
	}
	return 0
}
