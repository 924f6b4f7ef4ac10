package granular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModulateRescalesAndClamps(t *testing.T) {
	assert.Equal(t, 0.0, modulate(sizeRange, 0.01, 0, 0))
	assert.Equal(t, 1.0, modulate(sizeRange, 2, 0, 0))
	assert.InDelta(t, 0.5, modulate(densityRange, 50.5, 0, 0), 1e-12)

	// 5V at full trim moves half the range
	assert.InDelta(t, 0.75, modulate(unitRange, 0.25, 5, 1), 1e-12)
	assert.InDelta(t, 0.0, modulate(unitRange, 0.25, 5, -1), 1e-12)
	assert.Equal(t, 1.0, modulate(unitRange, 0.9, 10, 1))
	assert.Equal(t, 0.0, modulate(unitRange, 0.1, -10, 1))
}

func TestModulateIsUniformAcrossRanges(t *testing.T) {
	// the same CV moves density and size by the same normalized amount
	d := modulate(densityRange, densityRange.denormalize(0.3), 2, 1) - 0.3
	s := modulate(sizeRange, sizeRange.denormalize(0.3), 2, 1) - 0.3
	assert.InDelta(t, d, s, 1e-12)
}

func TestModulatedCompute(t *testing.T) {
	c := DefaultControls()
	c.Position = 0.4
	c.ModPosition = 0.5
	in := Inputs{PositionCV: 2}
	var m modulated
	m.compute(&c, &in)
	assert.InDelta(t, 0.5, m.position, 1e-12)
	assert.InDelta(t, sizeRange.normalize(0.5), m.size, 1e-12)
	assert.Equal(t, 0.0, m.density)
	assert.Equal(t, 0.5, m.shape)
	assert.Equal(t, 0.5, m.pitch)
}

func TestPitchOctaves(t *testing.T) {
	assert.Equal(t, -2.0, pitchOctaves(0))
	assert.Equal(t, 0.0, pitchOctaves(0.5))
	assert.Equal(t, 2.0, pitchOctaves(1))
}

func TestSpreadWithoutAmountIsExact(t *testing.T) {
	r := newRandomizer(1)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 0.37, r.spread(0.37, 0))
	}
}

func TestSpreadStaysInBounds(t *testing.T) {
	r := newRandomizer(7)
	for _, base := range []float64{0, 0.1, 0.5, 0.9, 1} {
		for _, amount := range []float64{0.2, 0.5, 1} {
			for i := 0; i < 500; i++ {
				v := r.spread(base, amount)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
				assert.LessOrEqual(t, v-base, amount*0.5+1e-12)
				assert.GreaterOrEqual(t, v-base, -amount*0.5-1e-12)
			}
		}
	}
}

func TestBipolarRange(t *testing.T) {
	r := newRandomizer(3)
	for i := 0; i < 1000; i++ {
		v := r.bipolar()
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}
