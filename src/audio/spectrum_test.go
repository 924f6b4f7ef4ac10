package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHanWindow(t *testing.T) {
	w := hanWindow(8)
	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 0.5, w[2], 1e-12)
	assert.InDelta(t, 1, w[4], 1e-12)
	assert.InDelta(t, w[1], w[7], 1e-12)
}

func TestMagnitudesFindSine(t *testing.T) {
	const n = 64
	const bin = 8
	s := newSpectrum(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * bin * float64(i) / n)
	}
	orig := append([]float64(nil), x...)
	mags := s.magnitudes(x)
	assert.Equal(t, orig, x, "input is not modified")
	assert.Len(t, mags, n/2)
	peak := 0
	for i, v := range mags {
		if v > mags[peak] {
			peak = i
		}
	}
	assert.Equal(t, bin, peak)
	assert.InDelta(t, 0.5, mags[bin], 1e-9)
}

func TestMagnitudesSeparateTones(t *testing.T) {
	const n = 128
	s := newSpectrum(n)
	x := make([]float64, n)
	for i := range x {
		phase := 2 * math.Pi * float64(i) / n
		x[i] = math.Sin(4*phase) + 0.5*math.Cos(20*phase)
	}
	mags := s.magnitudes(x)
	assert.InDelta(t, 0.5, mags[4], 1e-9)
	assert.InDelta(t, 0.25, mags[20], 1e-9)
	assert.InDelta(t, 0, mags[12], 1e-9)
	assert.InDelta(t, 0, mags[40], 1e-9)
}
