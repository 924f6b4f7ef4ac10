package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// ----- Spectrum ----- //

// spectrum computes windowed FFT magnitudes of a fixed-size block.
type spectrum struct {
	window []float64
	work   []float64
	out    []float64
}

func newSpectrum(length int) *spectrum {
	return &spectrum{
		window: hanWindow(length),
		work:   make([]float64, length),
		out:    make([]float64, length/2),
	}
}

// hanWindow ...
func hanWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
	}
	return w
}

// magnitudes windows x and returns the scaled magnitudes of the lower
// half of the spectrum. The result is reused by the next call.
func (s *spectrum) magnitudes(x []float64) []float64 {
	n := len(s.work)
	for i := 0; i < n; i++ {
		s.work[i] = x[i] * s.window[i]
	}
	bins := fft.FFTReal(s.work)
	for i := range s.out {
		s.out[i] = cmplx.Abs(bins[i]) * 2 / float64(n)
	}
	return s.out
}
