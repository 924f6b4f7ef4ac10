package granular

import "math"

// ----- Output Shaper ----- //

// OutputLevel is the peak output voltage. Captured content is stored in
// the same units.
const OutputLevel = 5.0

// mixdown scales the grain sum by 1/sqrt(n) so n overlapping grains add
// up in power rather than amplitude.
func mixdown(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / math.Sqrt(float64(n))
}

func makeupGain(compression float64) float64 {
	return 1 + compression*3
}

// shapeOutput soft-clips the mix into +-OutputLevel volts.
func shapeOutput(x, compression float64) float64 {
	return OutputLevel * math.Tanh(x*makeupGain(compression))
}
