package sample

// ----- Mono Mixdown ----- //

// intScale returns the divisor that maps signed PCM of bitDepth into
// [-1,1).
func intScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128, nil
	case 16:
		return 32768, nil
	case 24:
		return 8388608, nil
	case 32:
		return 2147483648, nil
	}
	return 0, ErrUnsupportedBitDepth
}

// mixInts averages interleaved integer frames into mono floats. offset
// is subtracted first so unsigned 8-bit data can share the path.
func mixInts(data []int, channels int, scale float32, offset int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	out := make([]float32, frames)
	inv := 1 / (scale * float32(channels))
	for f := range out {
		sum := 0
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += data[base+c] - offset
		}
		out[f] = float32(sum) * inv
	}
	return out
}

// mixFloats averages interleaved float frames into mono.
func mixFloats(data []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(data))
		copy(out, data)
		return out
	}
	frames := len(data) / channels
	out := make([]float32, frames)
	switch channels {
	case 2:
		for f := range out {
			i := f << 1
			out[f] = (data[i] + data[i+1]) * 0.5
		}
	default:
		inv := 1 / float32(channels)
		for f := range out {
			sum := float32(0)
			base := f * channels
			for c := 0; c < channels; c++ {
				sum += data[base+c]
			}
			out[f] = sum * inv
		}
	}
	return out
}
