package granular

import "math"

// ----- Sample Buffer ----- //

// sampleBuffer holds mono content. Only samples[:length] is playable.
// A buffer published through Engine.Load is never written again; the
// recorder owns its own tape buffer and fills it in place.
type sampleBuffer struct {
	samples    []float32
	length     int
	sampleRate float64
	rawVoltage bool // live capture stores volts, files store [-1,1]
}

func newSampleBuffer(samples []float32, sampleRate int) *sampleBuffer {
	owned := make([]float32, len(samples))
	copy(owned, samples)
	return &sampleBuffer{
		samples:    owned,
		length:     len(owned),
		sampleRate: float64(sampleRate),
	}
}

func (b *sampleBuffer) empty() bool {
	return b == nil || b.length <= 0
}

func (b *sampleBuffer) activeLength() int {
	if b.empty() {
		return 0
	}
	return b.length
}

// at reads the buffer with linear interpolation. Indices are clamped to
// [0, length-1] so a drifting position can never read past the content.
func (b *sampleBuffer) at(pos float64) float64 {
	last := b.length - 1
	floor := math.Floor(pos)
	frac := pos - floor
	i1 := int(floor)
	i2 := i1 + 1
	if i1 < 0 {
		i1 = 0
	} else if i1 > last {
		i1 = last
	}
	if i2 < 0 {
		i2 = 0
	} else if i2 > last {
		i2 = last
	}
	s1 := float64(b.samples[i1])
	s2 := float64(b.samples[i2])
	return (1-frac)*s1 + frac*s2
}

// ----- Loop Region ----- //

type loopRegion struct {
	startNorm float64
	endNorm   float64
	start     float64 // in samples
	end       float64 // in samples
}

// newLoopRegion orders the two loop knobs and maps them onto the active
// length, keeping the window at least one sample wide whenever the
// content allows it.
func newLoopRegion(a, b float64, length int) loopRegion {
	startNorm := clamp(math.Min(a, b), 0, 1)
	endNorm := clamp(math.Max(a, b), 0, 1)
	last := float64(length - 1)
	if last < 0 {
		last = 0
	}
	start := startNorm * last
	end := endNorm * last
	if end-start < 1 {
		if end >= 1 {
			start = end - 1
		} else {
			start = 0
			end = math.Min(1, last)
		}
	}
	return loopRegion{
		startNorm: startNorm,
		endNorm:   endNorm,
		start:     start,
		end:       end,
	}
}

func (r loopRegion) width() float64 {
	return r.end - r.start
}

// ----- Peaks ----- //

// Peak is the sample range covered by one display bucket.
type Peak struct {
	Min float32
	Max float32
}

func (b *sampleBuffer) peaks(dst []Peak) {
	if len(dst) == 0 {
		return
	}
	if b.empty() {
		for i := range dst {
			dst[i] = Peak{}
		}
		return
	}
	scale := float32(1)
	if b.rawVoltage {
		scale = 1 / OutputLevel
	}
	for i := range dst {
		from := i * b.length / len(dst)
		to := (i + 1) * b.length / len(dst)
		if to <= from {
			to = from + 1
		}
		if to > b.length {
			to = b.length
		}
		if from >= b.length {
			dst[i] = Peak{}
			continue
		}
		lo, hi := b.samples[from], b.samples[from]
		for _, s := range b.samples[from+1 : to] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		dst[i] = Peak{Min: lo * scale, Max: hi * scale}
	}
}
