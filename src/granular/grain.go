package granular

import "math"

// ----- Grain ----- //

// Grain is one playback voice. It is a plain value: the scheduler keeps
// grains in a fixed-capacity slice and copies them freely.
type Grain struct {
	Position      float64 // read head in samples
	Life          float64 // envelope phase, alive while < 1
	LifeIncrement float64
	SpeedRatio    float64
	Shape         float64 // frozen at spawn
}

func newGrain(position, seconds, sampleRate, octaves, shape float64) Grain {
	samples := seconds * sampleRate
	if samples < 1 {
		samples = 1
	}
	return Grain{
		Position:      position,
		Life:          0,
		LifeIncrement: 1 / samples,
		SpeedRatio:    math.Exp2(octaves),
		Shape:         shape,
	}
}

// Alive ...
func (g *Grain) Alive() bool {
	return g.Life < 1
}

// Envelope ...
func (g *Grain) Envelope() float64 {
	return Envelope(g.Life, g.Shape)
}

// Advance moves the read head by one tick and ages the grain. Heads that
// pass loopEnd wrap back into the loop; heads below loopStart (reverse
// speeds) are held at loopStart.
func (g *Grain) Advance(loopStart, loopEnd float64) {
	g.Position += g.SpeedRatio
	if g.Position >= loopEnd {
		overflow := g.Position - loopEnd
		width := loopEnd - loopStart
		if width > minLoopWidth {
			g.Position = loopStart + math.Mod(overflow, width)
		} else {
			g.Position = loopStart
		}
	} else if g.Position < loopStart {
		g.Position = loopStart
	}
	g.Life += g.LifeIncrement
}
