package granular

import "math/rand"

// ----- Control Ranges ----- //

// cvScale turns a CV volt times its trim into a normalized offset.
const cvScale = 0.1

type controlRange struct {
	min float64
	max float64
}

var (
	unitRange    = controlRange{0, 1}
	sizeRange    = controlRange{0.01, 2}
	densityRange = controlRange{1, 100}
	bpmRange     = controlRange{20, 300}
)

func (r controlRange) normalize(value float64) float64 {
	return (value - r.min) / (r.max - r.min)
}

func (r controlRange) denormalize(norm float64) float64 {
	return r.min + norm*(r.max-r.min)
}

func (r controlRange) clamp(value float64) float64 {
	return clamp(value, r.min, r.max)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ----- Modulation ----- //

// modulated holds the control values of one tick after CV has been
// applied, each normalized to [0,1].
type modulated struct {
	size     float64
	density  float64
	shape    float64
	position float64
	pitch    float64
}

func modulate(r controlRange, base, cv, trim float64) float64 {
	return clamp(r.normalize(base)+cv*trim*cvScale, 0, 1)
}

func (m *modulated) compute(c *Controls, in *Inputs) {
	m.size = modulate(sizeRange, c.Size, in.SizeCV, c.ModSize)
	m.density = modulate(densityRange, c.Density, in.DensityCV, c.ModDensity)
	m.shape = modulate(unitRange, c.Shape, in.ShapeCV, c.ModShape)
	m.position = modulate(unitRange, c.Position, in.PositionCV, c.ModPosition)
	m.pitch = modulate(unitRange, c.Pitch, in.PitchModCV, c.ModPitch)
}

// pitchOctaves maps normalized pitch onto +-2 octaves around unity.
func pitchOctaves(norm float64) float64 {
	return (norm - 0.5) * 4
}

// ----- Randomization ----- //

type randomizer struct {
	rng *rand.Rand
}

func newRandomizer(seed int64) randomizer {
	return randomizer{rng: rand.New(rand.NewSource(seed))}
}

// bipolar returns a uniform value in [-1,1).
func (r randomizer) bipolar() float64 {
	return r.rng.Float64()*2 - 1
}

// spread scatters base by up to amount/2 in either direction. amount 0
// returns base unchanged.
func (r randomizer) spread(base, amount float64) float64 {
	return clamp(base+r.bipolar()*amount*0.5, 0, 1)
}
