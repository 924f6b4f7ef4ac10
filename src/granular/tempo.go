package granular

import "math"

// ----- Tempo Divisions ----- //

// minPeriod keeps tempo-derived periods and durations above zero.
const minPeriod = 1e-3

// Division is a note length expressed in bars of 4/4.
type Division struct {
	Name       string
	Multiplier float64
}

// Divisions are ordered from shortest to longest.
var Divisions = [...]Division{
	{"1/32", 0.03125},
	{"1/16", 0.0625},
	{"1/8", 0.125},
	{"1/4", 0.25},
	{"1/2", 0.5},
	{"1 bar", 1},
	{"2 bars", 2},
	{"4 bars", 4},
}

// DivisionIndex picks the division nearest to a normalized knob value.
func DivisionIndex(norm float64) int {
	i := int(math.Round(norm * float64(len(Divisions)-1)))
	if i < 0 {
		return 0
	}
	if i >= len(Divisions) {
		return len(Divisions) - 1
	}
	return i
}

// ----- Tempo Quantizer ----- //

type tempoQuantizer struct {
	sync bool
	bpm  float64
}

func (q *tempoQuantizer) secondsPerBeat() float64 {
	return 60 / math.Max(q.bpm, minPeriod)
}

// spawnPeriod returns seconds between spawns. In sync mode a higher
// density picks a shorter division.
func (q *tempoQuantizer) spawnPeriod(densityNorm float64) float64 {
	if !q.sync {
		return 1 / densityRange.denormalize(densityNorm)
	}
	d := Divisions[DivisionIndex(1-densityNorm)]
	return math.Max(q.secondsPerBeat()*d.Multiplier, minPeriod)
}

// grainDuration returns the grain length in seconds.
func (q *tempoQuantizer) grainDuration(sizeNorm float64) float64 {
	if !q.sync {
		return sizeRange.denormalize(sizeNorm)
	}
	d := Divisions[DivisionIndex(sizeNorm)]
	return math.Max(q.secondsPerBeat()*d.Multiplier, minPeriod)
}

// ----- Clock Input ----- //

const (
	triggerHigh = 1.0
	triggerLow  = 0.1
)

type schmittTrigger struct {
	high bool
}

// process reports a rising edge.
func (s *schmittTrigger) process(v float64) bool {
	if s.high {
		if v <= triggerLow {
			s.high = false
		}
		return false
	}
	if v >= triggerHigh {
		s.high = true
		return true
	}
	return false
}

// clockDetector measures the time between rising edges of a clock input
// and treats it as one beat.
type clockDetector struct {
	trigger schmittTrigger
	elapsed float64
	period  float64
	edges   int
}

func (c *clockDetector) process(v, sampleTime float64) {
	c.elapsed += sampleTime
	if !c.trigger.process(v) {
		return
	}
	if c.edges > 0 {
		c.period = c.elapsed
	}
	if c.edges < 2 {
		c.edges++
	}
	c.elapsed = 0
}

func (c *clockDetector) bpm() (float64, bool) {
	if c.edges < 2 || c.period <= 0 {
		return 0, false
	}
	return bpmRange.clamp(60 / c.period), true
}

func (c *clockDetector) reset() {
	*c = clockDetector{}
}
