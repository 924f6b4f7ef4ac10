package granular

import "math"

// ----- Grain Envelope ----- //

/*
  shape 0        shape 0.5       shape 1
  +------+          /\             _
  |      |         /  \          /   \
  |      |        /    \        /     \
  +------+       /      \     _/       \_
*/

func squareShape(life float64) float64 {
	return 1
}

func triangleShape(life float64) float64 {
	return 1 - math.Abs(life-0.5)*2
}

func sineShape(life float64) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*life))
}

// Envelope returns the grain amplitude at life in [0,1). shape blends
// square into triangle over [0,0.5] and triangle into sine over [0.5,1].
func Envelope(life, shape float64) float64 {
	if shape <= 0.5 {
		t := shape * 2
		return (1-t)*squareShape(life) + t*triangleShape(life)
	}
	t := (shape - 0.5) * 2
	return (1-t)*triangleShape(life) + t*sineShape(life)
}
