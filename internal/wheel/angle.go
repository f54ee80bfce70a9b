package wheel

import "math"

// FullTurn is one revolution in radians.
const FullTurn = 2 * math.Pi

// PointerAngle is where the fixed pointer sits, in the same frame used to lay out segment i at
// angle + i*arc.
const PointerAngle = 3 * math.Pi / 2

// Normalize reduces a into [0, 2π).
func Normalize(a float64) float64 {
	a = math.Mod(a, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
