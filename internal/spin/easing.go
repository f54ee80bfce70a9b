package spin

import "math"

// EaseOutCubic maps progress t in [0,1] to 1-(1-t)^3: fast start, zero velocity at t=1.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(1-t, 3)
}
