package vmath

import "math"

// Epsilon is the float comparison tolerance used by intersection tests
const Epsilon = 1e-9

// Lerp interpolates between a and b, t=0 returns a, t=1 returns b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Approx reports whether a and b differ by at most tol
func Approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// Deg2Rad converts degrees to radians
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}
