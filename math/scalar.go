package math

import "github.com/chewxy/math32"

// Radians converts degrees to radians.
func Radians(degrees float32) float32 {
	return degrees * math32.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(radians float32) float32 {
	return radians * 180 / math32.Pi
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Sqrt is float32 square root.
func Abs(v float32) float32 {
	return math32.Abs(v)
}

func Sqrt(v float32) float32 {
	return math32.Sqrt(v)
}
