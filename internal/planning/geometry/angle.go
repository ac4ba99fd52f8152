package geometry

import "math"

// NormalizeAngle wraps an angle in radians into [-π, π).
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// InterpolateAngle linearly interpolates between two headings along the
// shorter arc. ratio 0 returns a0, ratio 1 returns a1 (both normalised).
func InterpolateAngle(a0, a1, ratio float64) float64 {
	a0 = NormalizeAngle(a0)
	d := NormalizeAngle(a1 - a0)
	return NormalizeAngle(a0 + d*ratio)
}
