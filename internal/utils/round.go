package utils

import "math"

// RoundIfIntegral snaps v to the nearest integer when it lies within tol of
// one, reporting whether the snap happened. A tol of zero never snaps.
func RoundIfIntegral(v, tol float64) (float64, bool) {
	if tol <= 0 {
		return v, false
	}
	r := math.Round(v)
	if math.Abs(v-r) <= tol {
		return r, true
	}
	return v, false
}
