package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Snap rounds f to the nearest multiple of step measured from origin.
// A non-positive step returns f unchanged.
func Snap[T constraints.Float](f, origin, step T) T {
	if step <= 0 {
		return f
	}
	n := m.Round(float64((f - origin) / step))
	return origin + T(n)*step
}
