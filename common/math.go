package common

import (
	"github.com/chewxy/math32"
)

// AlignUp rounds size up to the next multiple of alignment.
// Alignments of zero or one leave the size untouched.
//
// Parameters:
//   - size: the value to round up
//   - alignment: the required multiple
//
// Returns:
//   - int: the smallest multiple of alignment that is >= size
func AlignUp(size, alignment int) int {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}

// IsFinite reports whether every value is neither NaN nor an infinity.
//
// Parameters:
//   - values: the float32 values to check
//
// Returns:
//   - bool: true if all values are finite
func IsFinite(values ...float32) bool {
	for _, v := range values {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - float32: v limited to [lo, hi]
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
