package gateway

import (
	"math"
)

// SaturatingAdd adds two non-negative turnovers, clamping at
// math.MaxFloat32 instead of overflowing to +Inf.
func SaturatingAdd(a, b float32) float32 {
	if a > math.MaxFloat32-b {
		return math.MaxFloat32
	}
	sum := a + b
	if math.IsInf(float64(sum), 1) {
		return math.MaxFloat32
	}
	return sum
}
