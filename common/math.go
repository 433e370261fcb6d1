package common

import (
	"math"
)

// Epsilon is the tolerance used when comparing blend weights and normalized times.
const Epsilon = 1e-5

// IdentityQuat is the identity rotation quaternion (x, y, z, w).
var IdentityQuat = [4]float32{0, 0, 0, 1}

// Clamp restricts v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - float32: v clamped to [lo, hi]
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t.
// t is not clamped, so values outside [0, 1] extrapolate.
//
// Parameters:
//   - a: the value at t = 0
//   - b: the value at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - float32: a + (b - a) * t
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Lerp3 linearly interpolates each component of two 3D vectors.
//
// Parameters:
//   - a: the vector at t = 0
//   - b: the vector at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - [3]float32: the interpolated vector
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatNormalize returns q scaled to unit length.
// A zero-length quaternion normalizes to the identity rotation.
//
// Parameters:
//   - q: the quaternion (x, y, z, w) to normalize
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	lenSq := float64(QuatDot(q, q))
	if lenSq < Epsilon*Epsilon {
		return IdentityQuat
	}
	inv := float32(1.0 / math.Sqrt(lenSq))
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// Nlerp interpolates two rotations along the shortest arc using normalized linear interpolation.
// b is negated when the quaternions lie in opposite hemispheres so the blend never takes the long way round.
//
// Parameters:
//   - a: the rotation at t = 0
//   - b: the rotation at t = 1
//   - t: the interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the normalized interpolated rotation
func Nlerp(a, b [4]float32, t float32) [4]float32 {
	if QuatDot(a, b) < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}
	return QuatNormalize([4]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	})
}

// NearlyEqual reports whether a and b differ by no more than Epsilon.
func NearlyEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) <= Epsilon
}
