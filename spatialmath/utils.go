package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// NumericEpsilon is the default regularization constant, ten machine epsilons.
const NumericEpsilon = 10 * 2.220446049250313e-16

// Hat maps a 3-vector to its skew-symmetric cross-product matrix.
func Hat(v r3.Vector) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v.Z, v.Y},
		mgl64.Vec3{v.Z, 0, -v.X},
		mgl64.Vec3{-v.Y, v.X, 0},
	)
}

// Vee is the inverse of Hat. Only the antisymmetric part of m contributes.
func Vee(m mgl64.Mat3) r3.Vector {
	return r3.Vector{
		X: 0.5 * (m.At(2, 1) - m.At(1, 2)),
		Y: 0.5 * (m.At(0, 2) - m.At(2, 0)),
		Z: 0.5 * (m.At(1, 0) - m.At(0, 1)),
	}
}

// RegularizedNorm returns sqrt(|v|^2 + reg).
func RegularizedNorm(v r3.Vector, reg float64) float64 {
	return math.Sqrt(v.Norm2() + reg)
}

// SignNoZero returns -1 for negative x and 1 otherwise, including at zero.
func SignNoZero(x float64) float64 {
	return 2*math.Min(sign(x), 0) + 1
}

// AlgebraicMin is min(a, b) written as (a + b - |a - b|) / 2.
func AlgebraicMin(a, b float64) float64 {
	return 0.5 * (a + b - math.Abs(a-b))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// ToVec3 converts an r3 vector to mathgl.
func ToVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromVec3 converts a mathgl vector to r3.
func FromVec3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// R3FromSlice reads the first three elements of s. It panics if s is shorter.
func R3FromSlice(s []float64) r3.Vector {
	return r3.Vector{X: s[0], Y: s[1], Z: s[2]}
}

// R3ToSlice returns v as a 3-element slice.
func R3ToSlice(v r3.Vector) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// Mat3AlmostEqual reports whether every entry of a and b differs by at most tol.
func Mat3AlmostEqual(a, b mgl64.Mat3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// VectorAlmostEqual reports whether every component of a and b differs by at most tol.
func VectorAlmostEqual(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
