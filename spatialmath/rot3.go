// Package spatialmath defines the rotation group and the small amount of vector math the
// extended pose manifold is built on.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

const (
	// Rot3StorageDim is the number of scalars a Rot3 is stored as (row-major 3x3 matrix).
	Rot3StorageDim = 9
	// Rot3TangentDim is the dimension of the rotation tangent space.
	Rot3TangentDim = 3
)

// Rot3 is an element of SO(3). It is stored as an orthonormal matrix so that conversions to and
// from matrix form are exact. The zero value is not a valid rotation, use NewRot3.
type Rot3 struct {
	m mgl64.Mat3
}

// NewRot3 returns the identity rotation.
func NewRot3() Rot3 {
	return Rot3{mgl64.Ident3()}
}

// Rot3FromRotationMatrix wraps the given orthonormal matrix. The matrix is not re-orthonormalized.
func Rot3FromRotationMatrix(m mgl64.Mat3) Rot3 {
	return Rot3{m}
}

// Rot3FromQuaternion converts a quaternion to a rotation. The quaternion is normalized first.
func Rot3FromQuaternion(q quat.Number) Rot3 {
	if n := quat.Abs(q); n != 1 && n != 0 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Rot3{mgl64.Mat3FromRows(
		mgl64.Vec3{1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w},
		mgl64.Vec3{2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w},
		mgl64.Vec3{2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y},
	)}
}

// Rot3FromStorage builds a rotation from its 9 storage scalars (row-major matrix).
func Rot3FromStorage(elements []float64) Rot3 {
	if len(elements) != Rot3StorageDim {
		panic(fmt.Sprintf("rot3 storage must have %d elements, got %d", Rot3StorageDim, len(elements)))
	}
	var m mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, elements[3*i+j])
		}
	}
	return Rot3{m}
}

// Rot3FromTangent is the exponential map. The rotation angle is regularized as
// sqrt(|phi|^2 + epsilon^2) so a zero tangent maps to the identity without dividing by zero.
// epsilon must be positive.
func Rot3FromTangent(phi r3.Vector, epsilon float64) Rot3 {
	theta := RegularizedNorm(phi, epsilon*epsilon)
	hat := Hat(phi)
	a := math.Sin(theta) / theta
	b := (1 - math.Cos(theta)) / (theta * theta)
	return Rot3{mgl64.Ident3().Add(hat.Mul(a)).Add(hat.Mul3(hat).Mul(b))}
}

// Storage returns the row-major rotation matrix.
func (r Rot3) Storage() []float64 {
	out := make([]float64, 0, Rot3StorageDim)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out = append(out, r.m.At(i, j))
		}
	}
	return out
}

// RotationMatrix returns the underlying 3x3 matrix.
func (r Rot3) RotationMatrix() mgl64.Mat3 {
	return r.m
}

// Dense returns the rotation matrix as a gonum matrix.
func (r Rot3) Dense() *mat.Dense {
	return mat.NewDense(3, 3, r.Storage())
}

// Compose returns r * other.
func (r Rot3) Compose(other Rot3) Rot3 {
	return Rot3{r.m.Mul3(other.m)}
}

// Inverse returns the transpose.
func (r Rot3) Inverse() Rot3 {
	return Rot3{r.m.Transpose()}
}

// Rotate applies the rotation to a vector.
func (r Rot3) Rotate(v r3.Vector) r3.Vector {
	return FromVec3(r.m.Mul3x1(ToVec3(v)))
}

// Quaternion returns the unit quaternion for this rotation, with a non-negative real part.
// Conversion follows the largest-pivot method Eigen uses.
func (r Rot3) Quaternion() quat.Number {
	m := r.m
	trace := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	var q quat.Number
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (m.At(2, 1) - m.At(1, 2)) * s,
			Jmag: (m.At(0, 2) - m.At(2, 0)) * s,
			Kmag: (m.At(1, 0) - m.At(0, 1)) * s,
		}
	case m.At(0, 0) > m.At(1, 1) && m.At(0, 0) > m.At(2, 2):
		s := 2 * math.Sqrt(1+m.At(0, 0)-m.At(1, 1)-m.At(2, 2))
		q = quat.Number{
			Real: (m.At(2, 1) - m.At(1, 2)) / s,
			Imag: 0.25 * s,
			Jmag: (m.At(0, 1) + m.At(1, 0)) / s,
			Kmag: (m.At(0, 2) + m.At(2, 0)) / s,
		}
	case m.At(1, 1) > m.At(2, 2):
		s := 2 * math.Sqrt(1+m.At(1, 1)-m.At(0, 0)-m.At(2, 2))
		q = quat.Number{
			Real: (m.At(0, 2) - m.At(2, 0)) / s,
			Imag: (m.At(0, 1) + m.At(1, 0)) / s,
			Jmag: 0.25 * s,
			Kmag: (m.At(1, 2) + m.At(2, 1)) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m.At(2, 2)-m.At(0, 0)-m.At(1, 1))
		q = quat.Number{
			Real: (m.At(1, 0) - m.At(0, 1)) / s,
			Imag: (m.At(0, 2) + m.At(2, 0)) / s,
			Jmag: (m.At(1, 2) + m.At(2, 1)) / s,
			Kmag: 0.25 * s,
		}
	}
	if q.Real < 0 {
		q = Flip(q)
	}
	return q
}

// ToTangent is the logarithm map. The quaternion's real part is clamped to 1-epsilon so the
// ratio acos(w)/sqrt(1-w^2) stays finite at the identity.
func (r Rot3) ToTangent(epsilon float64) r3.Vector {
	q := r.Quaternion()
	sign := SignNoZero(q.Real)
	wSafe := AlgebraicMin(1-epsilon, sign*q.Real)
	scale := sign * 2 * math.Acos(wSafe) / math.Sqrt(1-wSafe*wSafe)
	return r3.Vector{X: scale * q.Imag, Y: scale * q.Jmag, Z: scale * q.Kmag}
}

// Retract perturbs r on the right by the given tangent vector.
func (r Rot3) Retract(delta r3.Vector, epsilon float64) Rot3 {
	return r.Compose(Rot3FromTangent(delta, epsilon))
}

// LocalCoordinates returns the tangent vector taking r to other, the inverse of Retract.
func (r Rot3) LocalCoordinates(other Rot3, epsilon float64) r3.Vector {
	return r.Inverse().Compose(other).ToTangent(epsilon)
}

// StorageDTangent is the 9x3 derivative of the storage with respect to a right perturbation.
// Column i is the row-major flattening of R*hat(e_i).
func (r Rot3) StorageDTangent() *mat.Dense {
	out := mat.NewDense(Rot3StorageDim, Rot3TangentDim, nil)
	for i, axis := range []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}} {
		col := r.m.Mul3(Hat(axis))
		for row := 0; row < 3; row++ {
			for c := 0; c < 3; c++ {
				out.Set(3*row+c, i, col.At(row, c))
			}
		}
	}
	return out
}

// TangentDStorage is the 3x9 pseudo-inverse of StorageDTangent. The columns of StorageDTangent are
// orthogonal with squared norm 2, so this is half the transpose.
func (r Rot3) TangentDStorage() *mat.Dense {
	out := mat.NewDense(Rot3TangentDim, Rot3StorageDim, nil)
	out.Scale(0.5, r.StorageDTangent().T())
	return out
}

// AlmostEqual reports whether every matrix entry is within tol.
func (r Rot3) AlmostEqual(other Rot3, tol float64) bool {
	return Mat3AlmostEqual(r.m, other.m, tol)
}

// AxisAngles returns the rotation as an R4 axis angle.
func (r Rot3) AxisAngles() R4AA {
	return QuatToR4AA(r.Quaternion())
}

func (r Rot3) String() string {
	aa := r.AxisAngles()
	return fmt.Sprintf("Rot3{theta: %.6f, axis: (%.6f, %.6f, %.6f)}", aa.Theta, aa.RX, aa.RY, aa.RZ)
}
