package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

const testEpsilon = 1e-6

// represent a 45 degree rotation around the x axis
var (
	th   = math.Pi / 4.
	q45x = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)}
)

func vectorAlmostEqual(t *testing.T, actual, expected r3.Vector, tol float64) {
	t.Helper()
	test.That(t, actual.X, test.ShouldAlmostEqual, expected.X, tol)
	test.That(t, actual.Y, test.ShouldAlmostEqual, expected.Y, tol)
	test.That(t, actual.Z, test.ShouldAlmostEqual, expected.Z, tol)
}

func TestRot3Identity(t *testing.T) {
	id := NewRot3()
	test.That(t, id.Storage(), test.ShouldResemble, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, id.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	vectorAlmostEqual(t, id.ToTangent(testEpsilon), r3.Vector{}, 1e-12)

	r := Rot3FromTangent(r3.Vector{X: 0.3, Y: -1.2, Z: 0.7}, testEpsilon)
	test.That(t, r.Compose(id), test.ShouldResemble, r)
	test.That(t, id.Compose(r), test.ShouldResemble, r)
}

func TestRot3Storage(t *testing.T) {
	r := Rot3FromTangent(r3.Vector{X: 1.3, Y: 0.2, Z: 1.1}, testEpsilon)
	test.That(t, Rot3FromStorage(r.Storage()), test.ShouldResemble, r)
	test.That(t, Rot3FromRotationMatrix(r.RotationMatrix()), test.ShouldResemble, r)
	test.That(t, func() { Rot3FromStorage([]float64{1, 0, 0, 1}) }, test.ShouldPanic)
}

func TestRot3Quaternion(t *testing.T) {
	aa := &R4AA{th, 1, 0, 0}
	r := aa.Rot3()
	q := r.Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, q.Imag, test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, q.Jmag, test.ShouldAlmostEqual, q45x.Jmag)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, q45x.Kmag)
	vectorAlmostEqual(t, r.ToTangent(NumericEpsilon), r3.Vector{X: th}, 1e-9)

	// every pivot branch of the matrix to quaternion conversion
	for _, aa := range []R4AA{
		{0.4, 0, 0, 1},
		{3.0, 1, 0, 0},
		{3.0, 0, 1, 0},
		{3.0, 0, 0, 1},
		{2.5, 1, -1, 0.5},
	} {
		expected := aa.ToQuat()
		got := aa.Rot3().Quaternion()
		test.That(t, QuaternionAlmostEqual(got, expected, 1e-9), test.ShouldBeTrue)
		test.That(t, got.Real, test.ShouldBeGreaterThanOrEqualTo, 0.)
	}
}

func TestRot3TangentRoundTrip(t *testing.T) {
	for _, phi := range []r3.Vector{
		{},
		{X: 1e-9},
		{X: 0.1, Y: -0.2, Z: 0.3},
		{X: 1.3, Y: 0.2, Z: 1.1},
		{X: 0, Y: 0, Z: 3.1},
		{X: -2.0, Y: 1.0, Z: 0.5},
	} {
		r := Rot3FromTangent(phi, testEpsilon)
		vectorAlmostEqual(t, r.ToTangent(testEpsilon), phi, 1e-5)

		rtr := r.RotationMatrix().Transpose().Mul3(r.RotationMatrix())
		test.That(t, Mat3AlmostEqual(rtr, mgl64.Ident3(), 1e-9), test.ShouldBeTrue)
		test.That(t, r.RotationMatrix().Det(), test.ShouldAlmostEqual, 1, 1e-9)
	}
}

func TestRot3ZeroAngleIsFinite(t *testing.T) {
	for _, eps := range []float64{NumericEpsilon, testEpsilon} {
		r := Rot3FromTangent(r3.Vector{}, eps)
		for _, v := range r.Storage() {
			test.That(t, math.IsNaN(v) || math.IsInf(v, 0), test.ShouldBeFalse)
		}
		tangent := NewRot3().ToTangent(eps)
		test.That(t, math.IsNaN(tangent.Norm()), test.ShouldBeFalse)
	}
}

func TestRot3InverseAndRotate(t *testing.T) {
	r := Rot3FromTangent(r3.Vector{X: 0.4, Y: 0.5, Z: -0.6}, testEpsilon)
	test.That(t, r.Compose(r.Inverse()).AlmostEqual(NewRot3(), 1e-12), test.ShouldBeTrue)

	v := r3.Vector{X: 1, Y: 2, Z: 3}
	vectorAlmostEqual(t, r.Inverse().Rotate(r.Rotate(v)), v, 1e-12)

	quarter := Rot3FromTangent(r3.Vector{Z: math.Pi / 2}, NumericEpsilon)
	vectorAlmostEqual(t, quarter.Rotate(r3.Vector{X: 1}), r3.Vector{Y: 1}, 1e-12)
}

func TestRot3RetractLocalCoordinates(t *testing.T) {
	a := Rot3FromTangent(r3.Vector{X: 0.1, Y: 0.9, Z: -0.4}, testEpsilon)
	delta := r3.Vector{X: -0.2, Y: 0.05, Z: 0.3}
	b := a.Retract(delta, testEpsilon)
	vectorAlmostEqual(t, a.LocalCoordinates(b, testEpsilon), delta, 1e-6)
	vectorAlmostEqual(t, a.LocalCoordinates(a, testEpsilon), r3.Vector{}, 1e-9)
}

func TestHatVee(t *testing.T) {
	a := r3.Vector{X: 1, Y: -2, Z: 0.5}
	b := r3.Vector{X: 0.3, Y: 0.7, Z: -1.1}
	vectorAlmostEqual(t, FromVec3(Hat(a).Mul3x1(ToVec3(b))), a.Cross(b), 1e-12)
	test.That(t, Vee(Hat(a)), test.ShouldResemble, a)
	test.That(t, Hat(a).Transpose(), test.ShouldResemble, Hat(a).Mul(-1))
}

func TestLeftJacobianInverse(t *testing.T) {
	for _, phi := range []r3.Vector{
		{X: 0.3, Y: -0.2, Z: 0.5},
		{X: 1.3, Y: 0.2, Z: 1.1},
	} {
		prod := LeftJacobian(phi, NumericEpsilon).Mul3(LeftJacobianInverse(phi, NumericEpsilon))
		test.That(t, Mat3AlmostEqual(prod, mgl64.Ident3(), 1e-6), test.ShouldBeTrue)
	}

	test.That(t, Mat3AlmostEqual(LeftJacobian(r3.Vector{}, testEpsilon), mgl64.Ident3(), 1e-12), test.ShouldBeTrue)
	test.That(t, Mat3AlmostEqual(LeftJacobianInverse(r3.Vector{}, testEpsilon), mgl64.Ident3(), 1e-12), test.ShouldBeTrue)
}

func TestStorageDTangent(t *testing.T) {
	r := Rot3FromTangent(r3.Vector{X: 0.2, Y: -0.7, Z: 1.4}, testEpsilon)
	d := r.StorageDTangent()
	rows, cols := d.Dims()
	test.That(t, rows, test.ShouldEqual, Rot3StorageDim)
	test.That(t, cols, test.ShouldEqual, Rot3TangentDim)

	const h = 1e-6
	for i, axis := range []r3.Vector{{X: h}, {Y: h}, {Z: h}} {
		plus := r.Retract(axis, NumericEpsilon).Storage()
		minus := r.Retract(axis.Mul(-1), NumericEpsilon).Storage()
		for row := range plus {
			test.That(t, (plus[row]-minus[row])/(2*h), test.ShouldAlmostEqual, d.At(row, i), 1e-6)
		}
	}

	prod := r.TangentDStorage()
	var id [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < Rot3StorageDim; k++ {
				id[i][j] += prod.At(i, k) * d.At(k, j)
			}
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			expected := 0.
			if i == j {
				expected = 1
			}
			test.That(t, id[i][j], test.ShouldAlmostEqual, expected, 1e-12)
		}
	}
}

func TestAlgebraicHelpers(t *testing.T) {
	test.That(t, SignNoZero(0), test.ShouldEqual, 1.)
	test.That(t, SignNoZero(-3), test.ShouldEqual, -1.)
	test.That(t, SignNoZero(2), test.ShouldEqual, 1.)
	test.That(t, AlgebraicMin(1, 2), test.ShouldEqual, 1.)
	test.That(t, AlgebraicMin(-4, 2), test.ShouldEqual, -4.)
	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
}
