package se23

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"github.com/inertial/se23/spatialmath"
)

// Chart selects the tangent-space convention of a Pose. Both charts share storage, composition,
// inverse, adjoint and hat; only the exponential/logarithm maps and the retraction differ.
// The set of charts is closed: ProductChart and GroupChart.
type Chart interface {
	// Name identifies the chart in logs and function signatures.
	Name() string

	expMap(vec Tangent, epsilon float64) (spatialmath.Rot3, r3.Vector, r3.Vector)
	logMap(rot spatialmath.Rot3, v, t r3.Vector, epsilon float64) Tangent
	// retractByCompose is true when Retract is p * exp(delta) rather than a per-block update.
	retractByCompose() bool
	// translationalBlock is the derivative of v (and t) with respect to their tangent components.
	translationalBlock(rot spatialmath.Rot3) mgl64.Mat3
}

// ProductChart treats the pose as the product manifold SO(3) x R3 x R3: velocity and position
// tangent components map directly onto v and t.
type ProductChart struct{}

// Name returns "pose23".
func (ProductChart) Name() string { return "pose23" }

func (ProductChart) expMap(vec Tangent, epsilon float64) (spatialmath.Rot3, r3.Vector, r3.Vector) {
	return spatialmath.Rot3FromTangent(vec.Rotation(), epsilon), vec.Velocity(), vec.Position()
}

func (ProductChart) logMap(rot spatialmath.Rot3, v, t r3.Vector, epsilon float64) Tangent {
	return NewTangent(rot.ToTangent(epsilon), v, t)
}

func (ProductChart) retractByCompose() bool { return false }

func (ProductChart) translationalBlock(spatialmath.Rot3) mgl64.Mat3 { return mgl64.Ident3() }

// GroupChart is the SE2(3) Lie group chart. The velocity and position tangent components are
// mixed with the rotation through the SO(3) left Jacobian V.
//
// The exponential map regularizes the angle as sqrt(|phi|^2 + epsilon^2) while the logarithm
// uses sqrt(|phi|^2 + epsilon). Both are kept as is for compatibility with generated code.
type GroupChart struct{}

// Name returns "pose23_se23".
func (GroupChart) Name() string { return "pose23_se23" }

func (GroupChart) expMap(vec Tangent, epsilon float64) (spatialmath.Rot3, r3.Vector, r3.Vector) {
	phi := vec.Rotation()
	v := spatialmath.LeftJacobian(phi, epsilon)
	return spatialmath.Rot3FromTangent(phi, epsilon),
		spatialmath.FromVec3(v.Mul3x1(spatialmath.ToVec3(vec.Velocity()))),
		spatialmath.FromVec3(v.Mul3x1(spatialmath.ToVec3(vec.Position())))
}

func (GroupChart) logMap(rot spatialmath.Rot3, v, t r3.Vector, epsilon float64) Tangent {
	phi := rot.ToTangent(epsilon)
	vInv := spatialmath.LeftJacobianInverse(phi, epsilon)
	return NewTangent(
		phi,
		spatialmath.FromVec3(vInv.Mul3x1(spatialmath.ToVec3(v))),
		spatialmath.FromVec3(vInv.Mul3x1(spatialmath.ToVec3(t))),
	)
}

func (GroupChart) retractByCompose() bool { return true }

func (GroupChart) translationalBlock(rot spatialmath.Rot3) mgl64.Mat3 { return rot.RotationMatrix() }
