package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// LeftJacobian is the SO(3) left Jacobian
//
//	J(phi) = I + (1 - cos t)/t^2 hat(phi) + (t - sin t)/t^3 hat(phi)^2
//
// with t = sqrt(|phi|^2 + epsilon^2). It is also the V matrix of the SE2(3) exponential map.
func LeftJacobian(phi r3.Vector, epsilon float64) mgl64.Mat3 {
	return LeftJacobianRegularized(phi, epsilon*epsilon)
}

// LeftJacobianRegularized is LeftJacobian with reg added to |phi|^2 under the square root.
func LeftJacobianRegularized(phi r3.Vector, reg float64) mgl64.Mat3 {
	theta := RegularizedNorm(phi, reg)
	hat := Hat(phi)
	a := (1 - math.Cos(theta)) / (theta * theta)
	b := (theta - math.Sin(theta)) / (theta * theta * theta)
	return mgl64.Ident3().Add(hat.Mul(a)).Add(hat.Mul3(hat).Mul(b))
}

// LeftJacobianInverse is the closed-form inverse of LeftJacobian
//
//	J^-1(phi) = I - hat(phi)/2 + (1 - t cos(t/2) / (2 sin(t/2)))/t^2 hat(phi)^2
//
// Here t = sqrt(|phi|^2 + epsilon). Note epsilon enters un-squared, unlike LeftJacobian.
func LeftJacobianInverse(phi r3.Vector, epsilon float64) mgl64.Mat3 {
	return LeftJacobianInverseRegularized(phi, epsilon)
}

// LeftJacobianInverseRegularized is LeftJacobianInverse with reg added to |phi|^2 under the
// square root.
func LeftJacobianInverseRegularized(phi r3.Vector, reg float64) mgl64.Mat3 {
	theta := RegularizedNorm(phi, reg)
	hat := Hat(phi)
	half := 0.5 * theta
	c := (1 - theta*math.Cos(half)/(2*math.Sin(half))) / (theta * theta)
	return mgl64.Ident3().Sub(hat.Mul(0.5)).Add(hat.Mul3(hat).Mul(c))
}
