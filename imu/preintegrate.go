package imu

import (
	"gonum.org/v1/gonum/mat"

	"github.com/inertial/se23/se23"
	"github.com/inertial/se23/spatialmath"
	"github.com/inertial/se23/utils"
)

// Phi folds the current velocity into the position over dt: (R, v, t + dt v).
func Phi(pose se23.Pose23SE23, dt float64) se23.Pose23SE23 {
	return se23.NewPose23SE23(pose.Rotation(), pose.Velocity(), pose.Position().Add(pose.Velocity().Mul(dt)))
}

// Increment returns the delta pose contributed by one sample held for dt.
// The accelerations at both ends of the interval are a0 = a and a1 = exp(w dt) a.
func Increment(z Measurement, dt, epsilon float64) se23.Pose23SE23 {
	deltaR := spatialmath.Rot3FromTangent(z.Gyro.Mul(dt), epsilon)
	a0 := z.Accel
	a1 := deltaR.Rotate(z.Accel)
	diff := a1.Sub(a0)
	deltaV := a0.Mul(dt).Add(diff.Mul(utils.Square(dt) / 2))
	deltaT := a0.Mul(utils.Square(dt) / 2).Add(diff.Mul(utils.Cube(dt) / 6))
	return se23.NewPose23SE23(deltaR, deltaV, deltaT)
}

// NoiseJacobian returns the 9x6 matrix mapping gyro and accel noise into the tangent space:
//
//	G = -[[J^-1 dt, 0], [0, R dt], [0, R dt^2/2]]
//
// with J^-1 the SO(3) left Jacobian inverse of w dt and R = exp(-w dt).
func NoiseJacobian(z Measurement, dt, epsilon float64) *mat.Dense {
	phi := z.Gyro.Mul(dt)
	jInv := spatialmath.LeftJacobianInverse(phi, epsilon)
	r := spatialmath.Rot3FromTangent(phi.Mul(-1), epsilon).RotationMatrix()

	g := mat.NewDense(se23.TangentDim, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			g.Set(i, j, -jInv.At(i, j)*dt)
			g.Set(3+i, 3+j, -r.At(i, j)*dt)
			g.Set(6+i, 3+j, -r.At(i, j)*utils.Square(dt)/2)
		}
	}
	return g
}

// TransitionMatrix returns A = Ad(upsilon^-1) F, where F is the identity with dt I coupling
// position error to velocity error.
func TransitionMatrix(upsilon se23.Pose23SE23, dt float64) *mat.Dense {
	f := mat.NewDense(se23.TangentDim, se23.TangentDim, nil)
	for i := 0; i < se23.TangentDim; i++ {
		f.Set(i, i, 1)
	}
	for i := 0; i < 3; i++ {
		f.Set(6+i, 3+i, dt)
	}
	var a mat.Dense
	a.Mul(upsilon.Inverse().Adjoint(), f)
	return &a
}

// Preintegrate appends one bias-corrected sample held for dt to prev:
//
//	upsilon' = Phi(upsilon, dt) * Increment(z, dt)
//	cov'     = A cov A^T + G (noise dt) G^T
//
// prev is not modified. Preintegrate is defined for every input, including zero rotation and dt = 0.
func Preintegrate(noise Noise, prev Preint, z Measurement, dt, epsilon float64) Preint {
	upsilon := Phi(prev.Upsilon, dt).Compose(Increment(z, dt, epsilon))

	q := noise.Cov().Scale(dt).Transform(NoiseJacobian(z, dt, epsilon))
	cov := prev.Cov.Transform(TransitionMatrix(prev.Upsilon, dt)).Add(q)

	return Preint{Upsilon: upsilon, Cov: cov}
}
