// Package se23 defines the extended pose (rotation, velocity, position) used for inertial
// navigation, with a product-manifold chart and an SE2(3) Lie group chart.
package se23

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/inertial/se23/spatialmath"
)

// StorageDim is the number of scalars in the flat storage of a pose: rotation matrix, velocity, position.
const StorageDim = spatialmath.Rot3StorageDim + 6

// HomogenousDim is the side of the homogeneous matrix representation.
const HomogenousDim = 5

// Pose is an element of SO(3) x R3 x R3. The chart C decides how tangent vectors map onto it.
// Poses are values; every operation returns a new Pose.
type Pose[C Chart] struct {
	rot spatialmath.Rot3
	vel r3.Vector
	pos r3.Vector
}

// Pose23 is the extended pose with the product chart.
type Pose23 = Pose[ProductChart]

// Pose23SE23 is the extended pose with the SE2(3) group chart.
type Pose23SE23 = Pose[GroupChart]

// New builds a pose from its components.
func New[C Chart](rot spatialmath.Rot3, vel, pos r3.Vector) Pose[C] {
	return Pose[C]{rot: rot, vel: vel, pos: pos}
}

// NewPose23 builds a product chart pose from its components.
func NewPose23(rot spatialmath.Rot3, vel, pos r3.Vector) Pose23 {
	return New[ProductChart](rot, vel, pos)
}

// NewPose23SE23 builds a group chart pose from its components.
func NewPose23SE23(rot spatialmath.Rot3, vel, pos r3.Vector) Pose23SE23 {
	return New[GroupChart](rot, vel, pos)
}

// Identity is the pose with identity rotation, zero velocity and zero position.
func Identity[C Chart]() Pose[C] {
	return Pose[C]{rot: spatialmath.NewRot3()}
}

// FromTangent is the exponential map of chart C.
func FromTangent[C Chart](vec Tangent, epsilon float64) Pose[C] {
	var c C
	rot, vel, pos := c.expMap(vec, epsilon)
	return Pose[C]{rot: rot, vel: vel, pos: pos}
}

// FromStorage reads a pose back from its flat storage. It panics unless len(elements) == StorageDim.
func FromStorage[C Chart](elements []float64) Pose[C] {
	if len(elements) != StorageDim {
		panic(fmt.Sprintf("pose storage must have %d elements, got %d", StorageDim, len(elements)))
	}
	n := spatialmath.Rot3StorageDim
	return Pose[C]{
		rot: spatialmath.Rot3FromStorage(elements[:n]),
		vel: spatialmath.R3FromSlice(elements[n : n+3]),
		pos: spatialmath.R3FromSlice(elements[n+3 : n+6]),
	}
}

// FromHomogenousMatrix reads the upper 3x5 block [R, v, t] of a 5x5 matrix.
// The bottom rows are not checked. It panics if m is not 5x5.
func FromHomogenousMatrix[C Chart](m mat.Matrix) Pose[C] {
	if r, c := m.Dims(); r != HomogenousDim || c != HomogenousDim {
		panic(fmt.Sprintf("homogenous matrix must be %dx%d, got %dx%d", HomogenousDim, HomogenousDim, r, c))
	}
	var rot mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, m.At(i, j))
		}
	}
	return Pose[C]{
		rot: spatialmath.Rot3FromRotationMatrix(rot),
		vel: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
		pos: r3.Vector{X: m.At(0, 4), Y: m.At(1, 4), Z: m.At(2, 4)},
	}
}

// Convert reinterprets a pose under a different chart. Storage is unchanged.
func Convert[D, C Chart](p Pose[C]) Pose[D] {
	return Pose[D]{rot: p.rot, vel: p.vel, pos: p.pos}
}

// Rotation returns the rotation component.
func (p Pose[C]) Rotation() spatialmath.Rot3 { return p.rot }

// Velocity returns the velocity component.
func (p Pose[C]) Velocity() r3.Vector { return p.vel }

// Position returns the position component.
func (p Pose[C]) Position() r3.Vector { return p.pos }

// ChartName returns the name of the pose's chart.
func (p Pose[C]) ChartName() string {
	var c C
	return c.Name()
}

// Compose returns p * other: (R1 R2, R1 v2 + v1, R1 t2 + t1).
func (p Pose[C]) Compose(other Pose[C]) Pose[C] {
	return Pose[C]{
		rot: p.rot.Compose(other.rot),
		vel: p.rot.Rotate(other.vel).Add(p.vel),
		pos: p.rot.Rotate(other.pos).Add(p.pos),
	}
}

// Inverse returns (R^-1, -R^-1 v, -R^-1 t).
func (p Pose[C]) Inverse() Pose[C] {
	inv := p.rot.Inverse()
	return Pose[C]{
		rot: inv,
		vel: inv.Rotate(p.vel).Mul(-1),
		pos: inv.Rotate(p.pos).Mul(-1),
	}
}

// ToTangent is the logarithm map of the pose's chart.
func (p Pose[C]) ToTangent(epsilon float64) Tangent {
	var c C
	return c.logMap(p.rot, p.vel, p.pos, epsilon)
}

// Retract perturbs p by a tangent vector. The product chart retracts the rotation block on
// SO(3) and adds the velocity and position blocks. The group chart composes p * exp(delta).
func (p Pose[C]) Retract(delta Tangent, epsilon float64) Pose[C] {
	var c C
	if c.retractByCompose() {
		return p.Compose(FromTangent[C](delta, epsilon))
	}
	return Pose[C]{
		rot: p.rot.Retract(delta.Rotation(), epsilon),
		vel: p.vel.Add(delta.Velocity()),
		pos: p.pos.Add(delta.Position()),
	}
}

// LocalCoordinates returns the tangent vector d such that p.Retract(d) == other.
func (p Pose[C]) LocalCoordinates(other Pose[C], epsilon float64) Tangent {
	var c C
	if c.retractByCompose() {
		return p.Inverse().Compose(other).ToTangent(epsilon)
	}
	return NewTangent(
		p.rot.LocalCoordinates(other.rot, epsilon),
		other.vel.Sub(p.vel),
		other.pos.Sub(p.pos),
	)
}

// Storage returns the rotation matrix in row-major order followed by velocity and position.
func (p Pose[C]) Storage() []float64 {
	out := make([]float64, 0, StorageDim)
	out = append(out, p.rot.Storage()...)
	out = append(out, p.vel.X, p.vel.Y, p.vel.Z)
	return append(out, p.pos.X, p.pos.Y, p.pos.Z)
}

// ToHomogenousMatrix returns the 5x5 matrix [[R, v, t], [0, I2]].
func (p Pose[C]) ToHomogenousMatrix() *mat.Dense {
	m := mat.NewDense(HomogenousDim, HomogenousDim, nil)
	r := p.rot.RotationMatrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, r.At(i, j))
		}
	}
	setColumn(m, 3, p.vel)
	setColumn(m, 4, p.pos)
	m.Set(3, 3, 1)
	m.Set(4, 4, 1)
	return m
}

// Adjoint returns the 9x9 matrix [[R, 0, 0], [hat(v) R, R, 0], [hat(t) R, 0, R]].
func (p Pose[C]) Adjoint() *mat.Dense {
	r := p.rot.RotationMatrix()
	ad := mat.NewDense(TangentDim, TangentDim, nil)
	setBlock(ad, 0, 0, r)
	setBlock(ad, 3, 0, spatialmath.Hat(p.vel).Mul3(r))
	setBlock(ad, 3, 3, r)
	setBlock(ad, 6, 0, spatialmath.Hat(p.pos).Mul3(r))
	setBlock(ad, 6, 6, r)
	return ad
}

// TransformPoint maps a point from the pose's frame: R x + t.
func (p Pose[C]) TransformPoint(x r3.Vector) r3.Vector {
	return p.rot.Rotate(x).Add(p.pos)
}

// StorageDTangent is the 15x9 derivative of Storage() with respect to the retraction at p.
func (p Pose[C]) StorageDTangent() *mat.Dense {
	var c C
	b := c.translationalBlock(p.rot)
	d := mat.NewDense(StorageDim, TangentDim, nil)
	d.Slice(0, spatialmath.Rot3StorageDim, 0, 3).(*mat.Dense).Copy(p.rot.StorageDTangent())
	setBlock(d, 9, 3, b)
	setBlock(d, 12, 6, b)
	return d
}

// TangentDStorage is the 9x15 left inverse of StorageDTangent.
func (p Pose[C]) TangentDStorage() *mat.Dense {
	var c C
	bt := c.translationalBlock(p.rot).Transpose()
	d := mat.NewDense(TangentDim, StorageDim, nil)
	d.Slice(0, 3, 0, spatialmath.Rot3StorageDim).(*mat.Dense).Copy(p.rot.TangentDStorage())
	setBlock(d, 3, 9, bt)
	setBlock(d, 6, 12, bt)
	return d
}

// AlmostEqual compares every component within tol.
func (p Pose[C]) AlmostEqual(other Pose[C], tol float64) bool {
	return p.rot.AlmostEqual(other.rot, tol) &&
		spatialmath.VectorAlmostEqual(p.vel, other.vel, tol) &&
		spatialmath.VectorAlmostEqual(p.pos, other.pos, tol)
}

func (p Pose[C]) String() string {
	return fmt.Sprintf("%s{R: %v, v: %v, t: %v}", p.ChartName(), p.rot.AxisAngles(), p.vel, p.pos)
}

// Hat maps a tangent vector to its 5x5 Lie algebra matrix [[hat(phi), rho_v, rho_t], [0, 0]].
func Hat(vec Tangent) *mat.Dense {
	m := mat.NewDense(HomogenousDim, HomogenousDim, nil)
	setBlock(m, 0, 0, spatialmath.Hat(vec.Rotation()))
	setColumn(m, 3, vec.Velocity())
	setColumn(m, 4, vec.Position())
	return m
}

func setBlock(m *mat.Dense, row, col int, block mgl64.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(row+i, col+j, block.At(i, j))
		}
	}
}

func setColumn(m *mat.Dense, col int, v r3.Vector) {
	m.Set(0, col, v.X)
	m.Set(1, col, v.Y)
	m.Set(2, col, v.Z)
}
