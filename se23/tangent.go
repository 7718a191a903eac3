package se23

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// TangentDim is the dimension of the extended pose tangent space.
const TangentDim = 9

// Tangent is a tangent vector ordered as (rotation, velocity, position).
type Tangent [TangentDim]float64

// NewTangent concatenates the three blocks.
func NewTangent(rot, vel, pos r3.Vector) Tangent {
	return Tangent{rot.X, rot.Y, rot.Z, vel.X, vel.Y, vel.Z, pos.X, pos.Y, pos.Z}
}

// TangentFromSlice copies a 9 element slice. It panics on any other length.
func TangentFromSlice(s []float64) Tangent {
	if len(s) != TangentDim {
		panic(fmt.Sprintf("tangent vector must have %d elements, got %d", TangentDim, len(s)))
	}
	var out Tangent
	copy(out[:], s)
	return out
}

// Rotation is the rotation block.
func (v Tangent) Rotation() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

// Velocity is the velocity block.
func (v Tangent) Velocity() r3.Vector { return r3.Vector{X: v[3], Y: v[4], Z: v[5]} }

// Position is the position block.
func (v Tangent) Position() r3.Vector { return r3.Vector{X: v[6], Y: v[7], Z: v[8]} }

// Slice returns a copy as a slice.
func (v Tangent) Slice() []float64 {
	out := make([]float64, TangentDim)
	copy(out, v[:])
	return out
}
