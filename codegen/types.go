// Package codegen describes the manifold and preintegration operations as named numeric functions
// with typed, fixed-size inputs and outputs, so they can be evaluated, differentiated and listed
// without reflection.
package codegen

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/inertial/se23/covariance"
	"github.com/inertial/se23/se23"
	"github.com/inertial/se23/spatialmath"
)

// Type is a value type with a fixed storage dimension. Matrix types also carry their shape and
// are stored row-major.
type Type struct {
	Name string
	Dim  int
	Rows int
	Cols int
}

// IsMatrix reports whether the type has a matrix shape.
func (t Type) IsMatrix() bool {
	return t.Rows > 0 && t.Cols > 0
}

func (t Type) String() string {
	if t.IsMatrix() {
		return fmt.Sprintf("%s[%dx%d]", t.Name, t.Rows, t.Cols)
	}
	return fmt.Sprintf("%s[%d]", t.Name, t.Dim)
}

func matrixType(name string, rows, cols int) Type {
	return Type{Name: name, Dim: rows * cols, Rows: rows, Cols: cols}
}

// Types of the manifold and covariance values.
var (
	Scalar     = Type{Name: "Scalar", Dim: 1}
	Vector3    = Type{Name: "Vector3", Dim: 3}
	Vector9    = Type{Name: "Vector9", Dim: se23.TangentDim}
	Rot3       = Type{Name: "Rot3", Dim: spatialmath.Rot3StorageDim}
	Pose23     = Type{Name: "Pose23", Dim: se23.StorageDim}
	Pose23SE23 = Type{Name: "Pose23_SE23", Dim: se23.StorageDim}
	Cov33      = Type{Name: "Cov33", Dim: covariance.StorageDim(covariance.Dim3)}
	Cov66      = Type{Name: "Cov66", Dim: covariance.StorageDim(covariance.Dim6)}
	Cov99      = Type{Name: "Cov99", Dim: covariance.StorageDim(covariance.Dim9)}
	Matrix33   = matrixType("Matrix33", 3, 3)
	Matrix55   = matrixType("Matrix55", se23.HomogenousDim, se23.HomogenousDim)
	Matrix96   = matrixType("Matrix96", se23.TangentDim, 6)
	Matrix99   = matrixType("Matrix99", se23.TangentDim, se23.TangentDim)
)

// Field is a named, typed value.
type Field struct {
	Name string
	Type Type
}

// F is shorthand for Field{name, typ}.
func F(name string, typ Type) Field {
	return Field{Name: name, Type: typ}
}

// Schema is an ordered list of fields stored back to back. Offsets are computed once, at construction.
type Schema struct {
	name    string
	fields  []Field
	offsets []int
	dim     int
}

// NewSchema compiles a struct schema. Field names must be unique.
func NewSchema(name string, fields ...Field) Schema {
	if dups := lo.FindDuplicates(lo.Map(fields, func(f Field, _ int) string { return f.Name })); len(dups) != 0 {
		panic(fmt.Sprintf("schema %s has duplicate fields %v", name, dups))
	}
	offsets := make([]int, len(fields))
	dim := 0
	for i, f := range fields {
		offsets[i] = dim
		dim += f.Type.Dim
	}
	return Schema{name: name, fields: fields, offsets: offsets, dim: dim}
}

// Name returns the schema name.
func (s Schema) Name() string { return s.name }

// Fields returns the fields in storage order.
func (s Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Dim returns the total storage dimension.
func (s Schema) Dim() int { return s.dim }

// Type returns the struct as a Type.
func (s Schema) Type() Type { return Type{Name: s.name, Dim: s.dim} }

// Split cuts storage into one slice per field. The slices alias storage.
func (s Schema) Split(storage []float64) ([][]float64, error) {
	if len(storage) != s.dim {
		return nil, dimensionMismatch(s.name, s.dim, len(storage))
	}
	return lo.Map(s.fields, func(f Field, i int) []float64 {
		return storage[s.offsets[i] : s.offsets[i]+f.Type.Dim]
	}), nil
}

// Join concatenates one slice per field into storage.
func (s Schema) Join(parts ...[]float64) ([]float64, error) {
	if len(parts) != len(s.fields) {
		return nil, errors.Errorf("%s has %d fields, got %d values", s.name, len(s.fields), len(parts))
	}
	out := make([]float64, 0, s.dim)
	for i, f := range s.fields {
		if len(parts[i]) != f.Type.Dim {
			return nil, dimensionMismatch(fmt.Sprintf("%s.%s", s.name, f.Name), f.Type.Dim, len(parts[i]))
		}
		out = append(out, parts[i]...)
	}
	return out, nil
}

// Struct schemas of the IMU value types.
var (
	NoiseSchema       = NewSchema("ImuNoise", F("gyro", Vector3), F("accl", Vector3))
	BiasSchema        = NewSchema("ImuBias", F("gyro", Vector3), F("accl", Vector3))
	RawSchema         = NewSchema("ZImuRaw", F("gyro", Vector3), F("accl", Vector3))
	MeasurementSchema = NewSchema("ZImuEst", F("gyro", Vector3), F("accl", Vector3))
	PreintSchema      = NewSchema("ImuPreint", F("upsilon", Pose23SE23), F("cov", Cov99))
	StateSchema       = NewSchema("State", F("nom", Pose23SE23), F("err_cov", Cov99), F("imu_bias", BiasSchema.Type()))
)
