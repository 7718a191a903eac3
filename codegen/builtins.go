package codegen

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/inertial/se23/covariance"
	"github.com/inertial/se23/imu"
	"github.com/inertial/se23/se23"
	"github.com/inertial/se23/spatialmath"
)

// Builtins returns a registry holding the manifold and preintegration functions, evaluated with
// the given epsilon. It panics if epsilon is not positive.
func Builtins(epsilon float64) *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r, epsilon); err != nil {
		panic(err)
	}
	return r
}

// RegisterBuiltins adds the manifold and preintegration functions to r. epsilon must be positive
// and finite.
func RegisterBuiltins(r *Registry, epsilon float64) error {
	if !(epsilon > 0) || math.IsInf(epsilon, 0) {
		return errors.Errorf("invalid epsilon %v", epsilon)
	}
	fs := []*Function{
		preintegrateFunction(epsilon),
		NewFunction("imu_noise_cov", "6x6 measurement noise covariance",
			[]Field{F("imu_noise", NoiseSchema.Type())},
			[]Field{F("cov", Cov66)},
			func(in [][]float64) [][]float64 {
				return [][]float64{noiseFromStorage(in[0]).Cov().Storage()}
			}),
		NewFunction("imu_remove_bias", "bias-corrected measurement",
			[]Field{F("z_imu_raw", RawSchema.Type()), F("imu_bias", BiasSchema.Type())},
			[]Field{F("z_imu_est", MeasurementSchema.Type())},
			func(in [][]float64) [][]float64 {
				z := imu.RawMeasurement{Gyro: spatialmath.R3FromSlice(in[0][:3]), Accel: spatialmath.R3FromSlice(in[0][3:6])}.
					Sub(biasFromStorage(in[1]))
				return [][]float64{lo.Must(MeasurementSchema.Join(spatialmath.R3ToSlice(z.Gyro), spatialmath.R3ToSlice(z.Accel)))}
			}),
		NewFunction("imu_initial_state", "navigation state at the identity pose",
			[]Field{F("err_cov", Cov99), F("imu_bias", BiasSchema.Type())},
			[]Field{F("state", StateSchema.Type())},
			func(in [][]float64) [][]float64 {
				return [][]float64{imu.NewState(covariance.Cov99(in[0]), biasFromStorage(in[1])).Storage()}
			}),
		NewFunction("imu_noise_jacobian", "d(increment)/d(measurement noise)",
			[]Field{F("z_imu_est", MeasurementSchema.Type()), F("dt", Scalar)},
			[]Field{F("g", Matrix96)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(imu.NoiseJacobian(measurementFromStorage(in[0]), in[1][0], epsilon))}
			}),
		NewFunction("imu_transition_matrix", "error-state transition over dt",
			[]Field{F("upsilon", Pose23SE23), F("dt", Scalar)},
			[]Field{F("a", Matrix99)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(imu.TransitionMatrix(se23.FromStorage[se23.GroupChart](in[0]), in[1][0]))}
			}),
		NewFunction("pose23_adjoint", "9x9 adjoint of the pose",
			[]Field{F("pose", Pose23)},
			[]Field{F("adjoint", Matrix99)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(se23.FromStorage[se23.ProductChart](in[0]).Adjoint())}
			}),
		NewFunction("pose23_to_homogenous_matrix", "5x5 matrix form of the pose",
			[]Field{F("pose", Pose23)},
			[]Field{F("matrix", Matrix55)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(se23.FromStorage[se23.ProductChart](in[0]).ToHomogenousMatrix())}
			}),
		NewFunction("pose23_se23_hat", "5x5 Lie algebra element of a tangent vector",
			[]Field{F("vec", Vector9)},
			[]Field{F("matrix", Matrix55)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(se23.Hat(se23.TangentFromSlice(in[0])))}
			}),
		NewFunction("rotation_matrix", "3x3 matrix of a rotation",
			[]Field{F("rot", Rot3)},
			[]Field{F("matrix", Matrix33)},
			func(in [][]float64) [][]float64 {
				return [][]float64{denseStorage(spatialmath.Rot3FromStorage(in[0]).Dense())}
			}),
		NewFunction("cov99_transform", "a * cov * a^T",
			[]Field{F("cov", Cov99), F("a", Matrix99)},
			[]Field{F("cov_new", Cov99)},
			func(in [][]float64) [][]float64 {
				a := mat.NewDense(se23.TangentDim, se23.TangentDim, append([]float64(nil), in[1]...))
				return [][]float64{covariance.Cov99(in[0]).Transform(a).Storage()}
			}),
	}
	fs = append(fs, poseFunctions[se23.ProductChart]("pose23", Pose23, epsilon)...)
	fs = append(fs, poseFunctions[se23.GroupChart]("pose23_se23", Pose23SE23, epsilon)...)

	for _, f := range fs {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func preintegrateFunction(epsilon float64) *Function {
	return NewFunction("preintegrate", "one IMU preintegration step",
		[]Field{
			F("imu_noise", NoiseSchema.Type()),
			F("preint_prev", PreintSchema.Type()),
			F("z_imu_est", MeasurementSchema.Type()),
			F("dt", Scalar),
		},
		[]Field{F("preint_new", PreintSchema.Type())},
		func(in [][]float64) [][]float64 {
			next := imu.Preintegrate(
				noiseFromStorage(in[0]),
				imu.PreintFromStorage(in[1]),
				measurementFromStorage(in[2]),
				in[3][0],
				epsilon,
			)
			return [][]float64{lo.Must(PreintSchema.Join(next.Upsilon.Storage(), next.Cov.Storage()))}
		})
}

// poseFunctions returns the group and chart operations of one pose type.
func poseFunctions[C se23.Chart](prefix string, typ Type, epsilon float64) []*Function {
	pose := func(s []float64) se23.Pose[C] { return se23.FromStorage[C](s) }
	return []*Function{
		NewFunction(prefix+"_compose", "a * b",
			[]Field{F("a", typ), F("b", typ)},
			[]Field{F("c", typ)},
			func(in [][]float64) [][]float64 {
				return [][]float64{pose(in[0]).Compose(pose(in[1])).Storage()}
			}),
		NewFunction(prefix+"_inverse", "a^-1",
			[]Field{F("a", typ)},
			[]Field{F("a_inv", typ)},
			func(in [][]float64) [][]float64 {
				return [][]float64{pose(in[0]).Inverse().Storage()}
			}),
		NewFunction(prefix+"_from_tangent", "pose from a tangent vector",
			[]Field{F("vec", Vector9)},
			[]Field{F("pose", typ)},
			func(in [][]float64) [][]float64 {
				return [][]float64{se23.FromTangent[C](se23.TangentFromSlice(in[0]), epsilon).Storage()}
			}),
		NewFunction(prefix+"_to_tangent", "tangent vector of a pose",
			[]Field{F("pose", typ)},
			[]Field{F("vec", Vector9)},
			func(in [][]float64) [][]float64 {
				return [][]float64{pose(in[0]).ToTangent(epsilon).Slice()}
			}),
		NewFunction(prefix+"_retract", "pose perturbed by a tangent vector",
			[]Field{F("a", typ), F("vec", Vector9)},
			[]Field{F("b", typ)},
			func(in [][]float64) [][]float64 {
				return [][]float64{pose(in[0]).Retract(se23.TangentFromSlice(in[1]), epsilon).Storage()}
			}),
		NewFunction(prefix+"_local_coordinates", "tangent vector from a to b",
			[]Field{F("a", typ), F("b", typ)},
			[]Field{F("vec", Vector9)},
			func(in [][]float64) [][]float64 {
				return [][]float64{pose(in[0]).LocalCoordinates(pose(in[1]), epsilon).Slice()}
			}),
	}
}

func noiseFromStorage(s []float64) imu.Noise {
	return imu.Noise{Gyro: spatialmath.R3FromSlice(s[:3]), Accel: spatialmath.R3FromSlice(s[3:6])}
}

func biasFromStorage(s []float64) imu.Bias {
	return imu.Bias{Gyro: spatialmath.R3FromSlice(s[:3]), Accel: spatialmath.R3FromSlice(s[3:6])}
}

func measurementFromStorage(s []float64) imu.Measurement {
	return imu.Measurement{Gyro: spatialmath.R3FromSlice(s[:3]), Accel: spatialmath.R3FromSlice(s[3:6])}
}

// denseStorage flattens m row-major.
func denseStorage(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
