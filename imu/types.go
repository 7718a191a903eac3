// Package imu implements IMU preintegration on the SE2(3) extended pose group with closed-form
// covariance propagation.
package imu

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/inertial/se23/covariance"
	"github.com/inertial/se23/se23"
	"github.com/inertial/se23/spatialmath"
)

// PreintStorageDim is the storage size of a Preint: 15 pose scalars and 45 covariance scalars.
var PreintStorageDim = se23.StorageDim + covariance.StorageDim(covariance.Dim9)

// Noise holds per-axis gyroscope and accelerometer noise densities.
type Noise struct {
	Gyro  r3.Vector
	Accel r3.Vector
}

// Cov returns the 6x6 diagonal covariance diag(gyro, accel).
func (n Noise) Cov() covariance.Cov {
	return covariance.Diag(n.Gyro.X, n.Gyro.Y, n.Gyro.Z, n.Accel.X, n.Accel.Y, n.Accel.Z)
}

// Bias is the gyroscope and accelerometer bias.
type Bias struct {
	Gyro  r3.Vector
	Accel r3.Vector
}

// RawMeasurement is an uncorrected IMU sample.
type RawMeasurement struct {
	Gyro  r3.Vector
	Accel r3.Vector
}

// Sub removes the bias from the measurement.
func (z RawMeasurement) Sub(b Bias) Measurement {
	return Measurement{Gyro: z.Gyro.Sub(b.Gyro), Accel: z.Accel.Sub(b.Accel)}
}

// Measurement is a bias-corrected IMU sample.
type Measurement struct {
	Gyro  r3.Vector
	Accel r3.Vector
}

// Preint is an accumulated preintegrated delta pose and its 9x9 covariance.
type Preint struct {
	Upsilon se23.Pose23SE23
	Cov     covariance.Cov
}

// NewPreint returns the preintegration state at the reference time: identity pose, zero covariance.
func NewPreint() Preint {
	return NewPreintWithPrior(covariance.Zero(covariance.Dim9))
}

// NewPreintWithPrior returns an identity pose with the given 9x9 covariance.
func NewPreintWithPrior(prior covariance.Cov) Preint {
	if prior.Dim() != covariance.Dim9 {
		panic(fmt.Sprintf("preintegration covariance must be 9x9, got %dx%d", prior.Dim(), prior.Dim()))
	}
	return Preint{Upsilon: se23.Identity[se23.GroupChart](), Cov: prior}
}

// PreintFromStorage reads a Preint from pose storage followed by covariance storage.
func PreintFromStorage(storage []float64) Preint {
	if len(storage) != PreintStorageDim {
		panic(fmt.Sprintf("preint storage must have %d elements, got %d", PreintStorageDim, len(storage)))
	}
	return Preint{
		Upsilon: se23.FromStorage[se23.GroupChart](storage[:se23.StorageDim]),
		Cov:     covariance.Cov99(storage[se23.StorageDim:]),
	}
}

// Storage returns the pose storage followed by the covariance storage.
func (p Preint) Storage() []float64 {
	return append(p.Upsilon.Storage(), p.Cov.Storage()...)
}

// State is a navigation state: nominal pose, error covariance and IMU bias.
type State struct {
	Nominal se23.Pose23SE23
	ErrCov  covariance.Cov
	Bias    Bias
}

// NewState returns a state at the identity pose.
func NewState(errCov covariance.Cov, bias Bias) State {
	return State{Nominal: se23.Identity[se23.GroupChart](), ErrCov: errCov, Bias: bias}
}

// Storage returns the nominal pose, error covariance, gyro bias and accel bias storage.
func (s State) Storage() []float64 {
	out := append(s.Nominal.Storage(), s.ErrCov.Storage()...)
	out = append(out, spatialmath.R3ToSlice(s.Bias.Gyro)...)
	return append(out, spatialmath.R3ToSlice(s.Bias.Accel)...)
}
