// Package config defines the JSON configuration of the preintegration tools.
package config

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/inertial/se23/covariance"
	"github.com/inertial/se23/imu"
	"github.com/inertial/se23/logging"
	"github.com/inertial/se23/spatialmath"
)

// Config describes the IMU model and how samples are preintegrated.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Epsilon regularizes the rotation angle near zero. Defaults to spatialmath.NumericEpsilon.
	Epsilon float64 `json:"epsilon,omitempty"`
	Noise   *IMU    `json:"noise"`
	Bias    *IMU    `json:"bias,omitempty"`
	// PriorCovariance holds the 9 variances of the initial preintegration covariance.
	PriorCovariance []float64 `json:"prior_covariance,omitempty"`
	Parallel        bool      `json:"parallel,omitempty"`
	Debug           bool      `json:"debug,omitempty"`
}

// IMU is a pair of per-axis gyroscope and accelerometer values.
type IMU struct {
	Gyro  []float64 `json:"gyro"`
	Accel []float64 `json:"accel"`
}

// Validate ensures both vectors have 3 elements and, if nonNegative is set, no negative element.
func (c *IMU) Validate(path string, nonNegative bool) error {
	for _, field := range []struct {
		name   string
		values []float64
	}{{"gyro", c.Gyro}, {"accel", c.Accel}} {
		if len(field.values) == 0 {
			return utils.NewConfigValidationFieldRequiredError(path, field.name)
		}
		if len(field.values) != 3 {
			return utils.NewConfigValidationError(path,
				errors.Errorf("%s must have 3 elements, got %d", field.name, len(field.values)))
		}
		if !nonNegative {
			continue
		}
		for i, v := range field.values {
			if v < 0 {
				return utils.NewConfigValidationError(path, errors.Errorf("%s[%d] must not be negative", field.name, i))
			}
		}
	}
	return nil
}

func (c *IMU) vectors() (r3.Vector, r3.Vector) {
	return spatialmath.R3FromSlice(c.Gyro), spatialmath.R3FromSlice(c.Accel)
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.Epsilon < 0 {
		return utils.NewConfigValidationError(path, errors.New("epsilon must be positive"))
	}
	if c.Noise == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "noise")
	}
	if err := c.Noise.Validate(fmt.Sprintf("%s.noise", path), true); err != nil {
		return err
	}
	if c.Bias != nil {
		if err := c.Bias.Validate(fmt.Sprintf("%s.bias", path), false); err != nil {
			return err
		}
	}
	if len(c.PriorCovariance) != 0 {
		if len(c.PriorCovariance) != covariance.Dim9 {
			return utils.NewConfigValidationError(path,
				errors.Errorf("prior_covariance must have %d variances, got %d", covariance.Dim9, len(c.PriorCovariance)))
		}
		for i, v := range c.PriorCovariance {
			if v < 0 {
				return utils.NewConfigValidationError(path, errors.Errorf("prior_covariance[%d] must not be negative", i))
			}
		}
	}
	return nil
}

// Ensure validates the config and fills in defaults.
func (c *Config) Ensure(logger logging.Logger) error {
	if err := c.Validate("imu"); err != nil {
		return errors.Wrapf(err, "failed to process Config")
	}
	if c.Epsilon == 0 {
		logger.Debugw("using default epsilon", "epsilon", spatialmath.NumericEpsilon)
		c.Epsilon = spatialmath.NumericEpsilon
	}
	return nil
}

// Prior returns the prior covariance, zero if none is configured.
func (c *Config) Prior() covariance.Cov {
	if len(c.PriorCovariance) == 0 {
		return covariance.Zero(covariance.Dim9)
	}
	return covariance.Diag(c.PriorCovariance...)
}

// Params converts the config into preintegration parameters. The config must have been validated.
func (c *Config) Params() imu.Params {
	params := imu.Params{Prior: c.Prior(), Epsilon: c.Epsilon}
	params.Noise.Gyro, params.Noise.Accel = c.Noise.vectors()
	if c.Bias != nil {
		params.Bias.Gyro, params.Bias.Accel = c.Bias.vectors()
	}
	return params
}
