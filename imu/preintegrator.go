package imu

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/inertial/se23/covariance"
	"github.com/inertial/se23/logging"
	"github.com/inertial/se23/spatialmath"
)

// Params configures a Preintegrator.
type Params struct {
	Noise   Noise
	Bias    Bias
	Prior   covariance.Cov
	Epsilon float64
}

// Preintegrator accumulates a chain of raw IMU samples into a Preint. It is safe for concurrent
// use, though samples of one chain must be added in order.
type Preintegrator struct {
	mu      sync.Mutex
	params  Params
	current Preint
	samples int
	elapsed float64
	logger  logging.Logger
}

// NewPreintegrator starts a chain at the identity with params.Prior as covariance. A zero-sized
// prior is treated as the zero 9x9 covariance and a zero epsilon as spatialmath.NumericEpsilon.
func NewPreintegrator(params Params, logger logging.Logger) (*Preintegrator, error) {
	if params.Epsilon < 0 || math.IsNaN(params.Epsilon) || math.IsInf(params.Epsilon, 0) {
		return nil, errors.Errorf("invalid epsilon %v", params.Epsilon)
	}
	if params.Epsilon == 0 {
		params.Epsilon = spatialmath.NumericEpsilon
	}
	if params.Prior.Dim() == 0 {
		params.Prior = covariance.Zero(covariance.Dim9)
	}
	return &Preintegrator{
		params:  params,
		current: NewPreintWithPrior(params.Prior),
		logger:  logger,
	}, nil
}

// Add removes the bias from raw and preintegrates it over dt. dt must be finite and non-negative.
func (p *Preintegrator) Add(raw RawMeasurement, dt float64) (Preint, error) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return Preint{}, errors.Errorf("invalid time step %v", dt)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	z := raw.Sub(p.params.Bias)
	p.current = Preintegrate(p.params.Noise, p.current, z, dt, p.params.Epsilon)
	p.samples++
	p.elapsed += dt
	p.logger.Debugw("preintegrated sample",
		logging.Sample(p.samples),
		logging.Step(dt),
		"elapsed", p.elapsed,
		"cov_trace", p.current.Cov.Trace())
	return p.current, nil
}

// Current returns the accumulated state.
func (p *Preintegrator) Current() Preint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Samples returns how many samples have been added since the last reset.
func (p *Preintegrator) Samples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samples
}

// Elapsed returns the integrated time since the last reset.
func (p *Preintegrator) Elapsed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

// SetBias changes the bias subtracted from subsequent samples.
func (p *Preintegrator) SetBias(bias Bias) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params.Bias = bias
}

// Reset starts a new chain from the identity and the prior covariance.
func (p *Preintegrator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debugw("reset", "samples", p.samples, "elapsed", p.elapsed)
	p.current = NewPreintWithPrior(p.params.Prior)
	p.samples = 0
	p.elapsed = 0
}
