package imu

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/inertial/se23/logging"
	"github.com/inertial/se23/utils"
)

// SampleColumns are the CSV columns a sample file must contain. Other columns are ignored.
var SampleColumns = []string{"t", "gx", "gy", "gz", "ax", "ay", "az"}

// Sample is a timestamped raw IMU reading.
type Sample struct {
	Time   float64 `json:"t"`
	GyroX  float64 `json:"gx"`
	GyroY  float64 `json:"gy"`
	GyroZ  float64 `json:"gz"`
	AccelX float64 `json:"ax"`
	AccelY float64 `json:"ay"`
	AccelZ float64 `json:"az"`
}

// Raw returns the sample as a raw measurement.
func (s Sample) Raw() RawMeasurement {
	return RawMeasurement{
		Gyro:  r3.Vector{X: s.GyroX, Y: s.GyroY, Z: s.GyroZ},
		Accel: r3.Vector{X: s.AccelX, Y: s.AccelY, Z: s.AccelZ},
	}
}

// ReadSamplesCSV reads samples from CSV with a header row naming at least SampleColumns.
func ReadSamplesCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read sample header")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	for _, col := range SampleColumns {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("sample header is missing column %q", col)
		}
	}

	var samples []Sample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read sample on line %d", line)
		}
		attrs := make(map[string]interface{}, len(header))
		for i, h := range header {
			if i < len(record) {
				attrs[h] = strings.TrimSpace(record[i])
			}
		}
		sample, err := decodeSample(attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot decode sample on line %d", line)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func decodeSample(attrs map[string]interface{}) (Sample, error) {
	var sample Sample
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &sample,
		WeaklyTypedInput: true,
		ErrorUnset:       true,
	})
	if err != nil {
		return Sample{}, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return Sample{}, err
	}
	return sample, nil
}

// Intervals returns the time steps between consecutive samples.
func Intervals(samples []Sample) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		out = append(out, samples[i].Time-samples[i-1].Time)
	}
	return out
}

// IntegrateSamples adds every sample but the last to p, each held until the next sample's time.
// It stops early if ctx is done.
func IntegrateSamples(ctx context.Context, p *Preintegrator, samples []Sample) (Preint, error) {
	for i := 1; i < len(samples); i++ {
		if err := ctx.Err(); err != nil {
			return Preint{}, err
		}
		dt := samples[i].Time - samples[i-1].Time
		if _, err := p.Add(samples[i-1].Raw(), dt); err != nil {
			return Preint{}, errors.Wrapf(err, "sample %d at t=%v", i-1, samples[i-1].Time)
		}
	}
	return p.Current(), nil
}

// Chain is an independent sequence of samples, for example one keyframe window.
type Chain struct {
	Name    string
	Samples []Sample
}

// IntegrateChain preintegrates one chain with a fresh Preintegrator whose entries carry the
// chain name.
func IntegrateChain(ctx context.Context, params Params, chain Chain, logger logging.Logger) (Preint, error) {
	p, err := NewPreintegrator(params, logger.With(logging.Chain(chain.Name)))
	if err != nil {
		return Preint{}, err
	}
	preint, err := IntegrateSamples(ctx, p, chain.Samples)
	if err != nil {
		return Preint{}, errors.Wrapf(err, "chain %q", chain.Name)
	}
	return preint, nil
}

// IntegrateChains runs IntegrateChain for every chain in parallel. Results are in the order of
// chains.
func IntegrateChains(ctx context.Context, params Params, chains []Chain, logger logging.Logger) ([]Preint, error) {
	results := make([]Preint, len(chains))
	fs := make([]utils.SimpleFunc, 0, len(chains))
	for i, chain := range chains {
		fs = append(fs, func(ctx context.Context) error {
			preint, err := IntegrateChain(ctx, params, chain, logger)
			results[i] = preint
			return err
		})
	}
	elapsed, err := utils.RunInParallel(ctx, fs)
	if err != nil {
		return nil, err
	}
	logger.Debugw("integrated chains", "count", len(chains), "elapsed", elapsed)
	return results, nil
}
