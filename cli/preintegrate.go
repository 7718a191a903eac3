package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/inertial/se23/config"
	"github.com/inertial/se23/imu"
	"github.com/inertial/se23/logging"
)

type chainResult struct {
	Name    string    `json:"name"`
	Samples int       `json:"samples"`
	Storage []float64 `json:"storage"`
}

// PreintegrateAction is the corresponding Action for 'preintegrate'.
func PreintegrateAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one sample file is required")
	}
	logger := newLogger(c).Sublogger("preintegrate")
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	if cfg.Debug {
		logger.SetLevel(logging.DEBUG)
	}

	chains := make([]imu.Chain, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		samples, err := readSamples(path)
		if err != nil {
			return err
		}
		chains = append(chains, imu.Chain{Name: filepath.Base(path), Samples: samples})
	}

	params := cfg.Params()
	var results []imu.Preint
	if cfg.Parallel || c.Bool(parallelFlag) {
		results, err = imu.IntegrateChains(c.Context, params, chains, logger)
		if err != nil {
			return err
		}
	} else {
		for _, chain := range chains {
			preint, err := imu.IntegrateChain(c.Context, params, chain, logger)
			if err != nil {
				return err
			}
			results = append(results, preint)
		}
	}

	if c.Bool(jsonFlag) {
		out := make([]chainResult, 0, len(chains))
		for i, chain := range chains {
			out = append(out, chainResult{Name: chain.Name, Samples: len(chain.Samples), Storage: results[i].Storage()})
		}
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Chain", "Samples", "Duration", "dt mean", "dt stddev", "Rotation", "Velocity", "Position", "Cov trace"})
	for i, chain := range chains {
		row, err := summarize(chain, results[i], params.Epsilon, logger)
		if err != nil {
			return err
		}
		t.AppendRow(row)
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func summarize(chain imu.Chain, preint imu.Preint, epsilon float64, logger logging.Logger) (table.Row, error) {
	var duration, mean, stddev float64
	if intervals := imu.Intervals(chain.Samples); len(intervals) != 0 {
		data := stats.Float64Data(intervals)
		var err error
		if duration, err = stats.Sum(data); err != nil {
			return nil, err
		}
		if mean, err = stats.Mean(data); err != nil {
			return nil, err
		}
		if stddev, err = stats.StandardDeviation(data); err != nil {
			return nil, err
		}
	} else {
		logger.Warnw("chain has fewer than two samples", logging.Chain(chain.Name))
	}
	return table.Row{
		chain.Name,
		len(chain.Samples),
		formatFloats([]float64{duration}),
		formatFloats([]float64{mean}),
		formatFloats([]float64{stddev}),
		formatVector(preint.Upsilon.Rotation().ToTangent(epsilon)),
		formatVector(preint.Upsilon.Velocity()),
		formatVector(preint.Upsilon.Position()),
		formatFloats([]float64{preint.Cov.Trace()}),
	}, nil
}

func readSamples(path string) ([]imu.Sample, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck
		f.Close()
	}()
	samples, err := imu.ReadSamplesCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return samples, nil
}

// loadConfig reads --config if given, applies the noise, bias and prior flags, then validates
// the result.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(configFlag); path != "" {
		read, err := config.Read(path, logger)
		if err != nil {
			return nil, err
		}
		cfg = read
	}

	for _, override := range []struct {
		flag   string
		target func() *config.IMU
		set    func(*config.IMU, []float64)
	}{
		{gyroNoiseFlag, func() *config.IMU { return ensureIMU(&cfg.Noise) }, func(m *config.IMU, v []float64) { m.Gyro = v }},
		{accelNoiseFlag, func() *config.IMU { return ensureIMU(&cfg.Noise) }, func(m *config.IMU, v []float64) { m.Accel = v }},
		{gyroBiasFlag, func() *config.IMU { return ensureIMU(&cfg.Bias, 0) }, func(m *config.IMU, v []float64) { m.Gyro = v }},
		{accelBiasFlag, func() *config.IMU { return ensureIMU(&cfg.Bias, 0) }, func(m *config.IMU, v []float64) { m.Accel = v }},
	} {
		if !c.IsSet(override.flag) {
			continue
		}
		values, err := parseFloats(c.String(override.flag))
		if err != nil {
			return nil, errors.Wrapf(err, "--%s", override.flag)
		}
		override.set(override.target(), values)
	}
	if c.IsSet(priorFlag) {
		values, err := parseFloats(c.String(priorFlag))
		if err != nil {
			return nil, errors.Wrapf(err, "--%s", priorFlag)
		}
		cfg.PriorCovariance = values
	}

	if err := cfg.Ensure(logger); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureIMU allocates *m if needed. A fill value, if given, sets both vectors to that constant.
func ensureIMU(m **config.IMU, fill ...float64) *config.IMU {
	if *m == nil {
		*m = &config.IMU{}
		if len(fill) != 0 {
			(*m).Gyro = []float64{fill[0], fill[0], fill[0]}
			(*m).Accel = []float64{fill[0], fill[0], fill[0]}
		}
	}
	return *m
}
