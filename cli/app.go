// Package cli contains the se23 command line tool: preintegrating recorded IMU samples and
// evaluating the registered manifold functions.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/inertial/se23/spatialmath"
)

const (
	configFlag     = "config"
	debugFlag      = "debug"
	logFileFlag    = "log-file"
	epsilonFlag    = "epsilon"
	jsonFlag       = "json"
	parallelFlag   = "parallel"
	gyroNoiseFlag  = "gyro-noise"
	accelNoiseFlag = "accel-noise"
	gyroBiasFlag   = "gyro-bias"
	accelBiasFlag  = "accel-bias"
	priorFlag      = "prior"
	wrtFlag        = "wrt"
	outputFlag     = "output"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "se23",
		Usage:           "preintegrate IMU samples on SE2(3)",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  logFileFlag,
				Usage: "also write logs to `FILE`, rotated by size",
			},
			&cli.Float64Flag{
				Name:  epsilonFlag,
				Value: spatialmath.NumericEpsilon,
				Usage: "angle regularization used by evaluate and jacobian",
			},
		},
		After: func(c *cli.Context) error {
			return closeLogFile()
		},
		Commands: []*cli.Command{
			{
				Name:      "preintegrate",
				Usage:     "preintegrate CSV sample files, one chain per file",
				ArgsUsage: "<samples.csv>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  gyroNoiseFlag,
						Usage: "gyroscope noise as `X,Y,Z`, overrides the config",
					},
					&cli.StringFlag{
						Name:  accelNoiseFlag,
						Usage: "accelerometer noise as `X,Y,Z`, overrides the config",
					},
					&cli.StringFlag{
						Name:  gyroBiasFlag,
						Usage: "gyroscope bias as `X,Y,Z`, overrides the config",
					},
					&cli.StringFlag{
						Name:  accelBiasFlag,
						Usage: "accelerometer bias as `X,Y,Z`, overrides the config",
					},
					&cli.StringFlag{
						Name:  priorFlag,
						Usage: "9 prior variances, comma separated",
					},
					&cli.BoolFlag{
						Name:  parallelFlag,
						Usage: "integrate chains in parallel",
					},
					&cli.BoolFlag{
						Name:  jsonFlag,
						Usage: "print the preintegrated storage as JSON",
					},
				},
				Action: PreintegrateAction,
			},
			{
				Name:      "functions",
				Usage:     "list the registered functions, or describe one",
				ArgsUsage: "[name]",
				Action:    FunctionsAction,
			},
			{
				Name:      "evaluate",
				Usage:     "evaluate a function; each input is a comma separated list",
				ArgsUsage: "<name> <input>...",
				Action:    EvaluateAction,
			},
			{
				Name:      "jacobian",
				Usage:     "differentiate one output of a function with respect to one input",
				ArgsUsage: "<name> <input>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     wrtFlag,
						Usage:    "input to differentiate with respect to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     outputFlag,
						Usage:    "output to differentiate",
						Required: true,
					},
				},
				Action: JacobianAction,
			},
		},
	}
}
