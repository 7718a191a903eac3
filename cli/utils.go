package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/inertial/se23/logging"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

var (
	logFileMu sync.Mutex
	logFiles  []io.Closer
)

// newLogger logs to the app's error writer at info, or debug with --debug. With --log-file it
// also writes to that file.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("se23")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if path := c.String(logFileFlag); path != "" {
		appender, closer := logging.NewFileAppender(path)
		logger.AddAppender(appender)
		logFileMu.Lock()
		logFiles = append(logFiles, closer)
		logFileMu.Unlock()
	}
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

// closeLogFile closes every file opened by newLogger.
func closeLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	var err error
	for _, closer := range logFiles {
		err = multierr.Combine(err, closer.Close())
	}
	logFiles = nil
	return err
}

// parseFloats parses a comma separated list of numbers. An empty string is an empty list.
func parseFloats(s string) ([]float64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(parts))
	for i, part := range parts {
		f, err := cast.ToFloat64E(part)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d of %q", i, s)
		}
		out = append(out, f)
	}
	return out, nil
}

func formatFloats(values []float64) string {
	return strings.Join(lo.Map(values, func(v float64, _ int) string {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}), ", ")
}

func formatVector(v r3.Vector) string {
	return "(" + formatFloats([]float64{v.X, v.Y, v.Z}) + ")"
}
