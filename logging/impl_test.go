package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("step", "dt", 0.01, "count", 3)
	logger.Infof("integrated %d samples", 3)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].Message, test.ShouldEqual, "step")
	test.That(t, entries[0].ContextMap()["dt"], test.ShouldEqual, 0.01)
	test.That(t, entries[1].Message, test.ShouldEqual, "integrated 3 samples")
	test.That(t, entries[1].Caller.Defined, test.ShouldBeTrue)
	test.That(t, entries[1].Caller.File, test.ShouldEndWith, "impl_test.go")
}

func TestLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	level, err := LevelFromString("Warning")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, DEBUG.String(), test.ShouldEqual, "Debug")
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("imu").Sublogger("chain")
	sub.Infow("sample", "index", 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "imu.chain")

	var buf bytes.Buffer
	named := NewBlankLogger("cli")
	named.AddAppender(NewWriterAppender(&buf))
	named.Sublogger("preintegrate").Warnw("gap", "dt", 0.5, "dangling")
	line := buf.String()
	test.That(t, line, test.ShouldContainSubstring, "WARN\tcli.preintegrate")
	test.That(t, line, test.ShouldContainSubstring, `"dt":0.5`)
	test.That(t, line, test.ShouldContainSubstring, "unpaired log key")
	test.That(t, strings.Count(line, "\n"), test.ShouldEqual, 1)
	test.That(t, named.Sync(), test.ShouldBeNil)
}

func TestWith(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	chain := logger.With(Chain("window-3"))
	chain.Debugw("preintegrated sample", Sample(2), Step(0.01), "elapsed", 0.02)
	chain.With("axis", "z").Warnw("saturated", "value", 16.0)
	logger.Infow("untouched")

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 3)
	fields := entries[0].ContextMap()
	test.That(t, fields["chain"], test.ShouldEqual, "window-3")
	test.That(t, fields["sample"], test.ShouldEqual, int64(2))
	test.That(t, fields["dt"], test.ShouldEqual, 0.01)
	test.That(t, fields["elapsed"], test.ShouldEqual, 0.02)
	test.That(t, entries[1].ContextMap(), test.ShouldResemble,
		map[string]interface{}{"chain": "window-3", "axis": "z", "value": 16.0})
	test.That(t, entries[2].ContextMap(), test.ShouldBeEmpty)
	test.That(t, entries[0].Caller.File, test.ShouldEndWith, "impl_test.go")

	// derived loggers follow the level of their parent
	logger.SetLevel(ERROR)
	chain.Warn("dropped")
	test.That(t, logs.Len(), test.ShouldEqual, 3)
	test.That(t, chain.GetLevel(), test.ShouldEqual, ERROR)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "se23.log")
	appender, closer := NewFileAppender(path)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Infow("preintegrated", "samples", 4)
	test.That(t, closer.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "INFO\tfile")
	test.That(t, string(contents), test.ShouldContainSubstring, `"samples":4`)
}
