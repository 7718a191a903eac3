package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errUnpairedKey = errors.New("unpaired log key")

// impl fans entries out to its appenders. Loggers derived with Sublogger copy the level; loggers
// derived with With share it.
type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	fields    []zapcore.Field
	appenders []Appender
}

func (l *impl) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *impl) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *impl) GetLevel() Level {
	return l.level.Get()
}

func (l *impl) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(l.level.Get()),
		inUTC:     l.inUTC,
		fields:    l.fields,
		appenders: l.appenders,
	}
}

func (l *impl) With(keysAndValues ...interface{}) Logger {
	fields := make([]zapcore.Field, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	return &impl{
		name:      l.name,
		level:     l.level,
		inUTC:     l.inUTC,
		fields:    append(fields, toFields(keysAndValues)...),
		appenders: l.appenders,
	}
}

func (l *impl) Sync() error {
	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

// emit must be called directly by the exported logging methods so that the caller is the
// function that logged.
func (l *impl) emit(level Level, msg string, keysAndValues []interface{}) {
	entry := zapcore.Entry{
		LoggerName: l.name,
		Time:       time.Now(),
		Level:      level.AsZap(),
		Message:    msg,
		Caller:     loggingCaller(),
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	fields := l.fields
	if len(keysAndValues) != 0 {
		fields = append(append(make([]zapcore.Field, 0, len(l.fields)+len(keysAndValues)), l.fields...),
			toFields(keysAndValues)...)
	}
	for _, appender := range l.appenders {
		if err := appender.Write(entry, fields); err != nil {
			//nolint:errcheck
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (l *impl) enabled(level Level) bool {
	return level >= l.level.Get()
}

func (l *impl) Debug(args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Debugf(template string, args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, msg, keysAndValues)
	}
}

func (l *impl) Info(args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Infof(template string, args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Infow(msg string, keysAndValues ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, msg, keysAndValues)
	}
}

func (l *impl) Warn(args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Warnf(template string, args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, msg, keysAndValues)
	}
}

func (l *impl) Error(args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Errorf(template string, args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, msg, keysAndValues)
	}
}

// toFields pairs keys with the values that follow them. Fields are taken as they are and a key
// without a value is kept with an error value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); i++ {
		if field, ok := keysAndValues[i].(zapcore.Field); ok {
			fields = append(fields, field)
			continue
		}
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		i++
	}
	return fields
}

// loggingCaller returns the caller of the exported method that called emit.
func loggingCaller() zapcore.EntryCaller {
	const skip = 3
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.NewEntryCaller(pc, file, line, true)
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
