package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Chain names the sample chain an entry belongs to.
func Chain(name string) zapcore.Field { return zap.String("chain", name) }

// Sample is the 1-based index of a sample within its chain.
func Sample(index int) zapcore.Field { return zap.Int("sample", index) }

// Step is an integration time step in seconds.
func Step(dt float64) zapcore.Field { return zap.Float64("dt", dt) }
