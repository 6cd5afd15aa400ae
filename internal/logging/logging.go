// Package logging builds the zap logger shared by the rest of the module,
// following the same construction pattern as the pack's cobra-based CLIs:
// a production config by default, flipped to debug level by a verbose flag.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger. verbose flips the level to Debug; callers that
// don't care about logging at all can pass zap.NewNop() around instead of
// calling New.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// Nop returns a logger that discards everything, used as the zero-value
// default so packages never need to nil-check their logger field.
func Nop() *zap.Logger {
	return zap.NewNop()
}
