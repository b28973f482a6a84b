// Package logging builds the zap loggers used across the module.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelInfo sets the log level to info.
	LevelInfo = "info"

	// LevelDebug sets the log level to debug.
	LevelDebug = "debug"

	// LevelNone disables logging.
	LevelNone = "none"
)

// New returns a zap logger at the given level. LevelNone returns a no-op
// logger.
func New(level string) (*zap.Logger, error) {
	if level == LevelNone || level == "" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// MustNew returns a logger at the given level or panics.
func MustNew(level string) *zap.Logger {
	logger, err := New(level)
	if err != nil {
		panic(err)
	}
	return logger
}
