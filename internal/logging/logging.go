// Package logging builds the zap logger used across the CLI.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelInfo is the default level.
	LevelInfo = "info"

	// LevelDebug enables debug output.
	LevelDebug = "debug"

	// LevelNone disables logging.
	LevelNone = "none"
)

// New returns a console logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	if level == "" {
		level = LevelInfo
	}
	if level == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
