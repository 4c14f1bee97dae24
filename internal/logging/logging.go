// Package logging builds the zap logger shared by the binaries.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for the given level. In stdio mode the MCP protocol owns
// stdout, so logs go to stderr and are JSON encoded; otherwise a console
// encoder writes to stdout.
func New(level string, stdio bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if stdio {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stdout"}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Must is New for binaries that cannot run without a logger
func Must(level string, stdio bool) *zap.Logger {
	logger, err := New(level, stdio)
	if err != nil {
		panic(err)
	}
	return logger
}
