package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the encoding and base fields for the process logger.
type Options struct {
	Level       string
	Environment string
	AppName     string
	AppVersion  string
}

// New builds the structured zap.Logger shared by the API and scheduler
// processes. Development environments get console output; everything
// else logs JSON.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Environment == "development" {
		cfg = zap.NewDevelopmentConfig()
	}

	level := opts.Level
	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if opts.AppName != "" {
		logger = logger.With(
			zap.String("app", opts.AppName),
			zap.String("version", opts.AppVersion),
		)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
