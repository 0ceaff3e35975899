package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option adjusts the zap config before the logger is built.
type Option func(*zap.Config)

// ToStderr routes all output to stderr. The MCP stdio server needs stdout for
// protocol frames.
func ToStderr() Option {
	return func(cfg *zap.Config) {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
}

// WithComponent tags every entry with a component field.
func WithComponent(name string) Option {
	return func(cfg *zap.Config) {
		if cfg.InitialFields == nil {
			cfg.InitialFields = map[string]interface{}{}
		}
		cfg.InitialFields["component"] = name
	}
}

// NewLogger builds a zap logger from level and format settings. Empty values
// mean info and console.
func NewLogger(level, format string, opts ...Option) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	var zapLevel zapcore.Level
	if err := zapLevel.Set(strings.ToLower(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q (want console or json)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.DisableStacktrace = zapLevel > zapcore.DebugLevel

	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.Build()
}
