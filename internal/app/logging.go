package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mcpreg/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
	Source string
}

// Logging bundles the process logger.
type Logging struct {
	Logger *zap.Logger
}

// NewLogging tags the base logger with its log source.
func NewLogging(cfg LoggingConfig) Logging {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	source := cfg.Source
	if source == "" {
		source = telemetry.LogSourceCore
	}
	return Logging{
		Logger: logger.With(zap.String(telemetry.FieldLogSource, source)).Named("app"),
	}
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

// NewStderrLogger builds a production JSON logger on stderr. Stdout is kept
// free for command output and the stdio MCP transport.
func NewStderrLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	return cfg.Build()
}
