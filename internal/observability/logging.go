// Package observability provides the structured logger shared by every
// cultivation component.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/cultivation/internal/config"
)

// ServiceName tags every log entry.
const ServiceName = "cultivation"

// NewLogger creates a structured logger from the given logging configuration.
// Output goes to stderr so command results on stdout stay clean.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.InitialFields = map[string]interface{}{"service": ServiceName}
		// Roll logs are never sampled so a fight can be replayed from them.
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ForCharacter returns a child logger that tags entries with the character's
// identity.
func ForCharacter(logger *zap.Logger, id, name string) *zap.Logger {
	return logger.With(zap.String("character_id", id), zap.String("character", name))
}
