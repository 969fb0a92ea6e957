package narrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/config"
)

// New builds the Narrator selected by cfg.Provider.
//
// Precondition: cfg has passed config validation.
// Postcondition: The returned cleanup must be called once the narrator is no
// longer needed; it is never nil on success.
func New(ctx context.Context, cfg config.NarratorConfig, logger *zap.Logger) (Narrator, func(), error) {
	switch cfg.Provider {
	case config.NarratorNone, "":
		logger.Info("narrator disabled, using canned text")
		return Canned{}, func() {}, nil
	case config.NarratorAnthropic:
		n, err := NewAnthropicNarrator(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("narrator ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
		return n, func() {}, nil
	case config.NarratorGemini:
		n, err := NewGeminiNarrator(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("narrator ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
		return n, func() {
			if err := n.Close(); err != nil {
				logger.Warn("closing gemini client", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown narrator provider %q", cfg.Provider)
	}
}
