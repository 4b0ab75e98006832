package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/config"
)

// New selects the generation backend from configuration and returns it with
// the prompt composer matching its expected framing.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Generator, Composer, error) {
	logger.Info("initializing generation backend", zap.String("backend", cfg.AIBackend), zap.String("model", cfg.AIModel))

	switch cfg.AIBackend {
	case config.BackendLocal:
		gen := NewLocalClient(ctx, cfg.LocalAIBaseURL, cfg.AIModel, cfg.AIMaxTokens, cfg.AITemperature, cfg.AITimeout, logger)
		return gen, ChatTemplateComposer{}, nil
	case config.BackendGemini:
		gen, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.AIModel, cfg.AIMaxTokens, cfg.AITemperature, cfg.AITimeout, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		return gen, PlainComposer{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown generation backend: %s", cfg.AIBackend)
	}
}
