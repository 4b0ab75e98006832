package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// modelContextTokens bounds the prompt before it is sent to either backend.
const modelContextTokens = 4096

const assistantMarker = "<|im_start|>assistant"

// LocalClient is the locally-hosted pipeline backend, reached over an
// OpenAI-compatible completion endpoint. The pipeline is probed once at
// startup; if it is not up, every Generate call for the lifetime of the
// process reports the same load error.
type LocalClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	loadErr     error
	logger      *zap.Logger
}

func NewLocalClient(ctx context.Context, baseURL, model string, maxTokens int, temperature float32, timeout time.Duration, logger *zap.Logger) *LocalClient {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = baseURL

	c := &LocalClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := c.client.ListModels(probeCtx); err != nil {
		c.loadErr = fmt.Errorf("generation pipeline is not loaded: %w", err)
		logger.Error("local generation pipeline unavailable, replies will be degraded", zap.Error(err))
	} else {
		logger.Info("local generation pipeline loaded", zap.String("base_url", baseURL), zap.String("model", model))
	}

	return c
}

func (c *LocalClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.loadErr != nil {
		return "", c.loadErr
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.model,
		Prompt:      truncatePrompt(prompt, modelContextTokens),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("local completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("local pipeline returned no choices")
	}

	return extractReply(resp.Choices[0].Text), nil
}

func (c *LocalClient) Close() error {
	return nil
}

// extractReply strips chat-template markers from pipeline output. Some
// servers echo the prompt, so everything up to the assistant marker is
// dropped when present.
func extractReply(generated string) string {
	if idx := strings.Index(generated, assistantMarker); idx >= 0 {
		generated = generated[idx+len(assistantMarker):]
	}
	if idx := strings.Index(generated, "<|im_end|>"); idx >= 0 {
		generated = generated[:idx]
	}
	return strings.TrimSpace(generated)
}
