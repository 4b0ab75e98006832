// Package ai provides the text-generation backends. Backends are selected by
// configuration and hidden behind the Generator interface; callers never see
// provider types.
package ai

import (
	"context"
	"fmt"
)

// Generator produces a reply for a fully composed prompt. Implementations
// apply their own max-output-length, temperature, and timeout settings.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

const diagnosticPrefix = "خطأ في توليد الرد من الذكاء الاصطناعي"

// DiagnosticReply converts a generation failure into the text persisted as
// the AI's reply. Failures are surfaced as conversation content, never as
// request errors.
func DiagnosticReply(err error) string {
	return fmt.Sprintf("%s: %v", diagnosticPrefix, err)
}

// truncatePrompt caps a prompt to roughly maxTokens worth of text so it fits
// the model context. Uses the usual ~4 characters per token estimate.
func truncatePrompt(prompt string, maxTokens int) string {
	if maxTokens <= 0 {
		return prompt
	}
	limit := maxTokens * 4
	runes := []rune(prompt)
	if len(runes) <= limit {
		return prompt
	}
	return string(runes[:limit])
}
