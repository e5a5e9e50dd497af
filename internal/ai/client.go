// Package ai implements the inference client used to generate summaries,
// fact checks, commentary, answers, and image analyses. Two providers are
// supported: OpenAI and Google Gemini, selected by configuration.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
)

// Client is the interface to the inference API. All calls block until the
// provider responds or ctx expires; callers wrap them with their own timeout
// and must not hold any ledger lock while waiting.
type Client interface {
	// Summarize produces a digest of the given chat records.
	Summarize(ctx context.Context, records []store.Message) (string, error)

	// VerifyStatement fact-checks a single statement.
	VerifyStatement(ctx context.Context, statement string) (string, error)

	// Comment produces commentary on the recent discussion.
	Comment(ctx context.Context, records []store.Message) (string, error)

	// Answer answers a free-form question.
	Answer(ctx context.Context, question string) (string, error)

	// AnalyzeImage analyzes an image, following optional caption instructions.
	AnalyzeImage(ctx context.Context, mimeType string, data []byte, instructions string) (string, error)
}

// New creates the inference client selected by cfg.Provider.
func New(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg, log)
	case "gemini":
		return newGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
