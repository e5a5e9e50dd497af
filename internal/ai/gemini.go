package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
)

// geminiClient implements Client against the Gemini API. A single configured
// model serves every operation; per-operation behavior comes from the system
// instruction and prompt.
type geminiClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	cfg         config.AIConfig
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
}

func newGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)

	return &geminiClient{
		genaiClient: gi,
		log:         logger,
		cfg:         cfg,
		temperature: 0.7,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *geminiClient) contentConfig(system string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:       &c.temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
}

func (c *geminiClient) generateWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.cfg.Model, contents, cfg)
		if err == nil {
			return c.extractText(ctx, resp)
		}

		c.log.WarnContext(ctx, "Gemini API call failed",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && i < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
				continue
			case <-ctx.Done():
				return "", fmt.Errorf("gemini call cancelled during retry wait: %w", ctx.Err())
			}
		}

		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return "", fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

func (c *geminiClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("request blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned empty content")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func (c *geminiClient) generateText(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	return c.generateWithRetries(ctx, contents, c.contentConfig(system))
}

func (c *geminiClient) Summarize(ctx context.Context, records []store.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating summary", "record_count", len(records))
	return c.generateText(ctx, systemPrompt(summarySystem, c.cfg.Concise), summaryPrompt(records))
}

func (c *geminiClient) VerifyStatement(ctx context.Context, statement string) (string, error) {
	return c.generateText(ctx, systemPrompt(proofSystem, c.cfg.Concise), proofPrompt(statement))
}

func (c *geminiClient) Comment(ctx context.Context, records []store.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating comment", "record_count", len(records))
	return c.generateText(ctx, systemPrompt(commentSystem, c.cfg.Concise), commentPrompt(records))
}

func (c *geminiClient) Answer(ctx context.Context, question string) (string, error) {
	return c.generateText(ctx, systemPrompt(answerSystem, c.cfg.Concise), question)
}

func (c *geminiClient) AnalyzeImage(ctx context.Context, mimeType string, data []byte, instructions string) (string, error) {
	if len(data) == 0 || mimeType == "" {
		return "", fmt.Errorf("image data and MIME type are required for analysis")
	}
	c.log.DebugContext(ctx, "Analyzing image", "mime_type", mimeType, "image_size", len(data))

	prompt := "Analyze the attached image."
	if instructions != "" {
		prompt += " Instructions: " + instructions
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromBytes(data, mimeType)}, genai.RoleUser),
	}
	return c.generateWithRetries(ctx, contents, c.contentConfig(systemPrompt(visionSystem, c.cfg.Concise)))
}
