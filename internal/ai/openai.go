package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
)

// openaiClient implements Client against the OpenAI chat completions API.
// Each operation uses its own configured model, mirroring the per-task
// model split (cheap models for commentary, stronger ones for fact checks).
type openaiClient struct {
	api     *openai.Client
	log     *slog.Logger
	cfg     config.AIConfig
	retries int
	delay   time.Duration
}

func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("openai API token is required")
	}

	apiCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized",
		"model", cfg.Model, "summary_model", cfg.SummaryModel)

	return &openaiClient{
		api:     openai.NewClientWithConfig(apiCfg),
		log:     logger,
		cfg:     cfg,
		retries: cfg.MaxRetries,
		delay:   time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *openaiClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("openai returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("openai call cancelled: %w", ctx.Err())
		}

		c.log.WarnContext(ctx, "OpenAI API call failed",
			"model", req.Model, "attempt", attempt+1, "max_retries", c.retries, "error", err)
		if attempt < c.retries {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return "", fmt.Errorf("openai call cancelled during retry wait: %w", ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("openai call failed after %d retries: %w", c.retries, lastErr)
}

func (c *openaiClient) chat(ctx context.Context, model, system, user string, maxTokens int, temperature float32) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}

func (c *openaiClient) Summarize(ctx context.Context, records []store.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating summary", "record_count", len(records))
	return c.chat(ctx, c.cfg.SummaryModel,
		systemPrompt(summarySystem, c.cfg.Concise), summaryPrompt(records), 800, 0.7)
}

func (c *openaiClient) VerifyStatement(ctx context.Context, statement string) (string, error) {
	return c.chat(ctx, c.cfg.ProofModel,
		systemPrompt(proofSystem, c.cfg.Concise), proofPrompt(statement), 1000, 0.2)
}

func (c *openaiClient) Comment(ctx context.Context, records []store.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating comment", "record_count", len(records))
	return c.chat(ctx, c.cfg.CommentModel,
		systemPrompt(commentSystem, c.cfg.Concise), commentPrompt(records), 400, 0.8)
}

func (c *openaiClient) Answer(ctx context.Context, question string) (string, error) {
	return c.chat(ctx, c.cfg.Model,
		systemPrompt(answerSystem, c.cfg.Concise), question, 1000, 0.7)
}

func (c *openaiClient) AnalyzeImage(ctx context.Context, mimeType string, data []byte, instructions string) (string, error) {
	if len(data) == 0 || mimeType == "" {
		return "", fmt.Errorf("image data and MIME type are required for analysis")
	}
	c.log.DebugContext(ctx, "Analyzing image", "mime_type", mimeType, "image_size", len(data))

	prompt := "Analyze the attached image."
	if instructions != "" {
		prompt += " Instructions: " + instructions
	}

	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(visionSystem, c.cfg.Concise)},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens:   800,
		Temperature: 0.5,
	})
}
