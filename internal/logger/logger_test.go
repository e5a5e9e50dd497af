package logger

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string untouched",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "exact length untouched",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated with ellipsis",
			input:    "hello world",
			maxLen:   8,
			expected: "hello...",
		},
		{
			name:     "tiny limit collapses to ellipsis",
			input:    "hello",
			maxLen:   2,
			expected: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestMiddlewareCallsNext(t *testing.T) {
	t.Parallel()

	called := false
	next := func(ctx context.Context, b *bot.Bot, update *models.Update) {
		called = true
	}

	mw := Middleware(NewLogger("error", false))
	mw(next)(context.Background(), nil, &models.Update{
		ID:      7,
		Message: &models.Message{ID: 1, Chat: models.Chat{ID: 42}, Text: "hello"},
	})

	if !called {
		t.Error("middleware did not invoke the wrapped handler")
	}
}
