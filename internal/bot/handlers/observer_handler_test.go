package handlers

import (
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestSenderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     *models.User
		expected string
	}{
		{
			name:     "first name preferred",
			user:     &models.User{FirstName: "Alice", Username: "alice99"},
			expected: "Alice",
		},
		{
			name:     "username fallback",
			user:     &models.User{Username: "alice99"},
			expected: "alice99",
		},
		{
			name:     "nothing to show",
			user:     &models.User{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := senderName(tt.user); got != tt.expected {
				t.Errorf("senderName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCommandArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "command with argument",
			input:    "/analyze look closely",
			expected: "look closely",
		},
		{
			name:     "bare command",
			input:    "/analyze",
			expected: "",
		},
		{
			name:     "command with mention",
			input:    "/analyze@digestbot what is this",
			expected: "what is this",
		},
		{
			name:     "extra whitespace trimmed",
			input:    "/gpt   why?  ",
			expected: "why?",
		},
		{
			name:     "plain text passes through",
			input:    "  a caption  ",
			expected: "a caption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := commandArgument(tt.input); got != tt.expected {
				t.Errorf("commandArgument(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
