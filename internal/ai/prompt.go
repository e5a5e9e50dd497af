package ai

import (
	"fmt"
	"strings"

	"github.com/avolkov/digestbot/internal/store"
)

const (
	summarySystem = "You are an assistant that creates concise and informative summaries of chat conversations."
	proofSystem   = "You are a factual assistant that verifies statements. Analyze the statement, determine its factuality, and provide evidence."
	commentSystem = "You are a witty and insightful assistant that provides comments on ongoing discussions."
	answerSystem  = "You are a helpful, knowledgeable, accurate, and friendly assistant."
	visionSystem  = "You are an expert assistant that analyzes images according to the user's instructions."

	conciseSuffix = " Always provide extremely brief and concise responses, focusing only on the most essential information."
)

// formatRecord renders one ledger record as a transcript line.
func formatRecord(m store.Message) string {
	name := m.UserName
	if name == "" {
		name = fmt.Sprintf("UID %d", m.UserID)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("2006-01-02 15:04:05"), name, m.Content)
}

// transcript renders records as newline-separated transcript lines.
func transcript(records []store.Message) string {
	var sb strings.Builder
	for _, m := range records {
		sb.WriteString(formatRecord(m))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func summaryPrompt(records []store.Message) string {
	return "Summarize the following chat messages, highlighting key points and important information:\n\n" +
		transcript(records)
}

func proofPrompt(statement string) string {
	return fmt.Sprintf("Please verify this statement: %q", statement)
}

func commentPrompt(records []store.Message) string {
	return "Here are the recent messages in the chat:\n\n" + transcript(records) +
		"\nBased on these messages, provide an insightful comment about the discussion."
}

func systemPrompt(base string, concise bool) string {
	if concise {
		return base + conciseSuffix
	}
	return base
}
