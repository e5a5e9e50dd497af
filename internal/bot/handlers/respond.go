package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/markdown"
)

// sendProgress posts an interim "working on it" reply and returns its message
// ID so the final result can be edited in place. Returns 0 when sending fails;
// callers then fall back to plain replies.
func sendProgress(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, replyTo int, text string) int {
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send progress message", "error", err, "chat_id", chatID)
		return 0
	}
	return msg.ID
}

// deliverResult replaces the progress message with the rendered result. The
// header and body are converted to MarkdownV2 and split across messages when
// they exceed Telegram's limit: the first chunk edits the progress message,
// any remainder is sent as follow-ups.
func deliverResult(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, progressID int, header, body string) {
	text := header + "\n\n" + markdown.Render(body)
	chunks := markdown.Split(text, markdown.MaxMessageLength)

	for i, chunk := range chunks {
		var err error
		if i == 0 && progressID != 0 {
			_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
				ChatID:    chatID,
				MessageID: progressID,
				Text:      chunk,
				ParseMode: models.ParseModeMarkdown,
			})
		} else {
			_, err = b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      chunk,
				ParseMode: models.ParseModeMarkdown,
			})
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to deliver result chunk",
				"error", err, "chat_id", chatID, "chunk", i)
			// MarkdownV2 rejections are the common failure; retry the chunk
			// as plain text rather than dropping the response.
			if _, plainErr := b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   chunk,
			}); plainErr != nil {
				log.ErrorContext(ctx, "Plain-text fallback also failed",
					"error", plainErr, "chat_id", chatID)
			}
		}
	}
}

// deliverNotice replaces the progress message with a short plain-text notice
// (empty window, unknown reply target, upstream failure).
func deliverNotice(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, progressID int, text string) {
	var err error
	if progressID != 0 {
		_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: progressID,
			Text:      text,
		})
	} else {
		_, err = b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to deliver notice", "error", err, "chat_id", chatID)
	}
}

// replyText sends a plain reply to the triggering message.
func replyText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, replyTo int, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
