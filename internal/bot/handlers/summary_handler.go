package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/window"
)

// NewSummaryHandler returns a handler for the /summary command. Issued plain,
// it digests the last 24 hours of chat; issued as a reply to a user message,
// it scopes the digest to that user's messages in the same window.
func NewSummaryHandler(deps HandlerDeps) bot.HandlerFunc {
	return summaryHandler{deps}.Handle
}

type summaryHandler struct {
	deps HandlerDeps
}

func (h summaryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "summary")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Summary handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	req := window.Request{Kind: window.KindSummary, ChatID: chatID}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && !msg.ReplyToMessage.From.IsBot {
		req.Kind = window.KindUserSummary
		req.SenderID = msg.ReplyToMessage.From.ID
	}

	log.InfoContext(ctx, "Handling /summary command",
		"chat_id", chatID, "kind", req.Kind.String(), "target_user", req.SenderID)

	progressID := sendProgress(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.SummaryProgress)

	selection, err := h.deps.Evaluator.Resolve(req, time.Now())
	if err != nil {
		if errors.Is(err, window.ErrEmptyWindow) {
			deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.NothingToReport)
			return
		}
		log.ErrorContext(ctx, "Failed to resolve summary window", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	aiCtx, cancel := context.WithTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	summary, err := h.deps.AI.Summarize(aiCtx, selection.Records)
	if err != nil {
		log.ErrorContext(ctx, "Summary generation failed", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	deliverResult(ctx, b, log, chatID, progressID, h.deps.Config.Messages.SummaryHeader, summary)
	log.InfoContext(ctx, "Summary delivered", "chat_id", chatID, "record_count", len(selection.Records))
}
