package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/window"
)

// NewCommentHandler returns a handler for the /comment command, which asks
// the AI to comment on the last hour of discussion.
func NewCommentHandler(deps HandlerDeps) bot.HandlerFunc {
	return commentHandler{deps}.Handle
}

type commentHandler struct {
	deps HandlerDeps
}

func (h commentHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "comment")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Comment handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling /comment command", "chat_id", chatID)

	progressID := sendProgress(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.CommentProgress)

	selection, err := h.deps.Evaluator.Resolve(window.Request{
		Kind:   window.KindComment,
		ChatID: chatID,
	}, time.Now())
	if err != nil {
		if errors.Is(err, window.ErrEmptyWindow) {
			deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.NothingToReport)
			return
		}
		log.ErrorContext(ctx, "Failed to resolve comment window", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	aiCtx, cancel := context.WithTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	comment, err := h.deps.AI.Comment(aiCtx, selection.Records)
	if err != nil {
		log.ErrorContext(ctx, "Comment generation failed", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	deliverResult(ctx, b, log, chatID, progressID, h.deps.Config.Messages.CommentHeader, comment)
	log.InfoContext(ctx, "Comment delivered", "chat_id", chatID, "record_count", len(selection.Records))
}
