package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/window"
)

// NewGptHandler returns a handler for the /gpt command, which answers the
// question in the replied-to message.
func NewGptHandler(deps HandlerDeps) bot.HandlerFunc {
	return gptHandler{deps}.Handle
}

type gptHandler struct {
	deps HandlerDeps
}

func (h gptHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "gpt")

	target, progressID, ok := resolveReplyTarget(ctx, b, h.deps, update,
		window.KindGpt, h.deps.Config.Messages.GptProgress)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID

	aiCtx, cancel := context.WithTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	answer, err := h.deps.AI.Answer(aiCtx, target.Content)
	if err != nil {
		log.ErrorContext(ctx, "Answer generation failed", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	deliverResult(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GptHeader, answer)
	log.InfoContext(ctx, "Answer delivered", "chat_id", chatID, "target_message_id", target.MessageID)
}
