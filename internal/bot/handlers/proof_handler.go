package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

// NewProofHandler returns a handler for the /proof command, a reply-triggered
// fact check of the referenced message.
func NewProofHandler(deps HandlerDeps) bot.HandlerFunc {
	return proofHandler{deps}.Handle
}

type proofHandler struct {
	deps HandlerDeps
}

func (h proofHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "proof")

	target, progressID, ok := resolveReplyTarget(ctx, b, h.deps, update,
		window.KindProof, h.deps.Config.Messages.ProofProgress)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID

	aiCtx, cancel := context.WithTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	result, err := h.deps.AI.VerifyStatement(aiCtx, target.Content)
	if err != nil {
		log.ErrorContext(ctx, "Statement verification failed", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	deliverResult(ctx, b, log, chatID, progressID, h.deps.Config.Messages.ProofHeader, result)
	log.InfoContext(ctx, "Fact check delivered", "chat_id", chatID, "target_message_id", target.MessageID)
}

// resolveReplyTarget implements the shared flow of reply-triggered commands:
// require a reply, post the progress message, and resolve the referenced
// record through the window evaluator. Returns ok=false after having already
// answered the user when the command cannot proceed.
func resolveReplyTarget(
	ctx context.Context,
	b *bot.Bot,
	deps HandlerDeps,
	update *models.Update,
	kind window.Kind,
	progressText string,
) (store.Message, int, bool) {
	log := deps.Logger.With("handler", kind.String())

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Reply-triggered handler received update with nil message or sender", "update_id", update.ID)
		return store.Message{}, 0, false
	}
	chatID := msg.Chat.ID

	if msg.ReplyToMessage == nil || (msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.IsBot) {
		replyText(ctx, b, log, chatID, msg.ID, deps.Config.Messages.ReplyRequired)
		return store.Message{}, 0, false
	}

	progressID := sendProgress(ctx, b, log, chatID, msg.ID, progressText)

	selection, err := deps.Evaluator.Resolve(window.Request{
		Kind:    kind,
		ChatID:  chatID,
		ReplyTo: msg.ReplyToMessage.ID,
	}, time.Now())
	if err != nil {
		if errors.Is(err, window.ErrUnknownReplyTarget) {
			deliverNotice(ctx, b, log, chatID, progressID, deps.Config.Messages.UnknownReply)
			return store.Message{}, 0, false
		}
		log.ErrorContext(ctx, "Failed to resolve reply target", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, deps.Config.Messages.GeneralError)
		return store.Message{}, 0, false
	}

	return selection.Records[0], progressID, true
}
