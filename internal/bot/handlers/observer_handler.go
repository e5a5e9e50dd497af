package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/store"
)

// NewObserverHandler returns the default handler that records every observed
// group message into the ledger and tracks the bot's own membership: joining
// a chat registers it, being removed unregisters it.
func NewObserverHandler(deps HandlerDeps, botID int64) bot.HandlerFunc {
	return observerHandler{deps: deps, botID: botID}.Handle
}

type observerHandler struct {
	deps  HandlerDeps
	botID int64
}

func (h observerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "observer")

	msg := update.Message
	if msg == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		h.handleNewMembers(ctx, b, msg)
		return
	}
	if msg.LeftChatMember != nil && msg.LeftChatMember.ID == h.botID {
		if err := h.deps.Registry.Unregister(ctx, msg.Chat.ID); err != nil {
			log.ErrorContext(ctx, "Failed to unregister chat after removal", "error", err, "chat_id", msg.Chat.ID)
		}
		return
	}

	if msg.From == nil || msg.From.IsBot {
		return
	}

	content := msg.Text
	if len(msg.Photo) > 0 {
		// Media is stored by reference so per-user summaries and reply
		// lookups still see the message; bytes stay with the platform.
		if msg.Caption != "" {
			content = "[photo] " + msg.Caption
		} else {
			content = "[photo]"
		}
	}
	if strings.TrimSpace(content) == "" || strings.HasPrefix(content, "/") {
		return
	}

	record := store.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		UserID:    msg.From.ID,
		UserName:  senderName(msg.From),
		Content:   content,
		Timestamp: time.Unix(int64(msg.Date), 0),
	}
	if msg.ReplyToMessage != nil {
		record.ReplyToID = msg.ReplyToMessage.ID
	}

	h.deps.Log.Append(record)
	log.DebugContext(ctx, "Message recorded", "chat_id", msg.Chat.ID, "message_id", msg.ID)
}

func (h observerHandler) handleNewMembers(ctx context.Context, b *bot.Bot, msg *models.Message) {
	log := h.deps.Logger.With("handler", "observer")

	for _, member := range msg.NewChatMembers {
		if member.ID != h.botID {
			continue
		}

		chatID := msg.Chat.ID
		log.InfoContext(ctx, "Bot added to chat", "chat_id", chatID, "title", msg.Chat.Title)

		if err := h.deps.Registry.Register(ctx, chatID, msg.Chat.Title); err != nil {
			log.ErrorContext(ctx, "Failed to register chat after join", "error", err, "chat_id", chatID)
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   h.deps.Config.Messages.Welcome,
		}); err != nil {
			log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
		}
		return
	}
}

// senderName picks the best human-readable name for a transcript line.
func senderName(u *models.User) string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return ""
	}
}

// commandArgument returns the text after the command word, e.g.
// "/analyze look closely" yields "look closely".
func commandArgument(text string) string {
	if !strings.HasPrefix(text, "/") {
		return strings.TrimSpace(text)
	}
	_, rest, found := strings.Cut(text, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}
