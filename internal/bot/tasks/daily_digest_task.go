package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/markdown"
	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

const (
	// dayKeyLayout is the calendar-day key stored in the registry to
	// deduplicate digests across restarts.
	dayKeyLayout = "2006-01-02"
	// dayDisplayLayout is the date shown in the digest header. It avoids
	// characters that require MarkdownV2 escaping.
	dayDisplayLayout = "02 Jan 2006"
)

// sendFunc delivers one digest chunk to a chat.
type sendFunc func(ctx context.Context, chatID int64, text string) error

// summarizer is the slice of the AI client the digest task needs.
type summarizer interface {
	Summarize(ctx context.Context, records []store.Message) (string, error)
}

// newDailyDigestTask creates the scheduled task that delivers the automatic
// daily summary to every registered chat. Each chat is processed under its
// own timeout; one chat's failure never blocks the others.
func newDailyDigestTask(deps TaskDeps) ScheduledTaskFunc {
	d := &dailyDigest{
		logger:    deps.Logger.With("task", "daily_digest"),
		cfg:       deps.Config,
		registry:  deps.Registry,
		ai:        deps.AI,
		evaluator: deps.Evaluator,
		now:       time.Now,
		send:      newDigestSender(deps.Bot),
	}
	return d.run
}

type dailyDigest struct {
	logger    *slog.Logger
	cfg       *config.Config
	registry  store.Registry
	ai        summarizer
	evaluator *window.Evaluator
	now       func() time.Time
	send      sendFunc
}

func (d *dailyDigest) run(ctx context.Context) error {
	loc, err := time.LoadLocation(d.cfg.Digest.Timezone)
	if err != nil {
		return fmt.Errorf("load digest timezone %q: %w", d.cfg.Digest.Timezone, err)
	}
	now := d.now().In(loc)
	day := now.Format(dayKeyLayout)

	chats, err := d.registry.ListDigestEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list digest chats: %w", err)
	}
	if len(chats) == 0 {
		d.logger.DebugContext(ctx, "No chats registered for the daily digest")
		return nil
	}

	var sent, skipped, failed int
	for _, chat := range chats {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if chat.LastDigestDay == day {
			d.logger.DebugContext(ctx, "Digest already sent today, skipping",
				"chat_id", chat.ChatID, "day", day)
			skipped++
			continue
		}

		delivered, err := d.digestChat(ctx, chat, now, day)
		switch {
		case err != nil:
			failed++
			d.logger.ErrorContext(ctx, "Daily digest failed for chat",
				"error", err, "chat_id", chat.ChatID)
		case delivered:
			sent++
		default:
			skipped++
		}
	}

	d.logger.InfoContext(ctx, "Daily digest run finished",
		"day", day, "sent", sent, "skipped", skipped, "failed", failed)
	return nil
}

// digestChat generates and delivers one chat's digest. It reports false with
// a nil error when the chat had no messages in the window.
func (d *dailyDigest) digestChat(parent context.Context, chat store.Chat, now time.Time, day string) (bool, error) {
	ctx, cancel := context.WithTimeout(parent, d.cfg.Digest.ChatTimeout)
	defer cancel()

	selection, err := d.evaluator.Resolve(window.Request{Kind: window.KindSummary, ChatID: chat.ChatID}, now)
	if err != nil {
		if errors.Is(err, window.ErrEmptyWindow) {
			d.logger.DebugContext(ctx, "No messages in digest window, skipping chat",
				"chat_id", chat.ChatID)
			return false, nil
		}
		return false, fmt.Errorf("resolve digest window: %w", err)
	}

	summary, err := d.ai.Summarize(ctx, selection.Records)
	if err != nil {
		return false, fmt.Errorf("generate digest: %w", err)
	}

	header := fmt.Sprintf(d.cfg.Messages.DailyHeader, now.Format(dayDisplayLayout))
	text := header + "\n\n" + markdown.Render(summary)
	for _, chunk := range markdown.Split(text, markdown.MaxMessageLength) {
		if err := d.send(ctx, chat.ChatID, chunk); err != nil {
			return false, fmt.Errorf("send digest: %w", err)
		}
	}

	if err := d.registry.MarkDigestSent(ctx, chat.ChatID, day); err != nil {
		return false, fmt.Errorf("record digest day: %w", err)
	}

	d.logger.InfoContext(ctx, "Daily digest delivered",
		"chat_id", chat.ChatID, "record_count", len(selection.Records))
	return true, nil
}

// newDigestSender wraps the Telegram client into a sendFunc. Chunks are sent
// as MarkdownV2 with a plain-text retry when Telegram rejects the formatting.
func newDigestSender(b *tgbot.Bot) sendFunc {
	return func(ctx context.Context, chatID int64, text string) error {
		_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeMarkdown,
		})
		if err == nil {
			return nil
		}
		_, plainErr := b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if plainErr != nil {
			return fmt.Errorf("markdown send failed (%v), plain send failed: %w", err, plainErr)
		}
		return nil
	}
}
