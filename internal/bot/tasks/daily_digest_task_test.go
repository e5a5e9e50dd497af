package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

var now = time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)

type fakeRegistry struct {
	mu     sync.Mutex
	chats  []store.Chat
	marked map[int64]string
}

func (f *fakeRegistry) Ping(ctx context.Context) error { return nil }

func (f *fakeRegistry) Register(ctx context.Context, id int64, title string) error { return nil }

func (f *fakeRegistry) Unregister(ctx context.Context, id int64) error { return nil }

func (f *fakeRegistry) Get(ctx context.Context, id int64) (*store.Chat, error) { return nil, nil }

func (f *fakeRegistry) SetDigestEnabled(ctx context.Context, id int64, enabled bool) error {
	return nil
}

func (f *fakeRegistry) ListDigestEnabled(ctx context.Context) ([]store.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Chat(nil), f.chats...), nil
}

func (f *fakeRegistry) MarkDigestSent(ctx context.Context, chatID int64, day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marked == nil {
		f.marked = make(map[int64]string)
	}
	f.marked[chatID] = day
	return nil
}

type fakeSummarizer struct {
	failChat int64 // Summarize fails for records from this chat
}

func (f *fakeSummarizer) Summarize(ctx context.Context, records []store.Message) (string, error) {
	if len(records) > 0 && records[0].ChatID == f.failChat {
		return "", errors.New("upstream unavailable")
	}
	return "digest text", nil
}

type sentMessage struct {
	chatID int64
	text   string
}

func digestConfig() *config.Config {
	return &config.Config{
		Digest: config.DigestConfig{
			Timezone:        "UTC",
			WindowStartHour: 20,
			WindowEndHour:   22,
			ChatTimeout:     time.Minute,
		},
		Messages: config.MessagesConfig{
			DailyHeader: "📅 *Daily Summary \\(%s\\)*",
		},
	}
}

func newDigest(t *testing.T, reg *fakeRegistry, ai summarizer, log *store.MessageLog) (*dailyDigest, *[]sentMessage) {
	t.Helper()

	var sent []sentMessage
	var mu sync.Mutex
	d := &dailyDigest{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:       digestConfig(),
		registry:  reg,
		ai:        ai,
		evaluator: window.NewEvaluator(log, 24*time.Hour, time.Hour),
		now:       func() time.Time { return now },
		send: func(ctx context.Context, chatID int64, text string) error {
			mu.Lock()
			defer mu.Unlock()
			sent = append(sent, sentMessage{chatID: chatID, text: text})
			return nil
		},
	}
	return d, &sent
}

func seedChat(log *store.MessageLog, chatID int64) {
	log.Append(store.Message{
		ChatID:    chatID,
		MessageID: int(chatID) * 10,
		UserID:    100,
		UserName:  "user",
		Content:   "hello",
		Timestamp: now.Add(-time.Hour),
	})
}

func TestDigestFailureIsolation(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	seedChat(log, 1)
	seedChat(log, 2)

	reg := &fakeRegistry{chats: []store.Chat{{ChatID: 1}, {ChatID: 2}}}
	d, sent := newDigest(t, reg, &fakeSummarizer{failChat: 1}, log)

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run returned error despite per-chat isolation: %v", err)
	}

	if len(*sent) != 1 || (*sent)[0].chatID != 2 {
		t.Fatalf("expected exactly chat 2 to receive a digest, got %v", *sent)
	}
	if _, ok := reg.marked[1]; ok {
		t.Error("failed chat must not be marked as sent")
	}
	if day := reg.marked[2]; day != "2024-01-02" {
		t.Errorf("chat 2 marked with day %q, want 2024-01-02", day)
	}
}

func TestDigestSameDayDedup(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	seedChat(log, 1)

	reg := &fakeRegistry{chats: []store.Chat{{ChatID: 1, LastDigestDay: "2024-01-02"}}}
	d, sent := newDigest(t, reg, &fakeSummarizer{}, log)

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("digest already sent today must not be repeated, got %v", *sent)
	}
}

func TestDigestPreviousDayFires(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	seedChat(log, 1)

	reg := &fakeRegistry{chats: []store.Chat{{ChatID: 1, LastDigestDay: "2024-01-01"}}}
	d, sent := newDigest(t, reg, &fakeSummarizer{}, log)

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one digest for a chat last served yesterday, got %d", len(*sent))
	}
	if !strings.Contains((*sent)[0].text, "02 Jan 2024") {
		t.Errorf("digest header should carry today's date: %q", (*sent)[0].text)
	}
	if !strings.Contains((*sent)[0].text, "digest text") {
		t.Errorf("digest body missing from delivery: %q", (*sent)[0].text)
	}
}

func TestDigestEmptyWindowSkipsChat(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil) // quiet chat, nothing appended

	reg := &fakeRegistry{chats: []store.Chat{{ChatID: 1}}}
	d, sent := newDigest(t, reg, &fakeSummarizer{}, log)

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("quiet chat must not receive a digest, got %v", *sent)
	}
	if _, ok := reg.marked[1]; ok {
		t.Error("quiet chat must not be marked as sent")
	}
}

func TestDigestNoRegisteredChats(t *testing.T) {
	t.Parallel()

	d, sent := newDigest(t, &fakeRegistry{}, &fakeSummarizer{}, store.NewMessageLog(0, 0, nil))

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run failed with no chats: %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("nothing should be sent with no registered chats, got %v", *sent)
	}
}
