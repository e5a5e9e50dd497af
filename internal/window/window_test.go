package window_test

import (
	"errors"
	"testing"
	"time"

	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

var now = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func record(chatID int64, messageID int, userID int64, text string, ts time.Time) store.Message {
	return store.Message{
		ChatID:    chatID,
		MessageID: messageID,
		UserID:    userID,
		UserName:  "user",
		Content:   text,
		Timestamp: ts,
	}
}

func newEvaluator(records ...store.Message) *window.Evaluator {
	log := store.NewMessageLog(48*time.Hour, 0, nil)
	for _, m := range records {
		log.Append(m)
	}
	return window.NewEvaluator(log, 24*time.Hour, time.Hour)
}

func TestResolveSummaryWindow(t *testing.T) {
	t.Parallel()

	e := newEvaluator(
		record(1, 10, 100, "too old", now.Add(-25*time.Hour)),
		record(1, 11, 100, "in window", now.Add(-23*time.Hour)),
		record(1, 12, 200, "recent", now.Add(-30*time.Minute)),
	)

	sel, err := e.Resolve(window.Request{Kind: window.KindSummary, ChatID: 1}, now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !sel.Since.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("window start = %v, want %v", sel.Since, now.Add(-24*time.Hour))
	}
	if !sel.Until.Equal(now) {
		t.Errorf("window end = %v, want %v", sel.Until, now)
	}
	if len(sel.Records) != 2 {
		t.Fatalf("expected 2 records in window, got %d", len(sel.Records))
	}
	if sel.Records[0].Content != "in window" || sel.Records[1].Content != "recent" {
		t.Errorf("unexpected selection: %q, %q", sel.Records[0].Content, sel.Records[1].Content)
	}
}

func TestResolveEmptyWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		eval *window.Evaluator
	}{
		{
			name: "chat never seen",
			eval: newEvaluator(),
		},
		{
			name: "all records aged out",
			eval: newEvaluator(record(1, 10, 100, "old", now.Add(-36*time.Hour))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.eval.Resolve(window.Request{Kind: window.KindSummary, ChatID: 1}, now)
			if !errors.Is(err, window.ErrEmptyWindow) {
				t.Errorf("expected ErrEmptyWindow, got %v", err)
			}
		})
	}
}

func TestResolveUserScoped(t *testing.T) {
	t.Parallel()

	e := newEvaluator(
		record(1, 10, 100, "alice one", now.Add(-2*time.Hour)),
		record(1, 11, 200, "bob", now.Add(-90*time.Minute)),
		record(1, 12, 100, "alice two", now.Add(-time.Hour)),
	)

	sel, err := e.Resolve(window.Request{Kind: window.KindUserSummary, ChatID: 1, SenderID: 100}, now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(sel.Records) != 2 {
		t.Fatalf("expected 2 records for user 100, got %d", len(sel.Records))
	}
	for _, m := range sel.Records {
		if m.UserID != 100 {
			t.Errorf("record from wrong sender %d in user-scoped selection", m.UserID)
		}
	}

	// No messages from the target user resolves to an empty window.
	_, err = e.Resolve(window.Request{Kind: window.KindUserSummary, ChatID: 1, SenderID: 999}, now)
	if !errors.Is(err, window.ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow for silent user, got %v", err)
	}
}

func TestResolveCommentSpan(t *testing.T) {
	t.Parallel()

	e := newEvaluator(
		record(1, 10, 100, "earlier", now.Add(-2*time.Hour)),
		record(1, 11, 100, "recent", now.Add(-30*time.Minute)),
	)

	sel, err := e.Resolve(window.Request{Kind: window.KindComment, ChatID: 1}, now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !sel.Since.Equal(now.Add(-time.Hour)) {
		t.Errorf("comment window start = %v, want %v", sel.Since, now.Add(-time.Hour))
	}
	if len(sel.Records) != 1 || sel.Records[0].Content != "recent" {
		t.Errorf("comment selection should only cover the last hour: %v", sel.Records)
	}
}

func TestResolveReplyScoped(t *testing.T) {
	t.Parallel()

	target := record(1, 42, 100, "is the earth flat?", now.Add(-time.Hour))
	e := newEvaluator(target)

	sel, err := e.Resolve(window.Request{Kind: window.KindProof, ChatID: 1, ReplyTo: 42}, now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(sel.Records) != 1 || sel.Records[0].MessageID != 42 {
		t.Fatalf("expected the single replied-to record, got %v", sel.Records)
	}
	if !sel.Since.Equal(target.Timestamp) || !sel.Until.Equal(target.Timestamp) {
		t.Errorf("reply selection bounds should pin the record's timestamp")
	}

	for _, kind := range []window.Kind{window.KindProof, window.KindGpt, window.KindAnalyze} {
		_, err := e.Resolve(window.Request{Kind: kind, ChatID: 1, ReplyTo: 999}, now)
		if !errors.Is(err, window.ErrUnknownReplyTarget) {
			t.Errorf("%s: expected ErrUnknownReplyTarget, got %v", kind, err)
		}
	}
}

func TestKindProperties(t *testing.T) {
	t.Parallel()

	replyScoped := map[window.Kind]bool{
		window.KindSummary:     false,
		window.KindUserSummary: false,
		window.KindComment:     false,
		window.KindProof:       true,
		window.KindGpt:         true,
		window.KindAnalyze:     true,
	}
	for kind, want := range replyScoped {
		if got := kind.IsReplyScoped(); got != want {
			t.Errorf("%s.IsReplyScoped() = %v, want %v", kind, got, want)
		}
	}
}
