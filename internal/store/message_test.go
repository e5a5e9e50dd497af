package store_test

import (
	"testing"
	"time"

	"github.com/avolkov/digestbot/internal/store"
)

var base = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

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

func TestAppendAndQueryOrdering(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "first", base))
	log.Append(record(1, 11, 100, "second", base.Add(time.Minute)))
	log.Append(record(1, 12, 101, "third", base.Add(2*time.Minute)))

	got := log.Query(1, base, base.Add(time.Hour), 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Content != want {
			t.Errorf("record %d: got %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestQueryUnknownChat(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	if got := log.Query(42, base, base.Add(time.Hour), 0); len(got) != 0 {
		t.Errorf("expected empty result for unknown chat, got %d records", len(got))
	}
}

func TestQuerySenderFilter(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "from alice", base))
	log.Append(record(1, 11, 200, "from bob", base.Add(time.Minute)))
	log.Append(record(1, 12, 100, "alice again", base.Add(2*time.Minute)))

	got := log.Query(1, base, base.Add(time.Hour), 100)
	if len(got) != 2 {
		t.Fatalf("expected 2 records from user 100, got %d", len(got))
	}
	for _, m := range got {
		if m.UserID != 100 {
			t.Errorf("unexpected sender %d in filtered result", m.UserID)
		}
	}
}

func TestQueryReturnsCopy(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "original", base))

	got := log.Query(1, base, base.Add(time.Hour), 0)
	got[0].Content = "mutated"

	again := log.Query(1, base, base.Add(time.Hour), 0)
	if again[0].Content != "original" {
		t.Error("mutating a query result leaked into the ledger")
	}
}

func TestRetentionOnAppend(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(24*time.Hour, 0, nil)
	log.Append(record(1, 10, 100, "stale", base.Add(-25*time.Hour)))
	log.Append(record(1, 11, 100, "boundary", base.Add(-24*time.Hour)))
	log.Append(record(1, 12, 100, "fresh", base))

	got := log.Query(1, base.Add(-48*time.Hour), base, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(got))
	}
	if got[0].Content != "boundary" || got[1].Content != "fresh" {
		t.Errorf("unexpected survivors: %q, %q", got[0].Content, got[1].Content)
	}
}

func TestPruneExactAndIdempotent(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "old", base))
	log.Append(record(1, 11, 100, "cutoff", base.Add(time.Minute)))
	log.Append(record(1, 12, 100, "new", base.Add(2*time.Minute)))

	cutoff := base.Add(time.Minute)
	log.Prune(1, cutoff)
	log.Prune(1, cutoff) // second sweep must be a no-op

	got := log.Query(1, base.Add(-time.Hour), base.Add(time.Hour), 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 records after prune, got %d", len(got))
	}
	// The record timestamped exactly at the cutoff is retained.
	if got[0].Content != "cutoff" {
		t.Errorf("record at cutoff instant was dropped, head is %q", got[0].Content)
	}

	// Pruning a chat that was never seen must not panic.
	log.Prune(99, cutoff)
}

func TestChatIsolation(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "chat one", base))
	log.Append(record(2, 20, 200, "chat two", base))

	log.Prune(1, base.Add(time.Hour))

	if got := log.Query(1, base.Add(-time.Hour), base.Add(time.Hour), 0); len(got) != 0 {
		t.Errorf("chat 1 should be empty after prune, got %d records", len(got))
	}
	got := log.Query(2, base.Add(-time.Hour), base.Add(time.Hour), 0)
	if len(got) != 1 || got[0].Content != "chat two" {
		t.Errorf("chat 2 was affected by chat 1's prune: %v", got)
	}
}

func TestPerChatCap(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 3, nil)
	for i := 0; i < 5; i++ {
		log.Append(record(1, 10+i, 100, "msg", base.Add(time.Duration(i)*time.Second)))
	}

	got := log.Query(1, base.Add(-time.Hour), base.Add(time.Hour), 0)
	if len(got) != 3 {
		t.Fatalf("expected cap of 3 records, got %d", len(got))
	}
	if got[0].MessageID != 12 || got[2].MessageID != 14 {
		t.Errorf("cap did not drop the oldest records: first=%d last=%d", got[0].MessageID, got[2].MessageID)
	}
}

func TestFindByMessageID(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(0, 0, nil)
	log.Append(record(1, 10, 100, "target", base))

	if m, ok := log.FindByMessageID(1, 10); !ok || m.Content != "target" {
		t.Errorf("FindByMessageID(1, 10) = %v, %v; want target record", m, ok)
	}
	if _, ok := log.FindByMessageID(1, 99); ok {
		t.Error("found a record that was never appended")
	}
	if _, ok := log.FindByMessageID(7, 10); ok {
		t.Error("found a record in an unknown chat")
	}

	log.Prune(1, base.Add(time.Hour))
	if _, ok := log.FindByMessageID(1, 10); ok {
		t.Error("found a record that was pruned")
	}
}

func TestPruneAll(t *testing.T) {
	t.Parallel()

	log := store.NewMessageLog(24*time.Hour, 0, nil)
	log.Append(record(1, 10, 100, "stale", base.Add(-30*time.Hour)))
	log.Append(record(2, 20, 200, "fresh", base.Add(-time.Hour)))

	log.PruneAll(base)

	if got := log.Query(1, base.Add(-48*time.Hour), base, 0); len(got) != 0 {
		t.Errorf("stale chat should be swept, got %d records", len(got))
	}
	if got := log.Query(2, base.Add(-48*time.Hour), base, 0); len(got) != 1 {
		t.Errorf("fresh chat lost records in sweep, got %d", len(got))
	}
}
