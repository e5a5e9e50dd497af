// Package store provides the in-memory rolling message ledger and the
// SQLite-backed chat registry used by digestbot.
package store

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is the trailing window of messages kept per chat.
	DefaultRetention = 24 * time.Hour

	// DefaultMaxPerChat caps how many records a single chat may hold,
	// independent of the retention window.
	DefaultMaxPerChat = 2000
)

// Message is one observed group-chat message. Records are immutable once
// appended; only the ledger's membership changes via pruning.
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	UserName  string
	Content   string
	ReplyToID int // message ID this record replies to, 0 if none
	Timestamp time.Time
}

// chatLog holds one chat's records in insertion order. Each chat has its own
// lock so unrelated chats never serialize on each other.
type chatLog struct {
	mu      sync.Mutex
	records []Message
}

// MessageLog is the per-chat rolling ledger. Appends and queries fold pruning
// into their own critical section, so no background compaction is needed.
// Queries return copies; callers never hold a lock across network calls.
type MessageLog struct {
	retention  time.Duration
	maxPerChat int
	logger     *slog.Logger

	mu    sync.RWMutex // guards the chats map, not the per-chat records
	chats map[int64]*chatLog
}

// NewMessageLog creates a ledger with the given retention window and per-chat
// cap. Non-positive values fall back to the defaults.
func NewMessageLog(retention time.Duration, maxPerChat int, logger *slog.Logger) *MessageLog {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if maxPerChat <= 0 {
		maxPerChat = DefaultMaxPerChat
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MessageLog{
		retention:  retention,
		maxPerChat: maxPerChat,
		logger:     logger.With("component", "message_log"),
		chats:      make(map[int64]*chatLog),
	}
}

// Retention returns the configured trailing window.
func (l *MessageLog) Retention() time.Duration {
	return l.retention
}

func (l *MessageLog) chat(chatID int64, create bool) *chatLog {
	l.mu.RLock()
	c := l.chats[chatID]
	l.mu.RUnlock()
	if c != nil || !create {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c = l.chats[chatID]; c == nil {
		c = &chatLog{}
		l.chats[chatID] = c
	}
	return c
}

// Append inserts a record at the tail of its chat's sequence and lazily prunes
// entries that have aged out of the retention window.
func (l *MessageLog) Append(msg Message) {
	c := l.chat(msg.ChatID, true)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(msg.Timestamp.Add(-l.retention))
	c.records = append(c.records, msg)

	if overflow := len(c.records) - l.maxPerChat; overflow > 0 {
		c.records = append(c.records[:0], c.records[overflow:]...)
		l.logger.Debug("Dropped oldest records over per-chat cap",
			"chat_id", msg.ChatID, "dropped", overflow)
	}
}

// Query returns the chat's records with timestamps in [since, until],
// optionally filtered to a single sender (senderID > 0). The result is a
// fresh copy in insertion order. Unknown chats yield an empty result, never
// an error.
func (l *MessageLog) Query(chatID int64, since, until time.Time, senderID int64) []Message {
	c := l.chat(chatID, false)
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(until.Add(-l.retention))

	var out []Message
	for _, m := range c.records {
		if m.Timestamp.Before(since) || m.Timestamp.After(until) {
			continue
		}
		if senderID > 0 && m.UserID != senderID {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FindByMessageID returns the record with the given Telegram message ID, used
// to resolve reply-triggered commands. The second return is false when the
// record is absent (pruned, or sent before the bot could observe it).
func (l *MessageLog) FindByMessageID(chatID int64, messageID int) (Message, bool) {
	c := l.chat(chatID, false)
	if c == nil {
		return Message{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.records) - 1; i >= 0; i-- {
		if c.records[i].MessageID == messageID {
			return c.records[i], true
		}
	}
	return Message{}, false
}

// Prune removes the chat's records with timestamps strictly before olderThan.
// Idempotent; pruning an unknown chat is a no-op.
func (l *MessageLog) Prune(chatID int64, olderThan time.Time) {
	c := l.chat(chatID, false)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(olderThan)
}

// PruneAll sweeps every chat, removing records older than now minus the
// retention window. Run periodically so idle chats do not pin stale records.
func (l *MessageLog) PruneAll(now time.Time) {
	cutoff := now.Add(-l.retention)

	l.mu.RLock()
	ids := make([]int64, 0, len(l.chats))
	for id := range l.chats {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	for _, id := range ids {
		l.Prune(id, cutoff)
	}
}

// pruneLocked drops records with Timestamp < cutoff. Records are stored in
// observation order, so a single scan from the head suffices.
func (c *chatLog) pruneLocked(cutoff time.Time) {
	keep := 0
	for keep < len(c.records) && c.records[keep].Timestamp.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		c.records = append(c.records[:0], c.records[keep:]...)
	}
}
