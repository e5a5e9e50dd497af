package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Chat is one registered group conversation. DigestEnabled gates the daily
// scheduled summary; LastDigestDay records the local calendar day of the most
// recent automatic digest so a chat fires at most once per day.
type Chat struct {
	ChatID        int64     `db:"chat_id"`
	Title         string    `db:"title"`
	RegisteredAt  time.Time `db:"registered_at"`
	DigestEnabled bool      `db:"digest_enabled"`
	LastDigestDay string    `db:"last_digest_day"`
}

// Registry tracks which chats the bot serves. Message content stays in the
// in-memory ledger; only registrations persist across restarts.
type Registry interface {
	// Ping checks the backing database connection.
	Ping(ctx context.Context) error

	// Register inserts a chat or refreshes its title if already present.
	Register(ctx context.Context, chatID int64, title string) error

	// Unregister removes a chat. Removing an unknown chat is not an error.
	Unregister(ctx context.Context, chatID int64) error

	// Get returns a chat registration, or nil if the chat is unknown.
	Get(ctx context.Context, chatID int64) (*Chat, error)

	// ListDigestEnabled returns all chats with the daily digest enabled.
	ListDigestEnabled(ctx context.Context) ([]Chat, error)

	// SetDigestEnabled toggles the daily digest for a chat.
	SetDigestEnabled(ctx context.Context, chatID int64, enabled bool) error

	// MarkDigestSent records the local day of the last automatic digest.
	MarkDigestSent(ctx context.Context, chatID int64, day string) error
}

type sqlxRegistry struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewRegistry creates a Registry backed by a connected sqlx database.
func NewRegistry(db *sqlx.DB, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxRegistry{
		db:     db,
		logger: logger.With("component", "chat_registry"),
	}
}

func (r *sqlxRegistry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqlxRegistry) Register(ctx context.Context, chatID int64, title string) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}

	query := `
        INSERT INTO chats (chat_id, title, registered_at, digest_enabled, last_digest_day)
        VALUES (?, ?, ?, 1, '')
        ON CONFLICT (chat_id) DO UPDATE SET title = excluded.title;
    `
	if _, err := r.db.ExecContext(ctx, query, chatID, title, time.Now().UTC()); err != nil {
		r.logger.ErrorContext(ctx, "Failed to register chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to register chat %d: %w", chatID, err)
	}

	r.logger.InfoContext(ctx, "Chat registered", "chat_id", chatID, "title", title)
	return nil
}

func (r *sqlxRegistry) Unregister(ctx context.Context, chatID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = ?;`, chatID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to unregister chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to unregister chat %d: %w", chatID, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		r.logger.InfoContext(ctx, "Chat unregistered", "chat_id", chatID)
	}
	return nil
}

func (r *sqlxRegistry) Get(ctx context.Context, chatID int64) (*Chat, error) {
	var chat Chat
	err := r.db.GetContext(ctx, &chat, `
        SELECT chat_id, title, registered_at, digest_enabled, last_digest_day
        FROM chats WHERE chat_id = ?;
    `, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat %d: %w", chatID, err)
	}
	return &chat, nil
}

func (r *sqlxRegistry) ListDigestEnabled(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	err := r.db.SelectContext(ctx, &chats, `
        SELECT chat_id, title, registered_at, digest_enabled, last_digest_day
        FROM chats
        WHERE digest_enabled = 1
        ORDER BY registered_at;
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list digest-enabled chats: %w", err)
	}
	return chats, nil
}

func (r *sqlxRegistry) SetDigestEnabled(ctx context.Context, chatID int64, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET digest_enabled = ? WHERE chat_id = ?;`, enabled, chatID)
	if err != nil {
		return fmt.Errorf("failed to set digest flag for chat %d: %w", chatID, err)
	}
	return nil
}

func (r *sqlxRegistry) MarkDigestSent(ctx context.Context, chatID int64, day string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_digest_day = ? WHERE chat_id = ?;`, day, chatID)
	if err != nil {
		return fmt.Errorf("failed to mark digest sent for chat %d: %w", chatID, err)
	}
	return nil
}
