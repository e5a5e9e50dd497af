// Package tasks implements the scheduled background work of the bot: the
// daily digest delivery and the periodic ledger sweep.
package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/avolkov/digestbot/internal/ai"
	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Log       *store.MessageLog
	Registry  store.Registry
	AI        ai.Client
	Evaluator *window.Evaluator
	Bot       *tgbot.Bot
}
