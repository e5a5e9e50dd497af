// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic.
package handlers

import (
	"log/slog"

	"github.com/avolkov/digestbot/internal/ai"
	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/window"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Log       *store.MessageLog
	Registry  store.Registry
	AI        ai.Client
	Evaluator *window.Evaluator
}
