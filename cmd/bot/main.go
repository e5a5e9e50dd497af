// Package main contains the entrypoint for the digest bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/digestbot/internal/ai"
	"github.com/avolkov/digestbot/internal/bot"
	"github.com/avolkov/digestbot/internal/bot/handlers"
	"github.com/avolkov/digestbot/internal/bot/tasks"
	"github.com/avolkov/digestbot/internal/config"
	"github.com/avolkov/digestbot/internal/logger"
	"github.com/avolkov/digestbot/internal/store"
	"github.com/avolkov/digestbot/internal/telegram"
	"github.com/avolkov/digestbot/internal/window"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// registry database, message ledger, AI client, bot, scheduler), handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	loc, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		log.Error("Failed to load digest timezone", "timezone", cfg.Digest.Timezone, "error", err)
		return 1
	}

	db, err := store.NewDB(cfg.Store.DBPath)
	if err != nil {
		log.Error("Failed to open registry database", "path", cfg.Store.DBPath, "error", err)
		return 1
	}
	defer store.CloseDB(db)
	registry := store.NewRegistry(db, log)

	messageLog := store.NewMessageLog(cfg.Store.Retention, cfg.Store.MaxPerChat, log)
	evaluator := window.NewEvaluator(messageLog, cfg.Store.Retention, cfg.Store.CommentSpan)

	aiClient, err := ai.New(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize AI client", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Log:       messageLog,
		Registry:  registry,
		AI:        aiClient,
		Evaluator: evaluator,
	}

	// The observer needs the bot's own ID, which is known only after the
	// client is created; the default handler indirects through a variable
	// assigned before the listener starts.
	var observer tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if observer != nil {
				observer(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)
	observer = handlers.NewObserverHandler(hDeps, me.ID)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:    log,
		Config:    cfg,
		Log:       messageLog,
		Registry:  registry,
		AI:        aiClient,
		Evaluator: evaluator,
		Bot:       tg,
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	schedules := map[string]string{
		"daily_digest": bot.DigestCronExpr(cfg.Digest.WindowStartHour, cfg.Digest.WindowEndHour, rng),
		"ledger_prune": "*/30 * * * *",
	}
	sched, err := bot.NewScheduler(log, loc, schedules, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, registry, aiClient, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
