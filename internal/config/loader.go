package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults plus env vars may be complete.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	// Tokens have no sensible default, but the keys must be known to viper
	// for BOT_TELEGRAM_TOKEN and BOT_AI_TOKEN to be picked up on Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.request_timeout", 30*time.Second)

	v.SetDefault("ai.token", "")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gpt-4.1")
	v.SetDefault("ai.summary_model", "gpt-4.1-mini")
	v.SetDefault("ai.proof_model", "gpt-4.1")
	v.SetDefault("ai.comment_model", "gpt-4.1-nano")
	v.SetDefault("ai.vision_model", "gpt-4.1")
	v.SetDefault("ai.concise", true)
	v.SetDefault("ai.timeout", 3*time.Minute)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.retry_delay_seconds", 5)

	v.SetDefault("digest.timezone", "Europe/London")
	v.SetDefault("digest.window_start_hour", 20)
	v.SetDefault("digest.window_end_hour", 22)
	v.SetDefault("digest.chat_timeout", 4*time.Minute)

	v.SetDefault("store.db_path", "digestbot.db")
	v.SetDefault("store.retention", 24*time.Hour)
	v.SetDefault("store.max_per_chat", 2000)
	v.SetDefault("store.comment_span", time.Hour)

	v.SetDefault("messages.welcome",
		"👋 Hello! I'm an AI-powered chat assistant. I can summarize messages, "+
			"verify facts, answer questions, and more.\n\n"+
			"Add me to a group chat and type /help to see what I can do!")
	v.SetDefault("messages.help",
		"🤖 *Bot User Guide*\n\n"+
			"➠ Between the configured evening window the bot automatically posts "+
			"a chat digest covering the last 24 hours.\n"+
			"➠ The bot cannot see messages posted before it was added to the chat.\n\n"+
			"*Commands*\n"+
			"/summary — digest of the last 24h (reply to a user to scope it to them)\n"+
			"/proof — ↩️ verify the replied-to statement\n"+
			"/comment — comment on the current discussion\n"+
			"/gpt — ↩️ answer the replied-to question\n"+
			"/analyze — ↩️ analyze the replied-to image\n\n"+
			"↩️ — send as a reply to a message posted after the bot joined")
	v.SetDefault("messages.summary_progress", "Generating summary... This might take a moment.")
	v.SetDefault("messages.proof_progress", "Verifying the statement... This might take a moment.")
	v.SetDefault("messages.comment_progress", "Reading the discussion... This might take a moment.")
	v.SetDefault("messages.gpt_progress", "Thinking... This might take a moment.")
	v.SetDefault("messages.analyze_progress", "Analyzing the image... This might take a moment.")
	v.SetDefault("messages.nothing_to_report", "No recent messages found to work with.")
	v.SetDefault("messages.reply_required", "Please use this command as a reply to a user message.")
	v.SetDefault("messages.unknown_reply",
		"I can't see that message. It was posted before I joined or has already aged out of my memory.")
	v.SetDefault("messages.photo_required", "Please reply to a message containing a photo.")
	v.SetDefault("messages.general_error", "Sorry, something went wrong. Please try again later.")
	v.SetDefault("messages.summary_header", "📊 *Message Summary*")
	v.SetDefault("messages.daily_header", "📅 *Daily Summary \\(%s\\)*")
	v.SetDefault("messages.proof_header", "✅ *Fact Check*")
	v.SetDefault("messages.comment_header", "💬 *AI Commentary*")
	v.SetDefault("messages.gpt_header", "🤖 *AI Response*")
	v.SetDefault("messages.analyze_header", "🖼 *Image Analysis*")
}
