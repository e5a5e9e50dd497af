// Package config manages application configuration from config.yaml,
// BOT_-prefixed environment variables, and default values.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	AI       AIConfig       `mapstructure:"ai"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Store    StoreConfig    `mapstructure:"store"`
	Messages MessagesConfig `mapstructure:"messages"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
}

// AIConfig holds inference API settings. Provider selects the client
// implementation; the per-operation model names are used by the OpenAI
// client, while Gemini uses Model for every operation.
type AIConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=openai gemini"`
	Token    string `mapstructure:"token"    validate:"required"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`

	Model        string `mapstructure:"model"`
	SummaryModel string `mapstructure:"summary_model"`
	ProofModel   string `mapstructure:"proof_model"`
	CommentModel string `mapstructure:"comment_model"`
	VisionModel  string `mapstructure:"vision_model"`

	Concise           bool          `mapstructure:"concise"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=300"`
}

// DigestConfig configures the daily scheduled digest. The digest fires once
// per calendar day at a randomized instant inside [WindowStartHour,
// WindowEndHour) in the configured time zone.
type DigestConfig struct {
	Timezone        string        `mapstructure:"timezone"          validate:"required"`
	WindowStartHour int           `mapstructure:"window_start_hour" validate:"min=0,max=23"`
	WindowEndHour   int           `mapstructure:"window_end_hour"   validate:"min=1,max=24,gtfield=WindowStartHour"`
	ChatTimeout     time.Duration `mapstructure:"chat_timeout"      validate:"min=1s,max=10m"`
}

// StoreConfig configures the message ledger and the chat registry database.
type StoreConfig struct {
	DBPath      string        `mapstructure:"db_path"      validate:"required"`
	Retention   time.Duration `mapstructure:"retention"    validate:"min=1h,max=168h"`
	MaxPerChat  int           `mapstructure:"max_per_chat" validate:"min=10,max=100000"`
	CommentSpan time.Duration `mapstructure:"comment_span" validate:"min=1m,max=24h"`
}

// MessagesConfig holds the user-facing reply templates.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"`
	Help            string `mapstructure:"help"`
	SummaryProgress string `mapstructure:"summary_progress"`
	ProofProgress   string `mapstructure:"proof_progress"`
	CommentProgress string `mapstructure:"comment_progress"`
	GptProgress     string `mapstructure:"gpt_progress"`
	AnalyzeProgress string `mapstructure:"analyze_progress"`
	NothingToReport string `mapstructure:"nothing_to_report"`
	ReplyRequired   string `mapstructure:"reply_required"`
	UnknownReply    string `mapstructure:"unknown_reply"`
	PhotoRequired   string `mapstructure:"photo_required"`
	GeneralError    string `mapstructure:"general_error"`
	SummaryHeader   string `mapstructure:"summary_header"`
	DailyHeader     string `mapstructure:"daily_header"`
	ProofHeader     string `mapstructure:"proof_header"`
	CommentHeader   string `mapstructure:"comment_header"`
	GptHeader       string `mapstructure:"gpt_header"`
	AnalyzeHeader   string `mapstructure:"analyze_header"`
}
