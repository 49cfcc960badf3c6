package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/emilwagman/Ambient-AI/pkg/dotdir"
)

// envPrefix namespaces environment overrides: AMBIENT_AUTONOMY_MAX_PER_DAY etc.
const envPrefix = "AMBIENT"

// legacyEnv maps config keys to the unprefixed environment variable names
// used by existing deployments. The prefixed name always wins.
var legacyEnv = map[string]string{
	"storage.data_dir":            "DATA_DIR",
	"telegram.bot_token":          "TELEGRAM_BOT_TOKEN",
	"telegram.allowed_user_ids":   "ALLOWED_USER_IDS",
	"telegram.webhook_url":        "WEBHOOK_URL",
	"models.api_key":              "OPENROUTER_API_KEY",
	"models.chat":                 "CHAT_MODEL",
	"models.synthesis":            "SYNTHESIS_MODEL",
	"models.thinking":             "THINKING_MODEL",
	"autonomy.interval_minutes":   "AUTONOMY_INTERVAL_MINUTES",
	"autonomy.quiet_hours_start":  "QUIET_HOURS_START",
	"autonomy.quiet_hours_end":    "QUIET_HOURS_END",
	"autonomy.cooldown_hours":     "PROACTIVE_COOLDOWN_HOURS",
	"autonomy.max_per_day":        "MAX_PROACTIVE_MESSAGES_PER_DAY",
	"session.timeout_minutes":     "SESSION_TIMEOUT_MINUTES",
	"session.synthesis_threshold": "SYNTHESIS_MESSAGE_THRESHOLD",
	"server.listen":               "LISTEN_ADDR",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (AMBIENT_SERVER_LISTEN, then legacy names like QUIET_HOURS_START)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// PORT is what most container platforms set. It only moves the default,
	// so config.toml, env and flags still win.
	if port := os.Getenv("PORT"); port != "" {
		v.SetDefault("server.listen", ":"+port)
	}

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// FromViper materializes a Config from the resolved viper state and
// validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			DataDir: v.GetString("storage.data_dir"),
		},
		Telegram: TelegramConfig{
			BotToken:       v.GetString("telegram.bot_token"),
			AllowedUserIDs: v.GetString("telegram.allowed_user_ids"),
			WebhookURL:     v.GetString("telegram.webhook_url"),
		},
		Models: ModelsConfig{
			APIKey:    v.GetString("models.api_key"),
			BaseURL:   v.GetString("models.base_url"),
			Chat:      v.GetString("models.chat"),
			Synthesis: v.GetString("models.synthesis"),
			Thinking:  v.GetString("models.thinking"),
		},
		Autonomy: AutonomyConfig{
			IntervalMinutes: v.GetUint("autonomy.interval_minutes"),
			QuietHoursStart: v.GetInt("autonomy.quiet_hours_start"),
			QuietHoursEnd:   v.GetInt("autonomy.quiet_hours_end"),
			CooldownHours:   v.GetFloat64("autonomy.cooldown_hours"),
			MaxPerDay:       v.GetUint("autonomy.max_per_day"),
		},
		Session: SessionConfig{
			TimeoutMinutes:     v.GetUint("session.timeout_minutes"),
			SynthesisThreshold: v.GetUint("session.synthesis_threshold"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  v.GetString("eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)

	v.SetDefault("telegram.bot_token", d.Telegram.BotToken)
	v.SetDefault("telegram.allowed_user_ids", d.Telegram.AllowedUserIDs)
	v.SetDefault("telegram.webhook_url", d.Telegram.WebhookURL)

	v.SetDefault("models.api_key", d.Models.APIKey)
	v.SetDefault("models.base_url", d.Models.BaseURL)
	v.SetDefault("models.chat", d.Models.Chat)
	v.SetDefault("models.synthesis", d.Models.Synthesis)
	v.SetDefault("models.thinking", d.Models.Thinking)

	v.SetDefault("autonomy.interval_minutes", d.Autonomy.IntervalMinutes)
	v.SetDefault("autonomy.quiet_hours_start", d.Autonomy.QuietHoursStart)
	v.SetDefault("autonomy.quiet_hours_end", d.Autonomy.QuietHoursEnd)
	v.SetDefault("autonomy.cooldown_hours", d.Autonomy.CooldownHours)
	v.SetDefault("autonomy.max_per_day", d.Autonomy.MaxPerDay)

	v.SetDefault("session.timeout_minutes", d.Session.TimeoutMinutes)
	v.SetDefault("session.synthesis_threshold", d.Session.SynthesisThreshold)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
