package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent ambient configuration stored as config.toml
// in the .ambient/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Telegram    TelegramConfig    `toml:"telegram"`
	Models      ModelsConfig      `toml:"models"`
	Autonomy    AutonomyConfig    `toml:"autonomy"`
	Session     SessionConfig     `toml:"session"`
	Server      ServerConfig      `toml:"server"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig locates the memory documents and the journal.
type StorageConfig struct {
	DataDir string `toml:"data_dir,omitempty"`
}

// TelegramConfig holds the chat transport settings.
type TelegramConfig struct {
	BotToken string `toml:"bot_token,omitempty"`

	// AllowedUserIDs is a comma separated list of Telegram user ids. An empty
	// list authorizes everyone.
	AllowedUserIDs string `toml:"allowed_user_ids,omitempty"`

	// WebhookURL is the public base URL Telegram posts updates to. When empty
	// the bot falls back to long polling.
	WebhookURL string `toml:"webhook_url,omitempty"`
}

// UserIDs parses AllowedUserIDs.
func (t TelegramConfig) UserIDs() ([]int64, error) {
	return ParseUserIDs(t.AllowedUserIDs)
}

// ModelsConfig maps each model tier to an OpenRouter model id.
type ModelsConfig struct {
	APIKey    string `toml:"api_key,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	Chat      string `toml:"chat,omitempty"`
	Synthesis string `toml:"synthesis,omitempty"`
	Thinking  string `toml:"thinking,omitempty"`
}

// AutonomyConfig governs the scheduler and its gates. Hours are UTC.
type AutonomyConfig struct {
	IntervalMinutes uint    `toml:"interval_minutes,omitempty"`
	QuietHoursStart int     `toml:"quiet_hours_start"`
	QuietHoursEnd   int     `toml:"quiet_hours_end"`
	CooldownHours   float64 `toml:"cooldown_hours"`
	MaxPerDay       uint    `toml:"max_per_day"`
}

// SessionConfig governs session expiry and threshold consolidation.
type SessionConfig struct {
	TimeoutMinutes     uint `toml:"timeout_minutes,omitempty"`
	SynthesisThreshold uint `toml:"synthesis_threshold,omitempty"`
}

// ServerConfig holds the HTTP listener settings for webhook mode.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventStreamConfig selects the event publisher. Provider is "nop" or "kafka".
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits the comma separated broker addresses.
func (e EventStreamConfig) BrokerList() []string {
	return splitList(e.Brokers)
}

// ParseUserIDs parses a comma separated list of integer ids. Blank entries
// are ignored.
func ParseUserIDs(raw string) ([]int64, error) {
	parts := splitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatUint(uint64(*field(c)), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func hourKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 || n > 23 {
				return fmt.Errorf("invalid value for %s: hour %d out of range 0-23", name, n)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.data_dir":            stringKey(func(c *Config) *string { return &c.Storage.DataDir }),
	"telegram.bot_token":          stringKey(func(c *Config) *string { return &c.Telegram.BotToken }),
	"telegram.webhook_url":        stringKey(func(c *Config) *string { return &c.Telegram.WebhookURL }),
	"models.api_key":              stringKey(func(c *Config) *string { return &c.Models.APIKey }),
	"models.base_url":             stringKey(func(c *Config) *string { return &c.Models.BaseURL }),
	"models.chat":                 stringKey(func(c *Config) *string { return &c.Models.Chat }),
	"models.synthesis":            stringKey(func(c *Config) *string { return &c.Models.Synthesis }),
	"models.thinking":             stringKey(func(c *Config) *string { return &c.Models.Thinking }),
	"server.listen":               stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"eventstream.provider":        stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":         stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":           stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"autonomy.interval_minutes":   uintKey("autonomy.interval_minutes", func(c *Config) *uint { return &c.Autonomy.IntervalMinutes }),
	"autonomy.max_per_day":        uintKey("autonomy.max_per_day", func(c *Config) *uint { return &c.Autonomy.MaxPerDay }),
	"autonomy.quiet_hours_start":  hourKey("autonomy.quiet_hours_start", func(c *Config) *int { return &c.Autonomy.QuietHoursStart }),
	"autonomy.quiet_hours_end":    hourKey("autonomy.quiet_hours_end", func(c *Config) *int { return &c.Autonomy.QuietHoursEnd }),
	"session.timeout_minutes":     uintKey("session.timeout_minutes", func(c *Config) *uint { return &c.Session.TimeoutMinutes }),
	"session.synthesis_threshold": uintKey("session.synthesis_threshold", func(c *Config) *uint { return &c.Session.SynthesisThreshold }),
	"telegram.allowed_user_ids": {
		get: func(c *Config) string { return c.Telegram.AllowedUserIDs },
		set: func(c *Config, v string) error {
			if _, err := ParseUserIDs(v); err != nil {
				return fmt.Errorf("invalid value for telegram.allowed_user_ids: %w", err)
			}
			c.Telegram.AllowedUserIDs = v
			return nil
		},
	},
	"autonomy.cooldown_hours": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Autonomy.CooldownHours, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for autonomy.cooldown_hours: %w", err)
			}
			if f < 0 {
				return fmt.Errorf("invalid value for autonomy.cooldown_hours: %v is negative", f)
			}
			c.Autonomy.CooldownHours = f
			return nil
		},
	},
}
