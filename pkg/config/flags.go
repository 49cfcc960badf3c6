package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --data-dir
// on "ambient serve", "ambient poll" and "ambient memory").
type Flag struct {
	// Name is the long flag name (e.g. "data-dir").
	Name string

	// Shorthand is the one-letter short flag (e.g. "D"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "storage.data_dir").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagDataDir        = "data-dir"
	FlagListen         = "listen"
	FlagWebhookURL     = "webhook-url"
	FlagAllowedUsers   = "allowed-users"
	FlagChatModel      = "chat-model"
	FlagSynthesisModel = "synthesis-model"
	FlagThinkingModel  = "thinking-model"
	FlagModelsBaseURL  = "models-base-url"
	FlagInterval       = "interval"
	FlagMaxPerDay      = "max-per-day"
	FlagEventStream    = "eventstream"
	FlagKafkaBrokers   = "kafka-brokers"
)

// Registry holds every flag definition shared across commands.
var Registry = FlagSet{
	FlagDataDir: {
		Name:        "data-dir",
		Shorthand:   "D",
		ViperKey:    "storage.data_dir",
		Description: "Root directory for memory documents and the journal",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address the webhook server listens on",
	},
	FlagWebhookURL: {
		Name:        "webhook-url",
		ViperKey:    "telegram.webhook_url",
		Description: "Public base URL Telegram delivers updates to",
	},
	FlagAllowedUsers: {
		Name:        "allowed-users",
		ViperKey:    "telegram.allowed_user_ids",
		Description: "Comma separated Telegram user ids allowed to talk to the agent (empty allows everyone)",
	},
	FlagChatModel: {
		Name:        "chat-model",
		ViperKey:    "models.chat",
		Description: "Model id for replies and outreach",
	},
	FlagSynthesisModel: {
		Name:        "synthesis-model",
		ViperKey:    "models.synthesis",
		Description: "Model id for memory consolidation",
	},
	FlagThinkingModel: {
		Name:        "thinking-model",
		ViperKey:    "models.thinking",
		Description: "Model id for the autonomy thinking step",
	},
	FlagModelsBaseURL: {
		Name:        "models-base-url",
		ViperKey:    "models.base_url",
		Description: "OpenAI compatible base URL for model calls",
	},
	FlagInterval: {
		Name:        "interval",
		Shorthand:   "i",
		ViperKey:    "autonomy.interval_minutes",
		Description: "Minutes between autonomy cycles",
	},
	FlagMaxPerDay: {
		Name:        "max-per-day",
		ViperKey:    "autonomy.max_per_day",
		Description: "Maximum proactive messages per UTC day",
	},
	FlagEventStream: {
		Name:        "eventstream",
		ViperKey:    "eventstream.provider",
		Description: "Event publisher (nop, kafka)",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka broker addresses",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
