package agent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/pkg/config"
)

// RunFlags are the registry flags shared by serve and poll.
var RunFlags = []string{
	config.FlagDataDir,
	config.FlagListen,
	config.FlagAllowedUsers,
	config.FlagChatModel,
	config.FlagSynthesisModel,
	config.FlagThinkingModel,
	config.FlagModelsBaseURL,
	config.FlagInterval,
	config.FlagMaxPerDay,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
}

// AddFlags registers the given registry flags on cmd. Values are read back
// through viper, so the flag targets are never consulted directly.
func AddFlags(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		switch key {
		case config.FlagInterval, config.FlagMaxPerDay:
			config.AddUintFlag(cmd, config.Registry, key, new(uint))
		default:
			config.AddStringFlag(cmd, config.Registry, key, new(string))
		}
	}
}

// LoadConfig resolves the configuration for cmd: defaults, config.toml in
// the --config-dir target, environment, then any flags from keys that were
// set on the command line.
func LoadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Registry, keys)

	return config.FromViper(v)
}
