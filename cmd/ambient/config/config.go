// Package configcmder provides the config command for managing the
// persistent configuration stored in the .ambient/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/config"
)

const configLongDesc string = `Manage persistent ambient configuration.

Configuration is stored as config.toml in the .ambient/ directory. Values
there sit below environment variables and command flags: AMBIENT_ prefixed
variables (AMBIENT_AUTONOMY_MAX_PER_DAY) and the unprefixed names such as
TELEGRAM_BOT_TOKEN both override the file.

Keys use dotted notation matching the TOML section structure:
  storage.data_dir,
  telegram.bot_token, telegram.allowed_user_ids, telegram.webhook_url,
  models.api_key, models.base_url, models.chat, models.synthesis, models.thinking,
  autonomy.interval_minutes, autonomy.quiet_hours_start, autonomy.quiet_hours_end,
  autonomy.cooldown_hours, autonomy.max_per_day,
  session.timeout_minutes, session.synthesis_threshold,
  server.listen,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  ambient config set <key> <value>    Set a configuration value
  ambient config get <key>            Get a configuration value
  ambient config list                 List all configuration values

Examples:
  ambient config set autonomy.quiet_hours_start 22
  ambient config set telegram.allowed_user_ids 12345,67890
  ambient config get models.chat
  ambient config list`

const configShortDesc string = "Manage persistent ambient configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
