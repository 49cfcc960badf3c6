package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key in the config.toml file stored in the .ambient/
directory, creating the file with defaults if it does not exist yet.
Numeric keys are validated before anything is written.

Examples:
  ambient config set telegram.bot_token 123456:ABC
  ambient config set autonomy.interval_minutes 30
  ambient config set eventstream.provider kafka`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger.GetTarget())

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = mask(value)
	}
	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(shown),
	)
	return nil
}
