// Package ambientcmder
package ambientcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/emilwagman/Ambient-AI/cmd/ambient/config"
	initcmder "github.com/emilwagman/Ambient-AI/cmd/ambient/init"
	memorycmder "github.com/emilwagman/Ambient-AI/cmd/ambient/memory"
	pollcmder "github.com/emilwagman/Ambient-AI/cmd/ambient/poll"
	servecmder "github.com/emilwagman/Ambient-AI/cmd/ambient/serve"
	versioncmder "github.com/emilwagman/Ambient-AI/cmd/ambient/version"
)

const ambientLongDesc string = `Ambient is an always-on companion with durable memory.

It talks with you over Telegram, folds finished conversations into a small
set of memory documents, and wakes up on a schedule to think, keep a
journal and, now and then, reach out first.

Run the agent using:
  ambient serve        Receive updates on a webhook (production)
  ambient poll         Long poll for updates (local development)

Inspect and configure it using:
  ambient init         Create .ambient/ and seed memory
  ambient memory       Show documents, the journal, or watch for changes
  ambient config       Get, set and list configuration`

const ambientShortDesc string = "Ambient - an always-on companion with memory"

func NewAmbientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ambient",
		Short:        ambientShortDesc,
		Long:         ambientLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ambient/ directory (default: ./.ambient, then ~/.ambient)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(pollcmder.NewPollCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
