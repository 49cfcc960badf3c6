// Package memorycmder provides the memory command for inspecting the agent's
// memory documents and journal from the terminal.
package memorycmder

import (
	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/config"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const memoryLongDesc string = `Inspect the agent's memory.

Reads documents and journal entries straight from the data directory. These
commands never write, so they are safe to run next to a live agent.

Use subcommands:
  ambient memory show [document]    Render one document, or all of them
  ambient memory journal --days N   Print recent journal entries
  ambient memory watch              Report document changes as they happen`

const memoryShortDesc string = "Inspect memory documents and the journal"

var memoryFlags = []string{config.FlagDataDir}

func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: memoryShortDesc,
		Long:  memoryLongDesc,
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newJournalCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// openStore resolves the data directory for cmd and returns a store over it.
func openStore(cmd *cobra.Command) (*memory.Store, error) {
	cfg, err := agent.LoadConfig(cmd, memoryFlags)
	if err != nil {
		return nil, err
	}
	return memory.NewStore(cfg.Storage.DataDir, memory.WithLogger(logger.Nop())), nil
}
