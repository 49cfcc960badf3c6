package memorycmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const journalLongDesc string = `Print recent journal entries.

Journal files are one per UTC date. Entries from the last --days dates are
printed newest first.

Examples:
  ambient memory journal
  ambient memory journal --days 30 --raw`

const journalShortDesc string = "Print recent journal entries"

const defaultJournalDays = 7

func newJournalCmd() *cobra.Command {
	var (
		days int
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: journalShortDesc,
		Long:  journalLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			return runJournal(cmd.OutOrStdout(), store, days, raw)
		},
	}

	agent.AddFlags(cmd, memoryFlags)
	cmd.Flags().IntVarP(&days, "days", "n", defaultJournalDays, "Number of UTC days to include")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")

	return cmd
}

func runJournal(w io.Writer, store *memory.Store, days int, raw bool) error {
	content, err := store.RecentJournal(days)
	if err != nil {
		return err
	}

	if raw {
		fmt.Fprintln(w, content)
		return nil
	}

	rendered, _ := cliui.RenderMarkdown(content)
	fmt.Fprint(w, rendered)
	return nil
}
