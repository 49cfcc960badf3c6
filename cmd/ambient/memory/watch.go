package memorycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const watchLongDesc string = `Report memory document changes as they happen.

Prints a line each time a document is rewritten, whether by the running
agent or by hand. Stops on Ctrl-C.`

const watchShortDesc string = "Watch memory documents for changes"

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), store)
		},
	}

	agent.AddFlags(cmd, memoryFlags)

	return cmd
}

func runWatch(ctx context.Context, w io.Writer, store *memory.Store) error {
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Watching"),
		cliui.DimStyle.Render(store.MemoryDir()),
	)

	err := store.Watch(ctx, func(d memory.Document) {
		fmt.Fprintf(w, "  %s %s %s\n",
			cliui.DimStyle.Render(time.Now().UTC().Format(time.TimeOnly)),
			cliui.SuccessMark,
			cliui.ValueStyle.Render(string(d)),
		)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
