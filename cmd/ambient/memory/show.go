package memorycmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const showLongDesc string = `Render memory documents.

With no argument every document is shown in context order. The ".md"
suffix is optional.

Examples:
  ambient memory show
  ambient memory show queue
  ambient memory show user_context.md --raw`

const showShortDesc string = "Render memory documents"

func newShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [document]",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runShow(cmd.OutOrStdout(), store, name, raw)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(memory.Documents))
			for _, d := range memory.Documents {
				names = append(names, strings.TrimSuffix(string(d), ".md"))
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	}

	agent.AddFlags(cmd, memoryFlags)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")

	return cmd
}

func runShow(w io.Writer, store *memory.Store, name string, raw bool) error {
	var content string

	if name == "" {
		full, err := store.LoadFullContext()
		if err != nil {
			return err
		}
		content = full
	} else {
		d, err := documentName(name)
		if err != nil {
			return err
		}
		content, err = store.ReadDocument(string(d))
		if err != nil {
			return err
		}
		if strings.TrimSpace(content) == "" {
			fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render(string(d)+" is empty"))
			return nil
		}
	}

	if raw {
		fmt.Fprintln(w, content)
		return nil
	}

	// RenderMarkdown hands back the raw content when glamour fails.
	rendered, _ := cliui.RenderMarkdown(content)
	fmt.Fprint(w, rendered)
	return nil
}

// documentName accepts a document name with or without the .md suffix.
func documentName(name string) (memory.Document, error) {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}

	d, err := memory.ParseDocument(name)
	if err != nil {
		valid := make([]string, 0, len(memory.Documents))
		for _, doc := range memory.Documents {
			valid = append(valid, string(doc))
		}
		return "", fmt.Errorf("%w: %q\n\nValid documents: %s", err, name, strings.Join(valid, ", "))
	}
	return d, nil
}
