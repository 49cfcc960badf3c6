// Package initcmder provides the init command, which creates a local
// .ambient/ directory with a config.toml and seeds the memory documents.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/pkg/cliui"
	"github.com/emilwagman/Ambient-AI/pkg/config"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const (
	dirName     = ".ambient"
	dataDirName = "data"
)

const initLongDesc string = `Initialize a new .ambient/ directory in the current working directory.

Creates .ambient/config.toml with default values and seeds the memory
documents (identity, user context, conversation summary, active threads
and queue) from their templates. Existing config and documents are left
untouched, so running init again is safe.

The data directory defaults to .ambient/data. Pass --data-dir to keep
memory elsewhere; the choice is written to config.toml.

Examples:
  ambient init
  ambient init --data-dir /srv/ambient`

const initShortDesc string = "Initialize a local .ambient/ directory"

type initCommander struct {
	dataDir string
	out     io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			if !cmd.Flags().Changed(config.Registry[config.FlagDataDir].Name) {
				cmder.dataDir = ""
			} else {
				abs, err := filepath.Abs(cmder.dataDir)
				if err != nil {
					return fmt.Errorf("resolving data dir: %w", err)
				}
				cmder.dataDir = abs
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagDataDir, &cmder.dataDir)

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .ambient directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, created, err := c.resolveConfig(cfger, dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(cfger.GetTarget()))

	if created {
		err = cliui.Step(c.out, "Writing config.toml", func() error {
			return cfger.SaveConfig(cfg)
		})
		if err != nil {
			return err
		}
	}

	store := memory.NewStore(cfg.Storage.DataDir, memory.WithLogger(logger.Nop()))
	err = cliui.Step(c.out, "Seeding memory documents", store.Initialize)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Initialized %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(dir))
	cliui.KeyValue(c.out, "storage.data_dir", cfg.Storage.DataDir)
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render(
		"Next: ambient config set telegram.bot_token <token> and models.api_key <key>",
	))
	return nil
}

// resolveConfig returns the config to initialize with and whether it is new.
// An existing config.toml is kept as is unless --data-dir asks for a change.
func (c *initCommander) resolveConfig(cfger *config.Configer, dir string) (*config.Config, bool, error) {
	_, err := os.Stat(cfger.GetTarget())
	switch {
	case err == nil:
		cfg, err := cfger.LoadConfig()
		if err != nil {
			return nil, false, err
		}
		if c.dataDir == "" || c.dataDir == cfg.Storage.DataDir {
			return cfg, false, nil
		}
		cfg.Storage.DataDir = c.dataDir
		return cfg, true, nil

	case errors.Is(err, os.ErrNotExist):
		cfg := config.NewDefaultConfig()
		cfg.Storage.DataDir = filepath.Join(dir, dataDirName)
		if c.dataDir != "" {
			cfg.Storage.DataDir = c.dataDir
		}
		return cfg, true, nil

	default:
		return nil, false, fmt.Errorf("reading config: %w", err)
	}
}
