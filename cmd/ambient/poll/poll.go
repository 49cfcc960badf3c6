// Package pollcmder provides the poll command, which runs the agent with
// long polling instead of a webhook.
package pollcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/config"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

type pollCommander struct {
	cfg     *config.Config
	debug   bool
	logFile string
	withAPI bool
	logger  *slog.Logger
}

const pollLongDesc string = `Run the agent with Telegram long polling.

Removes any registered webhook, then polls for updates while the autonomy
scheduler runs. Useful for local development where Telegram cannot reach
a public URL.

Examples:
  ambient poll
  ambient poll --api --listen :8081
  ambient poll --log-file .ambient/ambient.log`

const pollShortDesc string = "Run the agent with long polling"

const pollTimeout = 50 * time.Second

func NewPollCmd() *cobra.Command {
	cmder := &pollCommander{}

	cmd := &cobra.Command{
		Use:   "poll",
		Short: pollShortDesc,
		Long:  pollLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.cfg, err = agent.LoadConfig(cmd, agent.RunFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	agent.AddFlags(cmd, agent.RunFlags)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.withAPI, "api", false, "Also serve health, metrics, memory inspection and MCP")

	return cmd
}

func (c *pollCommander) run(ctx context.Context) error {
	log, logCloser, err := logger.Open(os.Stdout, c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	c.logger = log

	a, err := agent.New(c.cfg, c.logger, agent.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Error("closing agent", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Telegram.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("removing webhook: %w", err)
	}

	errChan := make(chan error, 1)
	if c.withAPI {
		server, err := a.APIServer(agent.ModePoll)
		if err != nil {
			return fmt.Errorf("creating api server: %w", err)
		}
		go func() {
			if err := server.Run(); err != nil {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
		defer func() {
			if err := server.Shutdown(); err != nil {
				c.logger.Warn("shutting down api server", "error", err)
			}
		}()
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := a.Start(ctx); err != nil {
			c.logger.Error("scheduler stopped", "error", err)
		}
	}()

	pollDone := make(chan error, 1)
	go func() {
		c.logger.Info("polling for updates")
		pollDone <- a.Telegram.Poll(ctx, pollTimeout, c.handler(a))
	}()

	var runErr error
	select {
	case runErr = <-errChan:
		stop()
		<-pollDone
	case runErr = <-pollDone:
		stop()
	}
	<-schedulerDone

	c.logger.Info("shutting down")
	return runErr
}

// handler adapts the bot to Poll. Updates are handled in order and a failed
// update is logged and skipped.
func (c *pollCommander) handler(a *agent.Agent) func(context.Context, telegram.Update) {
	return func(ctx context.Context, u telegram.Update) {
		if err := a.Bot.HandleUpdate(ctx, u); err != nil {
			c.logger.Error("handling update", "update_id", u.UpdateID, "error", err)
		}
	}
}
