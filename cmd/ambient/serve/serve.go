// Package servecmder provides the serve command, which runs the agent with
// Telegram delivering updates to an HTTP webhook.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilwagman/Ambient-AI/cmd/ambient/agent"
	"github.com/emilwagman/Ambient-AI/pkg/config"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
)

type ServeCommander struct {
	cfg     *config.Config
	debug   bool
	logFile string
	logger  *slog.Logger
}

const serveLongDesc string = `Run the agent in webhook mode.

Starts the HTTP server (webhook, health, metrics, memory inspection and MCP),
registers <webhook-url>/telegram with Telegram and runs the autonomy
scheduler until SIGINT or SIGTERM. Pass --log-file to keep a JSON copy of
the logs next to the console output.

Use "ambient poll" for local development without a public URL.`

const serveShortDesc string = "Run the agent with a Telegram webhook"

// webhookPath is the route the api server registers for updates.
const webhookPath = "/telegram"

const shutdownTimeout = 10 * time.Second

var serveFlags = append([]string{config.FlagWebhookURL}, agent.RunFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.cfg, err = agent.LoadConfig(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	agent.AddFlags(cmd, serveFlags)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	log, logCloser, err := logger.Open(os.Stdout, c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	c.logger = log

	webhookURL, err := WebhookEndpoint(c.cfg.Telegram.WebhookURL)
	if err != nil {
		return err
	}

	a, err := agent.New(c.cfg, c.logger, agent.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Error("closing agent", "error", err)
		}
	}()

	server, err := a.APIServer(agent.ModeWebhook)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if err := a.Telegram.SetWebhook(ctx, webhookURL); err != nil {
		_ = server.Shutdown()
		return fmt.Errorf("registering webhook: %w", err)
	}
	c.logger.Info("webhook registered", "url", webhookURL)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := a.Start(ctx); err != nil {
			errChan <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	<-schedulerDone

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cleanupCancel()
	if err := a.Telegram.DeleteWebhook(cleanupCtx); err != nil {
		c.logger.Warn("removing webhook", "error", err)
	}
	if err := server.Shutdown(); err != nil {
		c.logger.Warn("shutting down api server", "error", err)
	}

	return runErr
}

// WebhookEndpoint turns the configured public base URL into the full
// webhook address.
func WebhookEndpoint(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("webhook url is required in webhook mode (set telegram.webhook_url or use \"ambient poll\")")
	}
	if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
		return "", fmt.Errorf("webhook url %q must start with https://", base)
	}
	return strings.TrimSuffix(base, "/") + webhookPath, nil
}
