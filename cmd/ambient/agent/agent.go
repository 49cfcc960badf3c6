// Package agent assembles the long-running agent from a resolved
// configuration. serve and poll share it and differ only in how Telegram
// updates arrive.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emilwagman/Ambient-AI/api"
	"github.com/emilwagman/Ambient-AI/api/mcp"
	"github.com/emilwagman/Ambient-AI/pkg/autonomy"
	"github.com/emilwagman/Ambient-AI/pkg/bot"
	"github.com/emilwagman/Ambient-AI/pkg/config"
	"github.com/emilwagman/Ambient-AI/pkg/consolidate"
	"github.com/emilwagman/Ambient-AI/pkg/eventstream"
	"github.com/emilwagman/Ambient-AI/pkg/eventstream/kafka"
	"github.com/emilwagman/Ambient-AI/pkg/eventstream/nop"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/llm/openrouter"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/session"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

const (
	// ModeWebhook receives updates on POST /telegram.
	ModeWebhook = "webhook"

	// ModePoll long polls getUpdates.
	ModePoll = "poll"

	modelTimeout = 2 * time.Minute
)

// Options tweaks how the agent talks to external services. The zero value
// uses the public endpoints.
type Options struct {
	// TelegramBaseURL overrides the Bot API endpoint.
	TelegramBaseURL string

	// Completer replaces the OpenRouter client.
	Completer llm.Completer
}

// Agent holds every wired component of a running agent.
type Agent struct {
	Config    *config.Config
	Store     *memory.Store
	Publisher eventstream.Publisher
	Engine    *consolidate.Engine
	State     *autonomy.State
	Scheduler *autonomy.Scheduler
	Telegram  *telegram.Client
	Bot       *bot.Bot
	MCP       *mcp.Server

	lock   *memory.Lock
	logger *slog.Logger
}

// New initializes the memory store, takes the data directory lock and wires
// every component. Call Close when done.
func New(cfg *config.Config, log *slog.Logger, opts Options) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("agent: config is required")
	}
	if log == nil {
		return nil, errors.New("agent: logger is required")
	}

	recipients, err := cfg.Telegram.UserIDs()
	if err != nil {
		return nil, fmt.Errorf("parsing allowed user ids: %w", err)
	}

	store := memory.NewStore(cfg.Storage.DataDir, memory.WithLogger(log))
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing memory: %w", err)
	}

	lock, err := store.Lock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", cfg.Storage.DataDir, err)
	}

	a := &Agent{
		Config: cfg,
		Store:  store,
		lock:   lock,
		logger: log,
	}
	if err := a.wire(recipients, opts); err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

func (a *Agent) wire(recipients []int64, opts Options) error {
	cfg := a.Config
	log := a.logger

	completer := opts.Completer
	if completer == nil {
		client, err := openrouter.New(openrouter.Config{
			APIKey:  cfg.Models.APIKey,
			BaseURL: cfg.Models.BaseURL,
			Models: map[llm.Tier]string{
				llm.TierChat:      cfg.Models.Chat,
				llm.TierSynthesis: cfg.Models.Synthesis,
				llm.TierThinking:  cfg.Models.Thinking,
			},
			Timeout: modelTimeout,
			Logger:  log.With("component", "openrouter"),
		})
		if err != nil {
			return fmt.Errorf("creating model client: %w", err)
		}
		completer = client
	}

	publisher, err := NewPublisher(cfg.EventStream, log)
	if err != nil {
		return err
	}
	a.Publisher = publisher

	a.Telegram, err = telegram.New(telegram.Config{
		Token:   cfg.Telegram.BotToken,
		BaseURL: opts.TelegramBaseURL,
		Logger:  log.With("component", "telegram"),
	})
	if err != nil {
		return fmt.Errorf("creating telegram client: %w", err)
	}

	a.Engine, err = consolidate.New(consolidate.Config{
		Store:     a.Store,
		Completer: completer,
		Publisher: publisher,
		Logger:    log.With("component", "consolidate"),
	})
	if err != nil {
		return fmt.Errorf("creating consolidation engine: %w", err)
	}

	a.State = autonomy.NewState(nil)

	a.Scheduler, err = autonomy.New(autonomy.Config{
		Store:           a.Store,
		Completer:       completer,
		Deliverer:       a.Telegram,
		State:           a.State,
		Recipients:      recipients,
		Interval:        time.Duration(cfg.Autonomy.IntervalMinutes) * time.Minute,
		QuietHoursStart: cfg.Autonomy.QuietHoursStart,
		QuietHoursEnd:   cfg.Autonomy.QuietHoursEnd,
		Cooldown:        time.Duration(cfg.Autonomy.CooldownHours * float64(time.Hour)),
		MaxPerDay:       int(cfg.Autonomy.MaxPerDay),
		Publisher:       publisher,
		Logger:          log.With("component", "autonomy"),
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	a.Bot, err = bot.New(bot.Config{
		Store:              a.Store,
		Completer:          completer,
		Consolidator:       a.Engine,
		Deliverer:          a.Telegram,
		State:              a.State,
		Sessions:           session.NewTracker(nil),
		AllowedUserIDs:     recipients,
		SessionTimeout:     time.Duration(cfg.Session.TimeoutMinutes) * time.Minute,
		SynthesisThreshold: int(cfg.Session.SynthesisThreshold),
		Logger:             log.With("component", "bot"),
	})
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	a.MCP, err = mcp.NewServer(mcp.Config{
		Store:  a.Store,
		Logger: log.With("component", "mcp"),
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	return nil
}

// APIServer builds the HTTP server for mode. Only webhook mode accepts
// updates over HTTP.
func (a *Agent) APIServer(mode string) (*api.Server, error) {
	var updates api.UpdateHandler
	if mode == ModeWebhook {
		updates = a.Bot
	}

	return api.NewServer(
		api.Config{
			ListenAddr: a.Config.Server.Listen,
			Mode:       mode,
		},
		a.Store,
		updates,
		a.MCP.Handler(),
		a.logger.With("component", "api"),
	)
}

// Start sends the startup greeting and runs the autonomy scheduler until ctx
// is done.
func (a *Agent) Start(ctx context.Context) error {
	greeted := a.Bot.Greet(ctx)
	a.logger.Info("agent started",
		"greeted", greeted,
		"interval_minutes", a.Config.Autonomy.IntervalMinutes,
	)
	return a.Scheduler.Run(ctx)
}

// Close waits for detached consolidations, closes the publisher and releases
// the data directory lock.
func (a *Agent) Close() error {
	if a.Engine != nil {
		a.Engine.Wait()
	}

	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing publisher: %w", err))
		}
	}
	if err := a.lock.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewPublisher returns the event publisher named by cfg.Provider.
func NewPublisher(cfg config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "nop", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.BrokerList(),
			Topic:   cfg.Topic,
			Logger:  log.With("component", "kafka"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event stream provider %q", cfg.Provider)
	}
}
