package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

// UpdateHandler processes Telegram updates delivered to the webhook.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update) error
}

// Server is the API server for the agent
type Server struct {
	config  Config
	store   *memory.Store
	updates UpdateHandler
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. updates may be nil, in which case the
// webhook route is not registered. mcpHandler may be nil to disable /mcp.
func NewServer(config Config, store *memory.Store, updates UpdateHandler, mcpHandler http.Handler, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("memory store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Mode == "" {
		config.Mode = "webhook"
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		store:   store,
		updates: updates,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/memory", s.handleListMemory)
	app.Get("/memory/:name", s.handleGetMemory)
	app.Get("/journal", s.handleJournal)

	if updates != nil {
		app.Post("/telegram", s.handleTelegram)
	}
	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mode", s.config.Mode,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
