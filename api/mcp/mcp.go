// Package mcp provides a read-only MCP (Model Context Protocol) server over
// the agent's memory documents and journal.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/utils"
)

type Config struct {
	// Store is the memory the tools read from
	Store *memory.Store

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ambient",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Store == nil {
			return nil, errors.New("memory store is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        memoryReadToolName,
			Description: memoryReadDescription,
		}, s.handleMemoryRead)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        journalRecentToolName,
			Description: journalRecentDescription,
		}, s.handleJournalRecent)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
