package api

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

const (
	defaultJournalDays = 7
	maxJournalDays     = 90
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// DocumentResponse is one memory document.
type DocumentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// JournalResponse is the body of /journal.
type JournalResponse struct {
	Days    int    `json:"days"`
	Journal string `json:"journal"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleHealth reports liveness and the transport mode.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok", Mode: s.config.Mode})
}

// handleTelegram decodes a webhook update and hands it to the bot. Only an
// undecodable body is answered with 500. Once the bot has seen an update it
// is acknowledged even if handling failed, since a redelivery would replay
// the turn into the session.
func (s *Server) handleTelegram(c *fiber.Ctx) error {
	var update telegram.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		s.logger.Error("webhook error: decoding update", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("error")
	}

	if err := s.updates.HandleUpdate(c.UserContext(), update); err != nil {
		s.logger.Error("handling update", "update_id", update.UpdateID, "error", err)
	}

	return c.SendString("ok")
}

// handleListMemory returns every memory document in context order.
func (s *Server) handleListMemory(c *fiber.Ctx) error {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		s.logger.Error("reading memory failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read memory"})
	}

	docs := make([]DocumentResponse, 0, len(memory.Documents))
	for _, d := range memory.Documents {
		docs = append(docs, DocumentResponse{Name: string(d), Content: snapshot[d]})
	}

	return c.JSON(map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

// handleGetMemory returns a single memory document by name.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	name := c.Params("name")
	content, err := s.store.ReadDocument(name)
	if err != nil {
		if errors.Is(err, memory.ErrUnknownDocument) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "unknown document"})
		}
		s.logger.Error("reading memory document failed", "document", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read document"})
	}

	return c.JSON(DocumentResponse{Name: name, Content: content})
}

// handleJournal returns the journal for the last ?days=N days.
func (s *Server) handleJournal(c *fiber.Ctx) error {
	days := defaultJournalDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJournalDays {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "days must be between 1 and 90"})
		}
		days = n
	}

	journal, err := s.store.RecentJournal(days)
	if err != nil {
		s.logger.Error("reading journal failed", "days", days, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read journal"})
	}

	return c.JSON(JournalResponse{Days: days, Journal: journal})
}
