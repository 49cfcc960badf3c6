package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emilwagman/Ambient-AI/pkg/memory"
)

const defaultJournalDays = 7

var (
	memoryReadToolName    = "memory_read"
	memoryReadDescription = "Read the agent's long-term memory documents. Pass a document name (identity.md, user_context.md, conversation_summary.md, active_threads.md, queue.md) to read one, or leave it empty to read all of them."

	journalRecentToolName    = "journal_recent"
	journalRecentDescription = "Read the agent's journal for the most recent days, newest first."
)

// MemoryReadInput represents the input arguments for the memory_read tool.
type MemoryReadInput struct {
	Document string `json:"document,omitempty" jsonschema:"the memory document to read; empty reads every document"`
}

// MemoryDocument is one document in a memory_read result.
type MemoryDocument struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// MemoryReadOutput represents the structured output of memory_read.
type MemoryReadOutput struct {
	Documents []MemoryDocument `json:"documents"`
}

// JournalRecentInput represents the input arguments for the journal_recent tool.
type JournalRecentInput struct {
	Days int `json:"days,omitempty" jsonschema:"number of days to read, including today (default: 7)"`
}

// JournalRecentOutput represents the structured output of journal_recent.
type JournalRecentOutput struct {
	Days    int    `json:"days"`
	Journal string `json:"journal"`
}

func (s *Server) handleMemoryRead(_ context.Context, _ *mcp.CallToolRequest, input MemoryReadInput) (*mcp.CallToolResult, MemoryReadOutput, error) {
	docs := memory.Documents
	if input.Document != "" {
		d, err := memory.ParseDocument(input.Document)
		if err != nil {
			return errorResult(fmt.Sprintf("Unknown document %q", input.Document)), MemoryReadOutput{}, nil
		}
		docs = []memory.Document{d}
	}

	output := MemoryReadOutput{Documents: make([]MemoryDocument, 0, len(docs))}
	for _, d := range docs {
		content, err := s.config.Store.ReadDocument(string(d))
		if err != nil {
			s.config.Logger.Error("mcp memory read failed", "document", d, "error", err)
			return errorResult(fmt.Sprintf("Memory read failed: %v", err)), MemoryReadOutput{}, nil
		}
		output.Documents = append(output.Documents, MemoryDocument{Name: string(d), Content: content})
	}

	return jsonResult(output)
}

func (s *Server) handleJournalRecent(_ context.Context, _ *mcp.CallToolRequest, input JournalRecentInput) (*mcp.CallToolResult, JournalRecentOutput, error) {
	days := input.Days
	if days <= 0 {
		days = defaultJournalDays
	}

	journal, err := s.config.Store.RecentJournal(days)
	if err != nil {
		s.config.Logger.Error("mcp journal read failed", "days", days, "error", err)
		return errorResult(fmt.Sprintf("Journal read failed: %v", err)), JournalRecentOutput{}, nil
	}

	return jsonResult(JournalRecentOutput{Days: days, Journal: journal})
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
