// Package llm is the model-call boundary for the agent.
//
// Callers describe a call with a Request naming a Tier. Implementations of
// Completer map tiers to concrete models: the cheap tier serves thinking and
// synthesis, the quality tier serves chat replies and composed outreach.
package llm

import (
	"context"
	"errors"
)

// Tier selects the model used for a call.
type Tier string

const (
	// TierChat is the quality tier for replies and outreach.
	TierChat Tier = "chat"

	// TierSynthesis is the cheap tier for memory consolidation.
	TierSynthesis Tier = "synthesis"

	// TierThinking is the cheap tier for the autonomy decision.
	TierThinking Tier = "thinking"
)

// Token caps per call site.
const (
	ChatMaxTokens      = 2048
	SynthesisMaxTokens = 4096
	ThinkingMaxTokens  = 1024
	OutreachMaxTokens  = 1024
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role
	Content string
}

// NewTextMessage creates a message with the given role and content.
func NewTextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Request describes one completion call.
type Request struct {
	Tier Tier

	// System is sent as a leading system message when non-empty.
	System string

	Messages  []Message
	MaxTokens int
}

// Completer performs a completion and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	// ErrModelUnavailable wraps any failed model call.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrRateLimited is returned when the provider throttles the caller.
	ErrRateLimited = errors.New("model rate limited")
)
