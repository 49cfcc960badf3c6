// Package testutils holds test doubles shared across package suites.
package testutils

import (
	"context"
	"sync"

	"github.com/emilwagman/Ambient-AI/pkg/llm"
)

// MockCompleter is a scripted llm.Completer that records every request.
type MockCompleter struct {
	mu sync.Mutex

	// Responses are returned per tier. A tier with no entry returns "".
	Responses map[llm.Tier]string

	// Errors are returned per tier and win over Responses.
	Errors map[llm.Tier]error

	// PanicOn makes Complete panic for the given tier.
	PanicOn llm.Tier

	// Block, when set, is received from before answering.
	Block chan struct{}

	calls []llm.Request
}

// NewMockCompleter creates a completer with no scripted responses.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		Responses: make(map[llm.Tier]string),
		Errors:    make(map[llm.Tier]error),
	}
}

// Respond scripts the response for a tier and returns the completer.
func (m *MockCompleter) Respond(tier llm.Tier, text string) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[tier] = text
	return m
}

// Fail scripts an error for a tier and returns the completer.
func (m *MockCompleter) Fail(tier llm.Tier, err error) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[tier] = err
	return m
}

// Complete records req and returns the scripted result.
func (m *MockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	block := m.Block
	panicOn := m.PanicOn
	err := m.Errors[req.Tier]
	resp := m.Responses[req.Tier]
	m.mu.Unlock()

	if panicOn != "" && panicOn == req.Tier {
		panic("mock completer: scripted panic")
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

// Calls returns a copy of every recorded request.
func (m *MockCompleter) Calls() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsFor returns the number of recorded requests for tier.
func (m *MockCompleter) CallsFor(tier llm.Tier) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Tier == tier {
			n++
		}
	}
	return n
}
