// Package consolidate folds finished conversations into durable memory.
//
// Every consolidation, whatever triggered it, passes through one process-wide
// critical section so at most one run writes documents at a time. Callers
// queue on the section rather than being deduplicated.
package consolidate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/emilwagman/Ambient-AI/pkg/eventstream"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/metrics"
	"github.com/emilwagman/Ambient-AI/pkg/prompts"
	"github.com/emilwagman/Ambient-AI/pkg/utils"
)

// Triggers label what started a consolidation.
const (
	TriggerExpiry    = "expiry"
	TriggerThreshold = "threshold"
	TriggerManual    = "manual"
)

// Config configures an Engine.
type Config struct {
	Store     *memory.Store
	Completer llm.Completer

	// Publisher receives an ambient.memory.consolidated event per run.
	// Optional.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Request is one consolidation.
type Request struct {
	Trigger string

	// Conversation is the rendered session text.
	Conversation string

	// FullContext is the memory context shown to the model. When empty, the
	// store's full context is loaded inside the critical section, so a run
	// queued behind another sees the documents the earlier run wrote.
	FullContext string
}

// Outcome reports what a consolidation did.
type Outcome struct {
	Applied      []memory.Document
	Rejected     []string
	ParseFailure bool
	Reasoning    string
}

// Engine runs consolidations one at a time.
type Engine struct {
	store     *memory.Store
	completer llm.Completer
	publisher eventstream.Publisher
	logger    *slog.Logger

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

type synthesis struct {
	Updates   map[string]json.RawMessage `json:"updates"`
	Reasoning string                     `json:"reasoning"`
}

// New creates an Engine.
func New(c Config) (*Engine, error) {
	if c.Store == nil {
		return nil, errors.New("consolidate: store is required")
	}
	if c.Completer == nil {
		return nil, errors.New("consolidate: completer is required")
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Engine{
		store:     c.Store,
		completer: c.Completer,
		publisher: c.Publisher,
		logger:    log,
		sem:       semaphore.NewWeighted(1),
	}, nil
}

// Consolidate runs one synthesis call and applies its updates. The identity
// document is never written and unknown document names are skipped one by
// one. An unparseable model response applies nothing and is not an error.
// Model call and storage failures are returned.
func (e *Engine) Consolidate(ctx context.Context, req Request) (*Outcome, error) {
	log := e.logger.With("consolidation_id", uuid.NewString(), "trigger", req.Trigger)

	waitStart := time.Now()
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("consolidate: waiting for section: %w", err)
	}
	defer e.sem.Release(1)
	metrics.ConsolidationWait.Observe(time.Since(waitStart).Seconds())

	outcome, err := e.run(ctx, log, req)
	switch {
	case err != nil:
		metrics.Consolidations.WithLabelValues(req.Trigger, "error").Inc()
		log.Error("consolidation failed", "error", err)
	case outcome.ParseFailure:
		metrics.Consolidations.WithLabelValues(req.Trigger, "parse_failure").Inc()
	default:
		metrics.Consolidations.WithLabelValues(req.Trigger, "applied").Inc()
		log.Info("consolidation complete",
			"applied", len(outcome.Applied),
			"rejected", len(outcome.Rejected),
			"reasoning", outcome.Reasoning,
		)
	}

	if outcome != nil {
		e.emit(ctx, req.Trigger, outcome)
	}
	return outcome, err
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, req Request) (*Outcome, error) {
	fullContext := req.FullContext
	if fullContext == "" {
		loaded, err := e.store.LoadFullContext()
		if err != nil {
			return nil, err
		}
		fullContext = loaded
	}

	raw, err := e.completer.Complete(ctx, llm.Request{
		Tier: llm.TierSynthesis,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, prompts.Synthesis(fullContext, req.Conversation)),
		},
		MaxTokens: llm.SynthesisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("consolidate: synthesis call: %w", err)
	}

	res := llm.ParseJSON[synthesis](raw)
	if !res.OK() {
		log.Error("unparseable synthesis response",
			"error", res.Err(),
			"raw", utils.Truncate(res.Raw(), 500),
		)
		return &Outcome{ParseFailure: true}, nil
	}

	parsed := res.Value()
	outcome := &Outcome{Reasoning: parsed.Reasoning}

	// Stable write order.
	names := make([]string, 0, len(parsed.Updates))
	for name := range parsed.Updates {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		doc, err := memory.ParseDocument(name)
		if err != nil {
			log.Warn("skipping unknown document", "document", name)
			outcome.Rejected = append(outcome.Rejected, name)
			continue
		}
		if doc == memory.Identity {
			log.Warn("skipping identity rewrite", "document", name)
			outcome.Rejected = append(outcome.Rejected, name)
			continue
		}

		content, ok := documentContent(parsed.Updates[name])
		if !ok {
			log.Warn("skipping non-string document content", "document", name)
			outcome.Rejected = append(outcome.Rejected, name)
			continue
		}

		if err := e.store.WriteDocument(name, content); err != nil {
			return outcome, err
		}
		metrics.DocumentsWritten.WithLabelValues(string(doc)).Inc()
		outcome.Applied = append(outcome.Applied, doc)
		log.Info("memory document updated", "document", name)
	}

	return outcome, nil
}

// documentContent decodes one update value. Only JSON strings are content;
// null, numbers and objects are not.
func documentContent(raw json.RawMessage) (string, bool) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return "", false
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", false
	}
	return content, true
}

// Go runs Consolidate in a detached goroutine with its own error boundary.
// The caller does not wait; failures and panics are logged. The run is not
// cancelled when ctx is.
func (e *Engine) Go(ctx context.Context, req Request) {
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("consolidation panicked", "trigger", req.Trigger, "panic", r)
			}
		}()

		_, _ = e.Consolidate(ctx, req)
	}()
}

// Wait blocks until every run started with Go has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) emit(ctx context.Context, trigger string, outcome *Outcome) {
	if e.publisher == nil {
		return
	}

	applied := make([]string, 0, len(outcome.Applied))
	for _, d := range outcome.Applied {
		applied = append(applied, string(d))
	}

	event := eventstream.NewEvent(eventstream.EventTypeMemoryConsolidated, trigger)
	event.Consolidation = &eventstream.ConsolidationPayload{
		Applied:      applied,
		Rejected:     outcome.Rejected,
		ParseFailure: outcome.ParseFailure,
		Reasoning:    outcome.Reasoning,
	}
	eventstream.Emit(ctx, e.publisher, event, e.logger)
}
