// Package autonomy runs the periodic think-then-maybe-reach-out cycle.
//
// A cycle passes through a fixed sequence of gates: quiet hours, a cheap
// thinking call, its journal and queue side effects, the model's own
// decision, the reply/outreach cooldown, the daily quota, a quality
// composition call and finally delivery. Any gate can end the cycle without
// error. Outreach bookkeeping only changes after at least one recipient
// received the message.
package autonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilwagman/Ambient-AI/pkg/eventstream"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/metrics"
	"github.com/emilwagman/Ambient-AI/pkg/outbound"
	"github.com/emilwagman/Ambient-AI/pkg/prompts"
	"github.com/emilwagman/Ambient-AI/pkg/utils"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeQuietHours     Outcome = "quiet_hours"
	OutcomeParseFailure   Outcome = "parse_failure"
	OutcomeNoMessage      Outcome = "no_message"
	OutcomeCooldown       Outcome = "cooldown"
	OutcomeQuota          Outcome = "quota"
	OutcomeNoRecipients   Outcome = "no_recipients"
	OutcomeSent           Outcome = "sent"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeError          Outcome = "error"
)

// defaultReason is used when the model asks to message without saying why.
const defaultReason = "autonomy loop trigger"

// Config configures a Scheduler.
type Config struct {
	Store     *memory.Store
	Completer llm.Completer
	Deliverer outbound.Deliverer
	State     *State

	// Recipients receive proactive messages.
	Recipients []int64

	Interval        time.Duration
	QuietHoursStart int
	QuietHoursEnd   int
	Cooldown        time.Duration
	MaxPerDay       int

	// Publisher receives journal and outreach events. Optional.
	Publisher eventstream.Publisher

	Logger *slog.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler runs autonomy cycles on a fixed interval.
type Scheduler struct {
	store      *memory.Store
	completer  llm.Completer
	deliverer  outbound.Deliverer
	state      *State
	recipients []int64

	interval        time.Duration
	quietHoursStart int
	quietHoursEnd   int
	cooldown        time.Duration
	maxPerDay       int

	publisher eventstream.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// decision is the thinking call's structured answer.
type decision struct {
	ShouldMessage bool   `json:"should_message"`
	MessageReason string `json:"message_reason"`
	JournalEntry  string `json:"journal_entry"`
	QueueUpdates  string `json:"queue_updates"`
	Reasoning     string `json:"reasoning"`
}

// New creates a Scheduler.
func New(c Config) (*Scheduler, error) {
	if c.Store == nil {
		return nil, errors.New("autonomy: store is required")
	}
	if c.Completer == nil {
		return nil, errors.New("autonomy: completer is required")
	}
	if c.Deliverer == nil {
		return nil, errors.New("autonomy: deliverer is required")
	}
	if c.Interval <= 0 {
		return nil, errors.New("autonomy: interval must be positive")
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}
	state := c.State
	if state == nil {
		state = NewState(now)
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Scheduler{
		store:           c.Store,
		completer:       c.Completer,
		deliverer:       c.Deliverer,
		state:           state,
		recipients:      c.Recipients,
		interval:        c.Interval,
		quietHoursStart: c.QuietHoursStart,
		quietHoursEnd:   c.QuietHoursEnd,
		cooldown:        c.Cooldown,
		maxPerDay:       c.MaxPerDay,
		publisher:       c.Publisher,
		logger:          log,
		now:             now,
	}, nil
}

// State returns the outreach state the scheduler gates on.
func (s *Scheduler) State() *State {
	return s.state
}

// Run fires a cycle every interval until ctx is done. The first cycle runs
// one interval after Run starts. A cycle in flight when ctx ends runs to
// completion before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("autonomy scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("autonomy scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunCycle(context.WithoutCancel(ctx))
		}
	}
}

// RunCycle runs one cycle and returns how it ended. It never panics and
// never returns an error: failures end the cycle with OutcomeError.
func (s *Scheduler) RunCycle(ctx context.Context) (outcome Outcome) {
	log := s.logger.With("cycle_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.Error("autonomy cycle panicked", "panic", r)
			outcome = OutcomeError
		}
		metrics.AutonomyCycles.WithLabelValues(string(outcome)).Inc()
	}()

	outcome, err := s.cycle(ctx, log)
	if err != nil {
		log.Error("autonomy cycle failed", "error", err)
		return OutcomeError
	}
	return outcome
}

func (s *Scheduler) cycle(ctx context.Context, log *slog.Logger) (Outcome, error) {
	now := s.now().UTC()
	log.Debug("autonomy cycle starting", "time", now.Format(prompts.TimeLayout))

	if InQuietHours(now.Hour(), s.quietHoursStart, s.quietHoursEnd) {
		log.Info("autonomy cycle skipped: quiet hours",
			"hour", now.Hour(),
			"start", s.quietHoursStart,
			"end", s.quietHoursEnd,
		)
		return OutcomeQuietHours, nil
	}

	d, ok, err := s.think(ctx, log, now)
	if err != nil {
		return OutcomeError, err
	}
	if !ok {
		return OutcomeParseFailure, nil
	}

	if err := s.applySideEffects(ctx, log, d); err != nil {
		return OutcomeError, err
	}

	if !d.ShouldMessage {
		log.Info("autonomy cycle complete: no message", "reasoning", d.Reasoning)
		return OutcomeNoMessage, nil
	}

	if s.state.CooldownActive(s.cooldown) {
		log.Info("outreach suppressed: cooldown active", "cooldown", s.cooldown.String())
		return OutcomeCooldown, nil
	}

	if s.state.DailyLimitReached(s.maxPerDay) {
		log.Info("outreach suppressed: daily limit reached", "max_per_day", s.maxPerDay)
		return OutcomeQuota, nil
	}

	if len(s.recipients) == 0 {
		log.Warn("outreach not sent: no recipients configured")
		return OutcomeNoRecipients, nil
	}

	reason := strings.TrimSpace(d.MessageReason)
	if reason == "" {
		reason = defaultReason
	}

	message, err := s.compose(ctx, now, reason)
	if err != nil {
		return OutcomeError, err
	}

	delivered := outbound.Broadcast(ctx, s.deliverer, s.recipients, message, log)
	metrics.Deliveries.WithLabelValues("outreach", "ok").Add(float64(delivered))
	metrics.Deliveries.WithLabelValues("outreach", "error").Add(float64(len(s.recipients) - delivered))
	if delivered == 0 {
		log.Error("outreach not delivered to any recipient", "recipients", len(s.recipients))
		return OutcomeDeliveryFailed, nil
	}

	count := s.state.RecordOutreach()
	log.Info("outreach sent",
		"reason", reason,
		"delivered", delivered,
		"recipients", len(s.recipients),
		"count_today", count,
	)

	event := eventstream.NewEvent(eventstream.EventTypeOutreachSent, "autonomy")
	event.Outreach = &eventstream.OutreachPayload{
		Reason:     reason,
		Recipients: len(s.recipients),
		Delivered:  delivered,
		CountToday: count,
	}
	eventstream.Emit(ctx, s.publisher, event, log)

	return OutcomeSent, nil
}

func (s *Scheduler) think(ctx context.Context, log *slog.Logger, now time.Time) (decision, bool, error) {
	lightweight, err := s.store.LoadLightweightContext()
	if err != nil {
		return decision{}, false, err
	}

	raw, err := s.completer.Complete(ctx, llm.Request{
		Tier: llm.TierThinking,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, prompts.Thinking(lightweight, now, s.state.HoursSinceLastMessage())),
		},
		MaxTokens: llm.ThinkingMaxTokens,
	})
	if err != nil {
		return decision{}, false, fmt.Errorf("autonomy: thinking call: %w", err)
	}

	res := llm.ParseJSON[decision](raw)
	if !res.OK() {
		log.Error("unparseable thinking response",
			"error", res.Err(),
			"raw", utils.Truncate(res.Raw(), 500),
		)
		return decision{}, false, nil
	}
	return res.Value(), true, nil
}

func (s *Scheduler) applySideEffects(ctx context.Context, log *slog.Logger, d decision) error {
	if entry := strings.TrimSpace(d.JournalEntry); entry != "" {
		path, err := s.store.AppendJournal(entry)
		if err != nil {
			return err
		}
		log.Info("journal entry written", "path", path)

		event := eventstream.NewEvent(eventstream.EventTypeJournalAppended, "autonomy")
		event.Journal = &eventstream.JournalPayload{
			Date:  s.now().UTC().Format(DateLayout),
			Path:  path,
			Chars: len([]rune(entry)),
		}
		eventstream.Emit(ctx, s.publisher, event, log)
	}

	if strings.TrimSpace(d.QueueUpdates) != "" {
		if err := s.store.WriteDocument(string(memory.Queue), d.QueueUpdates); err != nil {
			return err
		}
		metrics.DocumentsWritten.WithLabelValues(string(memory.Queue)).Inc()
		log.Info("queue updated by autonomy cycle")
	}
	return nil
}

func (s *Scheduler) compose(ctx context.Context, now time.Time, reason string) (string, error) {
	fullContext, err := s.store.LoadFullContext()
	if err != nil {
		return "", err
	}

	message, err := s.completer.Complete(ctx, llm.Request{
		Tier:   llm.TierChat,
		System: prompts.Outreach(fullContext, now, reason),
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, prompts.ComposeInstruction),
		},
		MaxTokens: llm.OutreachMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("autonomy: compose call: %w", err)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("autonomy: compose returned an empty message")
	}
	return message, nil
}
