// Package bot is the conversational front end: it authorizes incoming
// Telegram updates, runs commands, and turns plain text into chat replies
// while deciding when a conversation is folded into long-term memory.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emilwagman/Ambient-AI/pkg/autonomy"
	"github.com/emilwagman/Ambient-AI/pkg/consolidate"
	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/memory"
	"github.com/emilwagman/Ambient-AI/pkg/metrics"
	"github.com/emilwagman/Ambient-AI/pkg/outbound"
	"github.com/emilwagman/Ambient-AI/pkg/prompts"
	"github.com/emilwagman/Ambient-AI/pkg/session"
	"github.com/emilwagman/Ambient-AI/pkg/telegram"
)

const (
	// FallbackReply is sent when the chat model call fails.
	FallbackReply = "I'm having trouble thinking right now. Give me a moment and try again."

	// ForgetReply confirms /forget.
	ForgetReply = "Session cleared. My long-term memory is still intact though."

	// StartupGreeting is sent to every allowed user when the process starts.
	StartupGreeting = "Hey, I'm online. Memory loaded, autonomy loop running. Message me anytime."

	// WelcomeText answers /start.
	WelcomeText = "Hey! I'm your always-on companion. I keep memory across our conversations " +
		"and I'm here whenever you need me.\n\n" +
		"Just message me naturally and I'll remember what we talk about.\n\n" +
		"Commands:\n" +
		"/memory - see what I remember\n" +
		"/forget - clear the current session"
)

// Config configures a Bot.
type Config struct {
	Store        *memory.Store
	Completer    llm.Completer
	Consolidator *consolidate.Engine
	Deliverer    outbound.Deliverer

	// State receives reply times so replies and outreach share one cooldown.
	State *autonomy.State

	// Sessions defaults to a new tracker.
	Sessions *session.Tracker

	// AllowedUserIDs restricts who may talk to the bot. Empty admits everyone.
	AllowedUserIDs []int64

	SessionTimeout     time.Duration
	SynthesisThreshold int

	Logger *slog.Logger
}

// Bot handles updates.
type Bot struct {
	store        *memory.Store
	completer    llm.Completer
	consolidator *consolidate.Engine
	deliverer    outbound.Deliverer
	state        *autonomy.State
	sessions     *session.Tracker

	allowed   map[int64]bool
	allowList []int64

	sessionTimeout     time.Duration
	synthesisThreshold int

	logger *slog.Logger
}

// New creates a Bot.
func New(c Config) (*Bot, error) {
	switch {
	case c.Store == nil:
		return nil, errors.New("bot: store is required")
	case c.Completer == nil:
		return nil, errors.New("bot: completer is required")
	case c.Consolidator == nil:
		return nil, errors.New("bot: consolidator is required")
	case c.Deliverer == nil:
		return nil, errors.New("bot: deliverer is required")
	case c.State == nil:
		return nil, errors.New("bot: outreach state is required")
	}

	sessions := c.Sessions
	if sessions == nil {
		sessions = session.NewTracker(nil)
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	allowed := make(map[int64]bool, len(c.AllowedUserIDs))
	for _, id := range c.AllowedUserIDs {
		allowed[id] = true
	}

	return &Bot{
		store:              c.Store,
		completer:          c.Completer,
		consolidator:       c.Consolidator,
		deliverer:          c.Deliverer,
		state:              c.State,
		sessions:           sessions,
		allowed:            allowed,
		allowList:          c.AllowedUserIDs,
		sessionTimeout:     c.SessionTimeout,
		synthesisThreshold: c.SynthesisThreshold,
		logger:             log,
	}, nil
}

// IsAuthorized reports whether userID may use the bot.
func (b *Bot) IsAuthorized(userID int64) bool {
	if len(b.allowed) == 0 {
		return true
	}
	return b.allowed[userID]
}

// HandleUpdate processes one update. Updates without text and updates from
// unauthorized users are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) error {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return nil
	}

	userID := msg.From.ID
	log := b.logger.With("user_id", userID, "update_id", u.UpdateID)
	if !b.IsAuthorized(userID) {
		log.Debug("ignoring unauthorized user")
		return nil
	}

	if command, ok := parseCommand(msg.Text); ok {
		return b.handleCommand(ctx, log, command, userID, msg.Chat.ID)
	}
	return b.handleText(ctx, log, userID, msg.Chat.ID, msg.Text)
}

// Greet sends StartupGreeting to every allowed user and returns how many
// received it.
func (b *Bot) Greet(ctx context.Context) int {
	return outbound.Broadcast(ctx, b.deliverer, b.allowList, StartupGreeting, b.logger)
}

// Sessions returns the session tracker.
func (b *Bot) Sessions() *session.Tracker {
	return b.sessions
}

func (b *Bot) handleCommand(ctx context.Context, log *slog.Logger, command string, userID, chatID int64) error {
	switch command {
	case "start":
		return b.reply(ctx, chatID, WelcomeText)

	case "memory":
		debug, err := b.store.Debug()
		if err != nil {
			return fmt.Errorf("bot: rendering memory: %w", err)
		}
		return b.reply(ctx, chatID, debug)

	case "forget":
		b.sessions.Get(userID).Clear()
		log.Info("session cleared by user")
		return b.reply(ctx, chatID, ForgetReply)

	default:
		log.Debug("ignoring unknown command", "command", command)
		return nil
	}
}

func (b *Bot) handleText(ctx context.Context, log *slog.Logger, userID, chatID int64, text string) error {
	sess := b.sessions.Get(userID)
	metrics.ActiveSessions.Set(float64(b.sessions.Len()))

	if sess.IsExpired(b.sessionTimeout) {
		log.Info("session expired, consolidating", "turns", sess.Len())
		_, err := b.consolidator.Consolidate(ctx, consolidate.Request{
			Trigger:      consolidate.TriggerExpiry,
			Conversation: sess.ConversationText(),
		})
		if err != nil {
			log.Error("expiry consolidation failed", "error", err)
		}
		sess.Clear()
	}

	sess.AddMessage(session.RoleUser, text)

	reply := b.chat(ctx, log, sess)
	sess.AddMessage(session.RoleAssistant, reply)

	sendErr := b.reply(ctx, chatID, reply)

	if sess.ThresholdReached(b.synthesisThreshold) {
		log.Info("turn threshold reached, consolidating in background", "threshold", b.synthesisThreshold)
		b.consolidator.Go(ctx, consolidate.Request{
			Trigger:      consolidate.TriggerThreshold,
			Conversation: sess.ConversationText(),
		})
	}

	return sendErr
}

func (b *Bot) chat(ctx context.Context, log *slog.Logger, sess *session.Session) string {
	fullContext, err := b.store.LoadFullContext()
	if err != nil {
		log.Error("loading memory for chat failed", "error", err)
		return FallbackReply
	}

	turns := sess.Turns()
	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == session.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.NewTextMessage(role, t.Text))
	}

	reply, err := b.completer.Complete(ctx, llm.Request{
		Tier:      llm.TierChat,
		System:    prompts.Chat(fullContext),
		Messages:  messages,
		MaxTokens: llm.ChatMaxTokens,
	})
	if err != nil {
		log.Error("chat failed", "error", err)
		return FallbackReply
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		log.Warn("chat returned an empty reply")
		return FallbackReply
	}
	return reply
}

// reply delivers text to a chat and, on success, marks the outbound time.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	if err := outbound.Send(ctx, b.deliverer, chatID, text); err != nil {
		metrics.Deliveries.WithLabelValues("reply", "error").Inc()
		return err
	}
	metrics.Deliveries.WithLabelValues("reply", "ok").Inc()
	b.state.RecordReply()
	return nil
}

// parseCommand returns the command name for text like "/memory" or
// "/memory@somebot extra".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	command, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(command), true
}
