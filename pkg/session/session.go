// Package session tracks per-user conversational state in memory.
//
// A Session is an ordered list of turns plus a last-activity time and a turn
// counter since the last consolidation. Sessions are volatile: a restart
// starts everyone fresh while long-term memory lives in the document store.
package session

import (
	"strings"
	"sync"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Session is safe for concurrent use.
type Session struct {
	mu           sync.Mutex
	turns        []Turn
	lastActivity time.Time
	counter      int
	now          func() time.Time
}

// New returns an empty session. A nil clock means time.Now.
func New(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		lastActivity: now(),
		now:          now,
	}
}

// AddMessage appends a turn, marks activity and bumps the turn counter.
func (s *Session) AddMessage(role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{Role: role, Text: text})
	s.lastActivity = s.now()
	s.counter++
}

// IsExpired reports whether the session has turns and has been idle for
// longer than timeout. An empty session never expires.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) == 0 {
		return false
	}
	return s.now().Sub(s.lastActivity) > timeout
}

// ConversationText renders the turns in order as labeled paragraphs.
func (s *Session) ConversationText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, len(s.turns))
	for _, t := range s.turns {
		lines = append(lines, label(t.Role)+": "+t.Text)
	}
	return strings.Join(lines, "\n\n")
}

// Turns returns a copy of the turn history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns held.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Counter returns the number of turns added since the last consolidation.
func (s *Session) Counter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// LastActivity returns the time of the last added turn or clear.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ThresholdReached reports whether the counter has reached threshold and,
// if so, resets it to zero. History is kept. It returns true at most once
// per threshold crossing.
func (s *Session) ThresholdReached(threshold int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threshold <= 0 || s.counter < threshold {
		return false
	}
	s.counter = 0
	return true
}

// Clear wipes the turns, resets the counter and marks activity now.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.counter = 0
	s.lastActivity = s.now()
}

func label(r Role) string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}
