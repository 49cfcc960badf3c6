package session

import (
	"sync"
	"time"
)

// Tracker owns one Session per user id for the life of the process.
type Tracker struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewTracker returns an empty tracker. A nil clock means time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		sessions: make(map[int64]*Session),
		now:      now,
	}
}

// Get returns the session for userID, creating it on first use.
func (t *Tracker) Get(userID int64) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		s = New(t.now)
		t.sessions[userID] = s
	}
	return s
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
