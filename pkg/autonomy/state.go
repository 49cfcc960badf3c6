package autonomy

import (
	"sync"
	"time"
)

// State is the process-wide outreach bookkeeping shared by replies and
// proactive sends. It is not persisted.
type State struct {
	mu  sync.Mutex
	now func() time.Time

	lastSend   time.Time
	countToday int
	countDate  string
}

// NewState creates an empty State. A nil now uses time.Now.
func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now}
}

// RecordReply marks an outbound reply. It moves the cooldown but not the
// daily quota.
func (s *State) RecordReply() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSend = s.now().UTC()
}

// RecordOutreach marks a successful proactive send and returns today's
// count after it. A count kept for an earlier date is reset first.
func (s *State) RecordOutreach() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	today := now.Format(DateLayout)
	if s.countDate != today {
		s.countToday = 0
		s.countDate = today
	}
	s.countToday++
	s.lastSend = now
	return s.countToday
}

// LastSend returns the time of the last outbound message, zero if none.
func (s *State) LastSend() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSend
}

// Quota returns the stored proactive count and the date it applies to.
func (s *State) Quota() (count int, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countToday, s.countDate
}

// HoursSinceLastMessage is HoursSinceLastMessage against the state's clock.
func (s *State) HoursSinceLastMessage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HoursSinceLastMessage(s.lastSend, s.now())
}

// CooldownActive is CooldownActive against the state's clock.
func (s *State) CooldownActive(cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CooldownActive(s.lastSend, s.now(), cooldown)
}

// DailyLimitReached is DailyLimitReached for today's UTC date. A
// non-positive limit disables proactive sends entirely.
func (s *State) DailyLimitReached(limit int) bool {
	if limit <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return DailyLimitReached(s.countToday, s.countDate, s.now().UTC().Format(DateLayout), limit)
}
