package testutils

import (
	"context"
	"sync"

	"github.com/emilwagman/Ambient-AI/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.Event

	// Err is returned from Publish when set.
	Err error
}

// NewMockPublisher creates a recording publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records event.
func (m *MockPublisher) Publish(_ context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

// Close is a no-op.
func (m *MockPublisher) Close() error {
	return nil
}

// Events returns the recorded events of the given type.
func (m *MockPublisher) Events(eventType string) []*eventstream.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*eventstream.Event
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
