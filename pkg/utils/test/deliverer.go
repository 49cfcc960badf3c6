package testutils

import (
	"context"
	"errors"
	"sync"
)

// ErrMockDelivery is returned for recipients listed in MockDeliverer.FailFor.
var ErrMockDelivery = errors.New("mock delivery failed")

// Delivery is one recorded send.
type Delivery struct {
	RecipientID int64
	Text        string
}

// MockDeliverer is an outbound.Deliverer that records sends.
type MockDeliverer struct {
	mu sync.Mutex

	// FailFor lists recipients whose deliveries fail.
	FailFor map[int64]bool

	// PanicFor lists recipients whose deliveries panic.
	PanicFor map[int64]bool

	deliveries []Delivery
	attempts   int
}

// NewMockDeliverer creates a deliverer that accepts every send.
func NewMockDeliverer() *MockDeliverer {
	return &MockDeliverer{
		FailFor:  make(map[int64]bool),
		PanicFor: make(map[int64]bool),
	}
}

// Deliver records a successful send or returns ErrMockDelivery.
func (m *MockDeliverer) Deliver(_ context.Context, recipientID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.PanicFor[recipientID] {
		panic("mock deliverer: scripted panic")
	}
	if m.FailFor[recipientID] {
		return ErrMockDelivery
	}
	m.deliveries = append(m.deliveries, Delivery{RecipientID: recipientID, Text: text})
	return nil
}

// Deliveries returns a copy of every successful send.
func (m *MockDeliverer) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

// Attempts returns the number of Deliver calls, failed ones included.
func (m *MockDeliverer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// TextsFor returns the texts delivered to recipientID in order.
func (m *MockDeliverer) TextsFor(recipientID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, d := range m.deliveries {
		if d.RecipientID == recipientID {
			out = append(out, d.Text)
		}
	}
	return out
}
