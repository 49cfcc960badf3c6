package eventstream

import (
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryConsolidated is emitted after a consolidation run,
	// including runs that applied nothing.
	EventTypeMemoryConsolidated = "ambient.memory.consolidated"

	// EventTypeJournalAppended is emitted after a journal entry is written.
	EventTypeJournalAppended = "ambient.journal.appended"

	// EventTypeOutreachSent is emitted after a proactive message reached at
	// least one recipient.
	EventTypeOutreachSent = "ambient.outreach.sent"
)

// Event is a transport-neutral envelope. Exactly one payload is set,
// matching EventType.
type Event struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`

	Consolidation *ConsolidationPayload `json:"consolidation,omitempty"`
	Journal       *JournalPayload       `json:"journal,omitempty"`
	Outreach      *OutreachPayload      `json:"outreach,omitempty"`
}

// EventSource identifies the emitting process and the path that caused the
// event.
type EventSource struct {
	Host    string `json:"host,omitempty"`
	Trigger string `json:"trigger"`
}

// ConsolidationPayload describes one consolidation run.
type ConsolidationPayload struct {
	Applied      []string `json:"applied"`
	Rejected     []string `json:"rejected,omitempty"`
	ParseFailure bool     `json:"parse_failure"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// JournalPayload describes an appended journal entry.
type JournalPayload struct {
	Date  string `json:"date"`
	Path  string `json:"path"`
	Chars int    `json:"chars"`
}

// OutreachPayload describes a delivered proactive message.
type OutreachPayload struct {
	Reason     string `json:"reason"`
	Recipients int    `json:"recipients"`
	Delivered  int    `json:"delivered"`
	CountToday int    `json:"count_today"`
}

// NewEvent returns an envelope with a fresh id and timestamp.
func NewEvent(eventType, trigger string) *Event {
	host, _ := os.Hostname()
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			Host:    host,
			Trigger: trigger,
		},
	}
}
