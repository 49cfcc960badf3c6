package eventstream

import (
	"context"
	"log/slog"
)

// Publisher publishes agent events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Emit publishes event and logs a failure instead of returning it. Event
// delivery never fails the operation that produced the event.
func Emit(ctx context.Context, p Publisher, event *Event, log *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil && log != nil {
		log.Warn("publishing event failed",
			"event_type", event.EventType,
			"event_id", event.EventID,
			"error", err,
		)
	}
}
