package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLog subscribes a structured audit line to every workflow event.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")
	for _, eventType := range TransitionEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			audit.InfoContext(ctx, "work hour record event",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}
