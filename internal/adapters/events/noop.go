package events

import (
	"context"
	"log/slog"
)

// NoopPublisher logs events without delivering them. Used when no broker is configured.
type NoopPublisher struct{}

// Publish logs the event.
func (NoopPublisher) Publish(_ context.Context, ev Event) error {
	slog.Info("noop_event_publish", "type", ev.Type, "id", ev.ID, "resource_id", ev.ResourceID)
	return nil
}
