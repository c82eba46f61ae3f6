package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"smithagency/internal/adapters/email"
	"smithagency/internal/adapters/events"
	"smithagency/internal/domain/outbox"
)

// OutboxWriter enqueues a deferred side effect.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// SideEffectDeps are the best-effort collaborators shared by orchestrators.
// A nil Email or Events skips that side effect.
type SideEffectDeps struct {
	Email  email.Sender
	Events events.Publisher
	Outbox OutboxWriter
}

// sendEmail delivers req, enqueueing it for retry when delivery fails.
// INVARIANT: never returns an error; failures are logged
func sendEmail(ctx context.Context, deps SideEffectDeps, req email.SendRequest, genID func() string, now func() time.Time) {
	if deps.Email == nil {
		return
	}
	_, err := deps.Email.Send(ctx, req)
	if err == nil {
		return
	}
	slog.Warn("email_event", "event", "send_failed_deferred", "subject", req.Subject, "error", err.Error())
	enqueue(ctx, deps, outbox.ActionTypeEmail, req, genID, now)
}

// publishEvent publishes ev, enqueueing it for retry when the broker is unavailable.
// INVARIANT: never returns an error; failures are logged
func publishEvent(ctx context.Context, deps SideEffectDeps, ev events.Event, genID func() string, now func() time.Time) {
	if deps.Events == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = genID()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now()
	}
	err := deps.Events.Publish(ctx, ev)
	if err == nil {
		return
	}
	slog.Warn("event_publish", "event", "publish_failed_deferred", "type", ev.Type, "error", err.Error())
	enqueue(ctx, deps, outbox.ActionTypeEvent, ev, genID, now)
}

func enqueue(ctx context.Context, deps SideEffectDeps, actionType string, payload any, genID func() string, now func() time.Time) {
	if deps.Outbox == nil {
		slog.Error("outbox_event", "event", "dropped_no_outbox", "action_type", actionType)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("outbox_event", "event", "marshal_failed", "action_type", actionType, "error", err.Error())
		return
	}
	entry, err := outbox.NewEntry(genID(), actionType, string(body), now())
	if err != nil {
		slog.Error("outbox_event", "event", "invalid_entry", "action_type", actionType, "error", err.Error())
		return
	}
	if err := deps.Outbox.Save(ctx, entry); err != nil {
		slog.Error("outbox_event", "event", "enqueue_failed", "action_type", actionType, "error", err.Error())
		return
	}
	slog.Info("outbox_event", "event", "enqueued", "entry_id", entry.ID, "action_type", actionType)
}
