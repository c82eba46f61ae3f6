package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"smithagency/internal/adapters/email"
	"smithagency/internal/adapters/events"
	"smithagency/internal/domain/outbox"
)

func newTestProcessor(store *mockOutboxStore, sender *mockSender, pub *mockPublisher, now time.Time) *OutboxProcessor {
	p := NewOutboxProcessor(store, map[string]ActionExecutor{
		outbox.ActionTypeEmail: &EmailExecutor{Sender: sender},
		outbox.ActionTypeEvent: &EventExecutor{Publisher: pub},
	})
	p.now = func() time.Time { return now }
	return p
}

func mustEntry(t *testing.T, id, actionType string, payload any) outbox.Entry {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	e, err := outbox.NewEntry(id, actionType, string(body), fixedTime)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

// TestOutboxProcessor_DeliversDeferredActions replays an email and an event.
func TestOutboxProcessor_DeliversDeferredActions(t *testing.T) {
	store := newMockOutboxStore()
	store.entries["ob-1"] = mustEntry(t, "ob-1", outbox.ActionTypeEmail, email.SendRequest{To: []string{"buyer@brand.example"}, Subject: "Booking received: Atlanta Market"})
	store.entries["ob-2"] = mustEntry(t, "ob-2", outbox.ActionTypeEvent, events.Event{ID: "ev-1", Type: events.TypeBookingMaterialized, ResourceID: "bk-1"})
	sender := &mockSender{}
	pub := &mockPublisher{}

	n, err := newTestProcessor(store, sender, pub, fixedTime).ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("attempted = %d, want 2", n)
	}
	if len(sender.sent) != 1 || sender.sent[0].Subject != "Booking received: Atlanta Market" {
		t.Errorf("sent = %+v", sender.sent)
	}
	if len(pub.published) != 1 || pub.published[0].ResourceID != "bk-1" {
		t.Errorf("published = %+v", pub.published)
	}
	for id, e := range store.entries {
		if e.Status != outbox.StatusDone {
			t.Errorf("%s status = %s", id, e.Status)
		}
	}
	if store.entries["ob-2"].ExternalID != "ev-1" {
		t.Errorf("ExternalID = %q", store.entries["ob-2"].ExternalID)
	}
}

// TestOutboxProcessor_BacksOff skips entries whose retry is not yet due.
func TestOutboxProcessor_BacksOff(t *testing.T) {
	store := newMockOutboxStore()
	store.entries["ob-1"] = mustEntry(t, "ob-1", outbox.ActionTypeEvent, events.Event{ID: "ev-1", Type: events.TypeBookingFinalCharged})
	pub := &mockPublisher{err: errors.New("broker down")}

	p := newTestProcessor(store, &mockSender{}, pub, fixedTime)
	if n, _ := p.ProcessPending(context.Background()); n != 1 {
		t.Fatalf("first pass attempted %d", n)
	}
	e := store.entries["ob-1"]
	if e.Attempts != 1 || e.Status != outbox.StatusRetrying || e.ErrorMessage == "" {
		t.Fatalf("unexpected entry after failure: %+v", e)
	}

	p.now = func() time.Time { return fixedTime.Add(10 * time.Second) }
	if n, _ := p.ProcessPending(context.Background()); n != 0 {
		t.Errorf("expected backoff to skip entry, attempted %d", n)
	}

	pub.err = nil
	p.now = func() time.Time { return fixedTime.Add(2 * time.Minute) }
	if n, _ := p.ProcessPending(context.Background()); n != 1 {
		t.Errorf("expected retry after backoff, attempted %d", n)
	}
	if store.entries["ob-1"].Status != outbox.StatusDone {
		t.Errorf("status = %s", store.entries["ob-1"].Status)
	}
}

// TestOutboxProcessor_ProcessSingleAndAbandon covers the operator actions.
func TestOutboxProcessor_ProcessSingleAndAbandon(t *testing.T) {
	store := newMockOutboxStore()
	store.entries["ob-1"] = mustEntry(t, "ob-1", outbox.ActionTypeEmail, email.SendRequest{To: []string{"a@b.example"}})
	store.entries["ob-2"] = mustEntry(t, "ob-2", "sms", "hello")
	p := newTestProcessor(store, &mockSender{}, &mockPublisher{}, fixedTime)

	if err := p.AbandonEntry(context.Background(), "ob-1"); err != nil {
		t.Fatalf("AbandonEntry: %v", err)
	}
	if err := p.ProcessSingle(context.Background(), "ob-1"); !errors.Is(err, outbox.ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}

	if err := p.ProcessSingle(context.Background(), "ob-2"); err != nil {
		t.Fatalf("ProcessSingle: %v", err)
	}
	if msg := store.entries["ob-2"].ErrorMessage; msg == "" {
		t.Error("expected missing-executor error recorded")
	}
	if err := p.ProcessSingle(context.Background(), "missing"); !errors.Is(err, outbox.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}
