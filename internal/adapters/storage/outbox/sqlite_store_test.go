package outbox

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/outbox"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestSQLiteStore_PendingLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := domain.NewEntry("ob-1", domain.ActionTypeEmail, `{"to":["a@example.com"]}`, fixedTime)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "ob-1" {
		t.Fatalf("unexpected pending: %+v", pending)
	}

	e.MarkAttempt(fixedTime.Add(time.Minute))
	e.MarkSuccess("re_123")
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save done: %v", err)
	}
	got, err := s.GetByID(ctx, "ob-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusDone || got.ExternalID != "re_123" || got.Attempts != 1 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if pending, _ := s.ListPending(ctx, 10); len(pending) != 0 {
		t.Errorf("expected no pending entries, got %d", len(pending))
	}
}

func TestSQLiteStore_ListFailedAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, _ := domain.NewEntry("ob-1", domain.ActionTypeEvent, `{"type":"x"}`, fixedTime)
	e.MaxAttempts = 1
	e.MarkAttempt(fixedTime)
	e.MarkFailed(errors.New("broker down"))
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	failed, err := s.ListFailed(ctx, 10)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorMessage != "broker down" {
		t.Fatalf("unexpected failed: %+v", failed)
	}
	if err := s.Delete(ctx, "ob-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, "ob-1"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}
