package show

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/show"
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

func TestSQLiteStore_ListActive_SortedByStart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shows := []domain.Show{
		{ID: "s-late", Name: "Fall Market", StartDate: "2024-09-10", EndDate: "2024-09-12", Status: domain.StatusActive, CreatedAt: fixedTime},
		{ID: "s-early", Name: "Spring Market", StartDate: "2024-03-01", EndDate: "2024-03-03", Status: domain.StatusActive, CreatedAt: fixedTime},
		{ID: "s-off", Name: "Old Market", StartDate: "2023-01-01", EndDate: "2023-01-02", Status: domain.StatusInactive, CreatedAt: fixedTime},
	}
	for _, sh := range shows {
		if err := s.Save(ctx, sh); err != nil {
			t.Fatalf("Save %s: %v", sh.ID, err)
		}
	}

	got, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s-early" || got[1].ID != "s-late" {
		t.Errorf("unexpected shows: %+v", got)
	}
}

func TestSQLiteStore_Save_Updates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sh := domain.Show{ID: "s-1", Name: "Spring Market", StartDate: "2024-03-01", EndDate: "2024-03-03", Status: domain.StatusActive, CreatedAt: fixedTime}
	if err := s.Save(ctx, sh); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sh.Status = domain.StatusInactive
	if err := s.Save(ctx, sh); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	got, err := s.GetByID(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsActive() {
		t.Error("expected show to be inactive after update")
	}
	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrShowNotFound) {
		t.Errorf("expected ErrShowNotFound, got %v", err)
	}
}
