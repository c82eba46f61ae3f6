package client

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/client"
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

func TestSQLiteStore_Upsert_PreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := domain.Client{ID: "client-1", Email: "a@example.com", CompanyName: "Acme", CreatedAt: fixedTime, UpdatedAt: fixedTime}
	if err := s.Upsert(ctx, c); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	later := fixedTime.Add(time.Hour)
	c.CompanyName = "Acme Apparel"
	c.CreatedAt = later
	c.UpdatedAt = later
	if err := s.Upsert(ctx, c); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := s.GetByID(ctx, "client-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CompanyName != "Acme Apparel" {
		t.Errorf("CompanyName = %q", got.CompanyName)
	}
	if !got.CreatedAt.Equal(fixedTime) || !got.UpdatedAt.Equal(later) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestSQLiteStore_ContactsAndShowrooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, domain.Client{ID: "client-1", Email: "a@example.com", CreatedAt: fixedTime, UpdatedAt: fixedTime}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, c := range []domain.Contact{
		{ID: "ct-2", ClientID: "client-1", Name: "Zoe", CreatedAt: fixedTime},
		{ID: "ct-1", ClientID: "client-1", Name: "Ann", Email: "ann@example.com", CreatedAt: fixedTime},
	} {
		if err := s.SaveContact(ctx, c); err != nil {
			t.Fatalf("SaveContact: %v", err)
		}
	}
	contacts, err := s.ListContacts(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 2 || contacts[0].Name != "Ann" {
		t.Errorf("unexpected contacts: %+v", contacts)
	}

	sr := domain.Showroom{ID: "sr-1", ClientID: "client-1", City: "New York", BuildingNumber: "7", FloorNumber: "12", BoothNumber: "A4", CreatedAt: fixedTime}
	if err := s.SaveShowroom(ctx, sr); err != nil {
		t.Fatalf("SaveShowroom: %v", err)
	}
	got, err := s.GetShowroom(ctx, "sr-1")
	if err != nil {
		t.Fatalf("GetShowroom: %v", err)
	}
	if got.Label() != "New York 7-12-A4" {
		t.Errorf("Label() = %q", got.Label())
	}
	if _, err := s.GetContact(ctx, "missing"); !errors.Is(err, domain.ErrContactNotFound) {
		t.Errorf("expected ErrContactNotFound, got %v", err)
	}
	if _, err := s.GetShowroom(ctx, "missing"); !errors.Is(err, domain.ErrShowroomNotFound) {
		t.Errorf("expected ErrShowroomNotFound, got %v", err)
	}
}
