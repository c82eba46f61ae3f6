package sharelink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/sharelink"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = `SELECT id, booking_id, client_id, client_email, company_name, show_id, show_name, created_at FROM share_link`

// SQLiteStore implements the share link Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new share link store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create persists a new share link.
// PRE: l has been validated
// POST: Link persisted, or domain.ErrDuplicateBooking if the booking already has one
func (s *SQLiteStore) Create(ctx context.Context, l domain.ShareLink) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_link (id, booking_id, client_id, client_email, company_name, show_id, show_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.BookingID, l.ClientID, l.ClientEmail, l.CompanyName, l.ShowID, l.ShowName,
		l.CreatedAt.UTC().Format(dateLayout))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, l.BookingID)
	}
	return err
}

// GetByID retrieves a share link by its public id.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.ShareLink, error) {
	l, err := scanLink(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShareLink{}, fmt.Errorf("%w: %s", domain.ErrShareLinkNotFound, id)
	}
	return l, err
}

// GetByBookingID retrieves the link created for a booking.
func (s *SQLiteStore) GetByBookingID(ctx context.Context, bookingID string) (domain.ShareLink, error) {
	l, err := scanLink(s.db.QueryRowContext(ctx, selectColumns+` WHERE booking_id = ?`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShareLink{}, fmt.Errorf("%w: booking %s", domain.ErrShareLinkNotFound, bookingID)
	}
	return l, err
}

// RecordClick appends a click.
func (s *SQLiteStore) RecordClick(ctx context.Context, c domain.Click) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_link_click (id, share_link_id, booking_id, client_id, show_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ShareLinkID, c.BookingID, c.ClientID, c.ShowID, c.CreatedAt.UTC().Format(dateLayout))
	return err
}

// ListStats returns every link with its click count, newest first.
func (s *SQLiteStore) ListStats(ctx context.Context) ([]domain.Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.booking_id, l.client_id, l.client_email, l.company_name, l.show_id, l.show_name, l.created_at,
		        (SELECT COUNT(*) FROM share_link_click c WHERE c.share_link_id = l.id)
		 FROM share_link l
		 ORDER BY l.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Stats
	for rows.Next() {
		var st domain.Stats
		var createdAt string
		if err := rows.Scan(&st.ID, &st.BookingID, &st.ClientID, &st.ClientEmail, &st.CompanyName,
			&st.ShowID, &st.ShowName, &createdAt, &st.Clicks); err != nil {
			return nil, err
		}
		st.CreatedAt, _ = time.Parse(dateLayout, createdAt)
		out = append(out, st)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (domain.ShareLink, error) {
	var l domain.ShareLink
	var createdAt string
	if err := row.Scan(&l.ID, &l.BookingID, &l.ClientID, &l.ClientEmail, &l.CompanyName,
		&l.ShowID, &l.ShowName, &createdAt); err != nil {
		return domain.ShareLink{}, err
	}
	l.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return l, nil
}
