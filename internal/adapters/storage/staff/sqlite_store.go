package staff

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/staff"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectStaff = `SELECT id, email, name, active, phone, location, college, address, dress_size, shoe_size,
	instagram, experience, application_complete, application_approved, created_at, updated_at FROM staff`

const selectAvailability = `SELECT id, staff_id, staff_name, staff_email, show_id, available_dates, created_at FROM availability`

// SQLiteStore implements the staff Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new staff store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a staff profile by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Staff, error) {
	var st domain.Staff
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, selectStaff+` WHERE id = ?`, id).Scan(
		&st.ID, &st.Email, &st.Name, &st.Active, &st.Phone, &st.Location, &st.College, &st.Address,
		&st.DressSize, &st.ShoeSize, &st.Instagram, &st.Experience,
		&st.ApplicationComplete, &st.ApplicationApproved, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Staff{}, fmt.Errorf("%w: %s", domain.ErrStaffNotFound, id)
	}
	if err != nil {
		return domain.Staff{}, err
	}
	st.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	st.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return st, nil
}

// Save inserts or replaces a staff profile.
func (s *SQLiteStore) Save(ctx context.Context, st domain.Staff) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff (id, email, name, active, phone, location, college, address, dress_size, shoe_size,
			instagram, experience, application_complete, application_approved, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email = excluded.email, name = excluded.name, active = excluded.active,
		   phone = excluded.phone, location = excluded.location, college = excluded.college,
		   address = excluded.address, dress_size = excluded.dress_size, shoe_size = excluded.shoe_size,
		   instagram = excluded.instagram, experience = excluded.experience,
		   application_complete = excluded.application_complete,
		   application_approved = excluded.application_approved,
		   updated_at = excluded.updated_at`,
		st.ID, st.Email, st.Name, st.Active, st.Phone, st.Location, st.College, st.Address,
		st.DressSize, st.ShoeSize, st.Instagram, st.Experience,
		st.ApplicationComplete, st.ApplicationApproved,
		st.CreatedAt.UTC().Format(dateLayout), st.UpdatedAt.UTC().Format(dateLayout))
	return err
}

// CreateAvailability inserts a submission; the deterministic ID rejects a second one.
func (s *SQLiteStore) CreateAvailability(ctx context.Context, a domain.Availability) error {
	dates, err := json.Marshal(a.AvailableDates)
	if err != nil {
		return fmt.Errorf("encode available dates: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO availability (id, staff_id, staff_name, staff_email, show_id, available_dates, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StaffID, a.StaffName, a.StaffEmail, a.ShowID, string(dates), a.CreatedAt.UTC().Format(dateLayout))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrAvailabilityExists, a.ID)
	}
	return err
}

// ListAvailabilityByStaff returns a staff member's submissions, newest first.
func (s *SQLiteStore) ListAvailabilityByStaff(ctx context.Context, staffID string) ([]domain.Availability, error) {
	return s.listAvailability(ctx, selectAvailability+` WHERE staff_id = ? ORDER BY created_at DESC`, staffID)
}

// ListAvailabilityByShow returns every submission for a show ordered by staff name.
func (s *SQLiteStore) ListAvailabilityByShow(ctx context.Context, showID string) ([]domain.Availability, error) {
	return s.listAvailability(ctx, selectAvailability+` WHERE show_id = ? ORDER BY staff_name`, showID)
}

func (s *SQLiteStore) listAvailability(ctx context.Context, query string, arg string) ([]domain.Availability, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Availability
	for rows.Next() {
		var a domain.Availability
		var dates, createdAt string
		if err := rows.Scan(&a.ID, &a.StaffID, &a.StaffName, &a.StaffEmail, &a.ShowID, &dates, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dates), &a.AvailableDates); err != nil {
			return nil, fmt.Errorf("decode available dates for %s: %w", a.ID, err)
		}
		a.CreatedAt, _ = time.Parse(dateLayout, createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
