package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/client"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the client Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new client store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Upsert creates the client or updates its mutable fields.
func (s *SQLiteStore) Upsert(ctx context.Context, c domain.Client) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client (id, email, company_name, website, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email = excluded.email,
		   company_name = excluded.company_name,
		   website = excluded.website,
		   updated_at = excluded.updated_at`,
		c.ID, c.Email, c.CompanyName, c.Website,
		c.CreatedAt.UTC().Format(dateLayout), c.UpdatedAt.UTC().Format(dateLayout))
	return err
}

// GetByID retrieves a client by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Client, error) {
	var c domain.Client
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, company_name, website, created_at, updated_at FROM client WHERE id = ?`, id,
	).Scan(&c.ID, &c.Email, &c.CompanyName, &c.Website, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, fmt.Errorf("%w: %s", domain.ErrClientNotFound, id)
	}
	if err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	c.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return c, nil
}

// SaveContact inserts a contact.
func (s *SQLiteStore) SaveContact(ctx context.Context, c domain.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact (id, client_id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.Name, c.Email, c.Phone, c.CreatedAt.UTC().Format(dateLayout))
	return err
}

// GetContact retrieves a contact by its ID.
func (s *SQLiteStore) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, email, phone, created_at FROM contact WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, fmt.Errorf("%w: %s", domain.ErrContactNotFound, id)
	}
	return c, err
}

// ListContacts returns a client's contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context, clientID string) ([]domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, name, email, phone, created_at FROM contact WHERE client_id = ? ORDER BY name`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveShowroom inserts a showroom.
func (s *SQLiteStore) SaveShowroom(ctx context.Context, sr domain.Showroom) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO showroom (id, client_id, city, building_number, floor_number, booth_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sr.ID, sr.ClientID, sr.City, sr.BuildingNumber, sr.FloorNumber, sr.BoothNumber,
		sr.CreatedAt.UTC().Format(dateLayout))
	return err
}

// GetShowroom retrieves a showroom by its ID.
func (s *SQLiteStore) GetShowroom(ctx context.Context, id string) (domain.Showroom, error) {
	sr, err := scanShowroom(s.db.QueryRowContext(ctx,
		`SELECT id, client_id, city, building_number, floor_number, booth_number, created_at FROM showroom WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Showroom{}, fmt.Errorf("%w: %s", domain.ErrShowroomNotFound, id)
	}
	return sr, err
}

// ListShowrooms returns a client's showrooms ordered by city.
func (s *SQLiteStore) ListShowrooms(ctx context.Context, clientID string) ([]domain.Showroom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, city, building_number, floor_number, booth_number, created_at
		 FROM showroom WHERE client_id = ? ORDER BY city, booth_number`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Showroom
	for rows.Next() {
		sr, err := scanShowroom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var c domain.Contact
	var createdAt string
	if err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.Email, &c.Phone, &createdAt); err != nil {
		return domain.Contact{}, err
	}
	c.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return c, nil
}

func scanShowroom(row rowScanner) (domain.Showroom, error) {
	var sr domain.Showroom
	var createdAt string
	if err := row.Scan(&sr.ID, &sr.ClientID, &sr.City, &sr.BuildingNumber, &sr.FloorNumber, &sr.BoothNumber, &createdAt); err != nil {
		return domain.Showroom{}, err
	}
	sr.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return sr, nil
}
