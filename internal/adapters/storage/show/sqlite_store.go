package show

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/show"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the show Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new show store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a show by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Show, error) {
	sh, err := scanShow(s.db.QueryRowContext(ctx,
		`SELECT id, name, location, start_date, end_date, status, created_at FROM trade_show WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Show{}, fmt.Errorf("%w: %s", domain.ErrShowNotFound, id)
	}
	return sh, err
}

// ListActive returns active shows ordered by start date.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]domain.Show, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location, start_date, end_date, status, created_at
		 FROM trade_show WHERE status = ? ORDER BY start_date, name`, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Show
	for rows.Next() {
		sh, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// Save inserts or replaces a show.
func (s *SQLiteStore) Save(ctx context.Context, sh domain.Show) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trade_show (id, name, location, start_date, end_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   location = excluded.location,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   status = excluded.status`,
		sh.ID, sh.Name, sh.Location, sh.StartDate, sh.EndDate, sh.Status, sh.CreatedAt.UTC().Format(dateLayout))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(row rowScanner) (domain.Show, error) {
	var sh domain.Show
	var createdAt string
	if err := row.Scan(&sh.ID, &sh.Name, &sh.Location, &sh.StartDate, &sh.EndDate, &sh.Status, &createdAt); err != nil {
		return domain.Show{}, err
	}
	sh.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return sh, nil
}
