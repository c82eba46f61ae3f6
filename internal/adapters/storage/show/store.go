package show

import (
	"context"

	domain "smithagency/internal/domain/show"
)

// Store defines the interface for show persistence.
type Store interface {
	// GetByID retrieves a show by its ID.
	// PRE: id is non-empty
	// POST: Returns the show or an error wrapping domain.ErrShowNotFound
	GetByID(ctx context.Context, id string) (domain.Show, error)

	// ListActive returns active shows ordered by start date.
	ListActive(ctx context.Context) ([]domain.Show, error)

	// Save inserts or replaces a show.
	// PRE: s has been validated
	Save(ctx context.Context, s domain.Show) error
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
