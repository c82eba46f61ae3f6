package sharelink

import (
	"context"

	domain "smithagency/internal/domain/sharelink"
)

// Store defines the interface for share link persistence.
type Store interface {
	// Create persists a new share link.
	// PRE: l has been validated
	// POST: Link persisted, or domain.ErrDuplicateBooking if the booking already has one
	Create(ctx context.Context, l domain.ShareLink) error

	// GetByID retrieves a share link by its public id.
	// PRE: id is non-empty
	// POST: Returns the link or an error wrapping domain.ErrShareLinkNotFound
	GetByID(ctx context.Context, id string) (domain.ShareLink, error)

	// GetByBookingID retrieves the link created for a booking.
	// PRE: bookingID is non-empty
	// POST: Returns the link or an error wrapping domain.ErrShareLinkNotFound
	GetByBookingID(ctx context.Context, bookingID string) (domain.ShareLink, error)

	// RecordClick appends a click.
	// PRE: c.ShareLinkID references an existing link
	// POST: Click persisted
	RecordClick(ctx context.Context, c domain.Click) error

	// ListStats returns every link with its click count, newest first.
	ListStats(ctx context.Context) ([]domain.Stats, error)
}

// Ensure implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)
