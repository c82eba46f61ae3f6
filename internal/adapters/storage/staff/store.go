package staff

import (
	"context"

	domain "smithagency/internal/domain/staff"
)

// Store defines the interface for staff profile and availability persistence.
type Store interface {
	// GetByID retrieves a staff profile by its ID.
	// PRE: id is non-empty
	// POST: Returns the profile or an error wrapping domain.ErrStaffNotFound
	GetByID(ctx context.Context, id string) (domain.Staff, error)

	// Save inserts or replaces a staff profile.
	// PRE: s.ID and s.Email are non-empty
	Save(ctx context.Context, s domain.Staff) error

	// CreateAvailability inserts a submission.
	// PRE: a.ID == domain.AvailabilityID(a.StaffID, a.ShowID)
	// POST: Persisted, or domain.ErrAvailabilityExists when the staff member already submitted for the show
	CreateAvailability(ctx context.Context, a domain.Availability) error

	// ListAvailabilityByStaff returns a staff member's submissions, newest first.
	ListAvailabilityByStaff(ctx context.Context, staffID string) ([]domain.Availability, error)

	// ListAvailabilityByShow returns every submission for a show ordered by staff name.
	ListAvailabilityByShow(ctx context.Context, showID string) ([]domain.Availability, error)
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
