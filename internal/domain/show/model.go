package show

import (
	"errors"
	"strings"
	"time"

	"smithagency/internal/domain/pricing"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Domain errors
var (
	ErrShowNotFound = errors.New("show not found")
	ErrShowInactive = errors.New("show is not accepting bookings")
	// ErrDateOutsideShow means a requested staffing date falls outside the show's dates.
	ErrDateOutsideShow = errors.New("date is outside the show dates")
)

// Show is a trade show the agency staffs.
type Show struct {
	ID        string
	Name      string
	Location  string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD, inclusive
	Status    string
	CreatedAt time.Time
}

// Validate checks if the Show has valid data.
// PRE: Show struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: StartDate <= EndDate
func (s *Show) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("show name cannot be empty")
	}
	start, err := time.Parse(pricing.DateLayout, s.StartDate)
	if err != nil {
		return errors.New("show start date must be YYYY-MM-DD")
	}
	end, err := time.Parse(pricing.DateLayout, s.EndDate)
	if err != nil {
		return errors.New("show end date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return errors.New("show end date cannot be before start date")
	}
	if s.Status != StatusActive && s.Status != StatusInactive {
		return errors.New("status must be 'active' or 'inactive'")
	}
	return nil
}

// IsActive returns true if the show is accepting bookings and availability.
// INVARIANT: Status field is not mutated
func (s *Show) IsActive() bool {
	return s.Status == StatusActive
}

// DateRange enumerates the show's days, inclusive, as ISO dates.
// Returns nil when either bound is unparseable.
func (s *Show) DateRange() []string {
	start, err := time.Parse(pricing.DateLayout, s.StartDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(pricing.DateLayout, s.EndDate)
	if err != nil {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(pricing.DateLayout))
	}
	return dates
}

// Contains reports whether date falls within the show.
func (s *Show) Contains(date string) bool {
	return date >= s.StartDate && date <= s.EndDate && len(date) == len(pricing.DateLayout)
}
