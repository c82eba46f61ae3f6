package staff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"smithagency/internal/domain/pricing"
)

// Domain errors
var (
	ErrStaffNotFound          = errors.New("staff profile not found")
	ErrStaffInactive          = errors.New("staff profile is inactive")
	ErrEmailDomainNotAllowed  = errors.New("email domain is not allowed for staff")
	ErrApplicationIncomplete  = errors.New("staff application is not completed")
	ErrApplicationNotApproved = errors.New("staff application is not approved")
	ErrAvailabilityExists     = errors.New("availability already submitted for this show")
	ErrDateOutsideShow        = errors.New("date is outside the show range")
	ErrNoDates                = errors.New("at least one date is required")
)

// Staff is a showroom model or assistant the agency places at shows.
type Staff struct {
	ID                  string
	Email               string
	Name                string
	Active              bool
	Phone               string
	Location            string
	College             string
	Address             string
	DressSize           string
	ShoeSize            string
	Instagram           string
	Experience          string
	ApplicationComplete bool
	ApplicationApproved bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Application is the self-service profile a staff member submits for review.
type Application struct {
	Phone      string
	Location   string
	College    string
	Address    string
	DressSize  string
	ShoeSize   string
	Instagram  string
	Experience string
}

// Validate checks that every required application field is present.
// PRE: Application struct is initialized
// POST: Returns error naming the first missing field, nil otherwise
func (a *Application) Validate() error {
	required := []struct {
		name, value string
	}{
		{"phone", a.Phone},
		{"location", a.Location},
		{"address", a.Address},
		{"dress size", a.DressSize},
		{"shoe size", a.ShoeSize},
		{"instagram", a.Instagram},
		{"experience", a.Experience},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// ApplyApplication copies a trimmed application onto the profile and marks it completed.
// Approval is left untouched; only an operator sets it.
// PRE: app has been validated
// POST: Application fields set, ApplicationComplete true, UpdatedAt stamped
func (s *Staff) ApplyApplication(app Application, now time.Time) {
	s.Phone = strings.TrimSpace(app.Phone)
	s.Location = strings.TrimSpace(app.Location)
	s.College = strings.TrimSpace(app.College)
	s.Address = strings.TrimSpace(app.Address)
	s.DressSize = strings.TrimSpace(app.DressSize)
	s.ShoeSize = strings.TrimSpace(app.ShoeSize)
	s.Instagram = strings.TrimSpace(app.Instagram)
	s.Experience = strings.TrimSpace(app.Experience)
	s.ApplicationComplete = true
	s.UpdatedAt = now
}

// CanSubmitAvailability reports whether the staff member may submit availability.
// PRE: none
// POST: Returns nil only for an active, completed and approved profile
func (s *Staff) CanSubmitAvailability() error {
	if !s.Active {
		return ErrStaffInactive
	}
	if !s.ApplicationComplete {
		return ErrApplicationIncomplete
	}
	if !s.ApplicationApproved {
		return ErrApplicationNotApproved
	}
	return nil
}

// EmailDomainAllowed reports whether email belongs to domain. An empty domain allows all.
func EmailDomainAllowed(email, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.ToLower(email[at+1:]) == domain
}

// Availability is one staff member's available days for one show.
type Availability struct {
	ID             string
	StaffID        string
	StaffName      string
	StaffEmail     string
	ShowID         string
	AvailableDates []string
	CreatedAt      time.Time
}

// AvailabilityID is the deterministic key allowing one submission per staff member per show.
func AvailabilityID(staffID, showID string) string {
	return staffID + "_" + showID
}

// NormalizeDates sorts, dedupes and validates dates against an inclusive range.
// PRE: start and end are YYYY-MM-DD
// POST: Returns ascending unique dates or an error for any out-of-range or malformed date
func NormalizeDates(dates []string, start, end string) ([]string, error) {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if _, err := time.Parse(pricing.DateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d, err)
		}
		if d < start || d > end {
			return nil, fmt.Errorf("%s: %w", d, ErrDateOutsideShow)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoDates
	}
	sort.Strings(out)
	return out, nil
}
