package client

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 200
	MaxFieldLength = 50
)

// Domain errors
var (
	ErrClientNotFound   = errors.New("client not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrShowroomNotFound = errors.New("showroom not found")
)

// Client is a company that books showroom staff. ID is the auth provider's subject.
type Client struct {
	ID          string
	Email       string
	CompanyName string
	Website     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', ID must not be empty
func (c *Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("client id cannot be empty")
	}
	if !strings.Contains(c.Email, "@") {
		return errors.New("client email must be valid")
	}
	if len(c.CompanyName) > MaxNameLength {
		return errors.New("company name cannot exceed 200 characters")
	}
	return nil
}

// Contact is a person at the client who receives booking correspondence.
type Contact struct {
	ID        string
	ClientID  string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Validate checks if the Contact has valid data.
// PRE: Contact struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("contact client id cannot be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("contact name cannot be empty")
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("contact name cannot exceed 200 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("contact email must be valid")
	}
	return nil
}

// Showroom is a booth location the client exhibits from.
type Showroom struct {
	ID             string
	ClientID       string
	City           string
	BuildingNumber string
	FloorNumber    string
	BoothNumber    string
	CreatedAt      time.Time
}

// Validate checks if the Showroom has valid data.
// PRE: Showroom struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (s *Showroom) Validate() error {
	if strings.TrimSpace(s.ClientID) == "" {
		return errors.New("showroom client id cannot be empty")
	}
	if strings.TrimSpace(s.City) == "" {
		return errors.New("showroom city cannot be empty")
	}
	for _, f := range []string{s.City, s.BuildingNumber, s.FloorNumber, s.BoothNumber} {
		if len(f) > MaxFieldLength {
			return errors.New("showroom fields cannot exceed 50 characters")
		}
	}
	return nil
}

// Label renders the booth location, e.g. "New York 7-12-A4".
// Empty building, floor or booth parts are skipped.
func (s *Showroom) Label() string {
	var parts []string
	for _, p := range []string{s.BuildingNumber, s.FloorNumber, s.BoothNumber} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.TrimSpace(s.City) + " " + strings.Join(parts, "-"))
}
