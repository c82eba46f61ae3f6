package sharelink

import (
	"errors"
	"strings"
	"time"
)

// DefaultShowName is used when the booking has no show name.
const DefaultShowName = "Show booking"

// Domain errors
var (
	ErrShareLinkNotFound = errors.New("share link not found")
	// ErrDuplicateBooking is returned by stores when a link already exists for the booking.
	ErrDuplicateBooking = errors.New("share link already exists for booking")
)

// ShareLink is a public referral link created once per booking.
type ShareLink struct {
	ID          string    `bson:"_id"`
	BookingID   string    `bson:"bookingId"`
	ClientID    string    `bson:"clientId"`
	ClientEmail string    `bson:"clientEmail"`
	CompanyName string    `bson:"clientCompanyName"`
	ShowID      string    `bson:"showId"`
	ShowName    string    `bson:"showName"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// Validate checks if the ShareLink has valid data.
// PRE: ShareLink struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (l *ShareLink) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("share link id cannot be empty")
	}
	if strings.TrimSpace(l.BookingID) == "" {
		return errors.New("share link booking id cannot be empty")
	}
	if strings.TrimSpace(l.ClientID) == "" {
		return errors.New("share link client id cannot be empty")
	}
	return nil
}

// URL returns the public promo path for the link under baseURL.
func (l *ShareLink) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/promo/" + l.ID
}

// Click records one visit to a share link.
type Click struct {
	ID          string    `bson:"_id"`
	ShareLinkID string    `bson:"shareLinkId"`
	BookingID   string    `bson:"bookingId"`
	ClientID    string    `bson:"clientId"`
	ShowID      string    `bson:"showId"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// NewClick builds a click for the link.
func NewClick(id string, l ShareLink, now time.Time) Click {
	return Click{
		ID:          id,
		ShareLinkID: l.ID,
		BookingID:   l.BookingID,
		ClientID:    l.ClientID,
		ShowID:      l.ShowID,
		CreatedAt:   now,
	}
}

// Stats is a share link with its click count.
type Stats struct {
	ShareLink `bson:",inline"`
	Clicks int64 `bson:"clicks"`
}
