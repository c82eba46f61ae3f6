package projections

import (
	"context"

	domainBooking "smithagency/internal/domain/booking"
	domainClient "smithagency/internal/domain/client"
	domainShareLink "smithagency/internal/domain/sharelink"
	domainShow "smithagency/internal/domain/show"
	domainStaff "smithagency/internal/domain/staff"
)

// BookingStore interface for booking queries.
type BookingStore interface {
	ListByClient(ctx context.Context, clientID string) ([]domainBooking.Booking, error)
}

// ShareLinkStore interface for share link queries.
type ShareLinkStore interface {
	GetByBookingID(ctx context.Context, bookingID string) (domainShareLink.ShareLink, error)
	ListStats(ctx context.Context) ([]domainShareLink.Stats, error)
}

// ClientStore interface for client profile queries.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (domainClient.Client, error)
	ListContacts(ctx context.Context, clientID string) ([]domainClient.Contact, error)
	ListShowrooms(ctx context.Context, clientID string) ([]domainClient.Showroom, error)
}

// ShowStore interface for show queries.
type ShowStore interface {
	GetByID(ctx context.Context, id string) (domainShow.Show, error)
	ListActive(ctx context.Context) ([]domainShow.Show, error)
}

// AvailabilityStore interface for staff availability queries.
type AvailabilityStore interface {
	ListAvailabilityByStaff(ctx context.Context, staffID string) ([]domainStaff.Availability, error)
	ListAvailabilityByShow(ctx context.Context, showID string) ([]domainStaff.Availability, error)
}
