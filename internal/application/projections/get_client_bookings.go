package projections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smithagency/internal/domain/pricing"
	domainShareLink "smithagency/internal/domain/sharelink"
)

// GetClientBookingsQuery carries query parameters.
type GetClientBookingsQuery struct {
	ClientID string
	BaseURL  string
}

// ClientBookingView is one booking as shown in the client portal.
type ClientBookingView struct {
	ID               string             `json:"id"`
	ShowID           string             `json:"showId"`
	ShowName         string             `json:"showName"`
	Status           string             `json:"status"`
	PaymentStatus    string             `json:"paymentStatus"`
	DatesNeeded      []pricing.DateNeed `json:"datesNeeded"`
	TotalStaffNeeded int                `json:"totalStaffNeeded"`
	Breakdown        pricing.Breakdown  `json:"breakdown"`
	FinalChargeCents int64              `json:"finalChargeCents,omitempty"`
	ShareLinkURL     string             `json:"shareLinkUrl,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// GetClientBookingsResult carries the query result.
type GetClientBookingsResult struct {
	Bookings []ClientBookingView `json:"bookings"`
}

// GetClientBookingsDeps holds dependencies for QueryGetClientBookings.
type GetClientBookingsDeps struct {
	BookingStore   BookingStore
	ShareLinkStore ShareLinkStore
}

// QueryGetClientBookings lists a client's bookings with their pricing breakdown.
// PRE: query.ClientID is the authenticated client
// POST: Returns bookings newest first; the breakdown uses each booking's stamped rate and deposit
// INVARIANT: A missing share link leaves ShareLinkURL empty rather than failing the query
func QueryGetClientBookings(ctx context.Context, query GetClientBookingsQuery, deps GetClientBookingsDeps) (GetClientBookingsResult, error) {
	bookings, err := deps.BookingStore.ListByClient(ctx, query.ClientID)
	if err != nil {
		return GetClientBookingsResult{}, err
	}

	views := make([]ClientBookingView, 0, len(bookings))
	for _, b := range bookings {
		v := ClientBookingView{
			ID:               b.ID,
			ShowID:           b.ShowID,
			ShowName:         b.ShowName,
			Status:           b.Status,
			PaymentStatus:    b.PaymentStatus,
			DatesNeeded:      b.DatesNeeded,
			TotalStaffNeeded: b.TotalStaffNeeded,
			Breakdown:        b.Breakdown(),
			FinalChargeCents: b.FinalChargeCents,
			CreatedAt:        b.CreatedAt,
		}
		if deps.ShareLinkStore != nil {
			link, err := deps.ShareLinkStore.GetByBookingID(ctx, b.ID)
			switch {
			case err == nil:
				v.ShareLinkURL = link.URL(query.BaseURL)
			case !errors.Is(err, domainShareLink.ErrShareLinkNotFound):
				slog.Warn("share_link_lookup_failed", "booking_id", b.ID, "error", err.Error())
			}
		}
		views = append(views, v)
	}
	return GetClientBookingsResult{Bookings: views}, nil
}
