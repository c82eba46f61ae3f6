package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smithagency/internal/adapters/email"
	"smithagency/internal/adapters/events"
	"smithagency/internal/adapters/payment"
	"smithagency/internal/domain/booking"
	domainClient "smithagency/internal/domain/client"
	"smithagency/internal/domain/pricing"
	"smithagency/internal/domain/sharelink"
)

// MaterializeBookingStore is the booking persistence the materializer needs.
type MaterializeBookingStore interface {
	GetByCheckoutSession(ctx context.Context, sessionID string) (booking.Booking, error)
	Create(ctx context.Context, b booking.Booking) error
}

// ShareLinkWriter finds and creates share links.
type ShareLinkWriter interface {
	Create(ctx context.Context, l sharelink.ShareLink) error
	GetByBookingID(ctx context.Context, bookingID string) (sharelink.ShareLink, error)
}

// ClientReferenceStore resolves contacts and showrooms for ownership checks.
type ClientReferenceStore interface {
	GetContact(ctx context.Context, id string) (domainClient.Contact, error)
	GetShowroom(ctx context.Context, id string) (domainClient.Showroom, error)
}

// BookingDraft is the booking detail carried through checkout metadata.
type BookingDraft struct {
	ShowID     string
	ShowName   string
	ContactID  string
	ShowroomID string
	Notes      string
	Date       string
}

// MaterializeBookingInput carries data for the booking materializer.
type MaterializeBookingInput struct {
	ClientID     string
	ClientEmail  string
	CompanyName  string
	Plan         pricing.StaffingPlan
	Draft        BookingDraft
	Confirmation payment.Confirmation
}

// MaterializeBookingDeps holds dependencies for ExecuteMaterializeBooking.
type MaterializeBookingDeps struct {
	BookingStore   MaterializeBookingStore
	ShareLinkStore ShareLinkWriter
	ClientStore    ClientReferenceStore
	Rates          pricing.Rates
	BaseURL        string
	SideEffects    SideEffectDeps
	GenerateID     func() string
	Now            func() time.Time
}

// MaterializeBookingResult is the booking a confirmed deposit resolved to.
type MaterializeBookingResult struct {
	BookingID    string
	Created      bool
	ShareLinkID  string
	ShareLinkURL string
	Breakdown    pricing.Breakdown
}

// ExecuteMaterializeBooking turns a paid deposit checkout into exactly one booking.
// PRE: input.Confirmation is the processor's view of the checkout session
// POST: A booking exists for the checkout session; Created reports whether this call inserted it
// INVARIANT: At most one booking per checkout session and one share link per booking
func ExecuteMaterializeBooking(ctx context.Context, input MaterializeBookingInput, deps MaterializeBookingDeps) (MaterializeBookingResult, error) {
	conf := input.Confirmation
	if conf.Status != payment.StatusPaid {
		return MaterializeBookingResult{}, fmt.Errorf("materialize session %s: %w", conf.CheckoutSessionID, booking.ErrPaymentNotCompleted)
	}
	if conf.CheckoutSessionID == "" {
		return MaterializeBookingResult{}, errors.New("checkout session id is required")
	}
	if input.ClientID == "" {
		return MaterializeBookingResult{}, errors.New("client id is required")
	}

	existing, err := deps.BookingStore.GetByCheckoutSession(ctx, conf.CheckoutSessionID)
	if err == nil {
		slog.Info("booking_event", "event", "booking_already_materialized", "booking_id", existing.ID, "session_id", conf.CheckoutSessionID)
		return existingBookingResult(ctx, existing, deps), nil
	}
	if !errors.Is(err, booking.ErrBookingNotFound) {
		return MaterializeBookingResult{}, fmt.Errorf("lookup session %s: %w", conf.CheckoutSessionID, err)
	}

	draft, err := dropStaleReferences(ctx, input.ClientID, input.Draft, deps.ClientStore)
	if err != nil {
		return MaterializeBookingResult{}, err
	}
	input.Draft = draft

	b := newBooking(input, deps)
	if err := b.Validate(); err != nil {
		return MaterializeBookingResult{}, err
	}

	if err := deps.BookingStore.Create(ctx, b); err != nil {
		if !errors.Is(err, booking.ErrDuplicateCheckoutSession) {
			return MaterializeBookingResult{}, fmt.Errorf("create booking %s: %w", b.ID, err)
		}
		winner, err := deps.BookingStore.GetByCheckoutSession(ctx, conf.CheckoutSessionID)
		if err != nil {
			return MaterializeBookingResult{}, fmt.Errorf("reread session %s: %w", conf.CheckoutSessionID, err)
		}
		slog.Info("booking_event", "event", "booking_materialize_race_lost", "booking_id", winner.ID, "session_id", conf.CheckoutSessionID)
		return existingBookingResult(ctx, winner, deps), nil
	}

	result := MaterializeBookingResult{BookingID: b.ID, Created: true, Breakdown: b.Breakdown()}
	if link, ok := ensureShareLink(ctx, b, deps); ok {
		result.ShareLinkID = link.ID
		result.ShareLinkURL = link.URL(deps.BaseURL)
	}

	slog.Info("booking_event", "event", "booking_materialized", "booking_id", b.ID, "client_id", b.ClientID,
		"session_id", conf.CheckoutSessionID, "staff_days", b.TotalStaffNeeded)

	sendBookingConfirmation(ctx, b, result, deps)
	publishEvent(ctx, deps.SideEffects, events.Event{
		Type:       events.TypeBookingMaterialized,
		ResourceID: b.ID,
		Data: map[string]any{
			"client_id":        b.ClientID,
			"show_id":          b.ShowID,
			"total_staff_days": b.TotalStaffNeeded,
			"deposit_cents":    b.DepositCents(),
			"currency":         b.CurrencyOrDefault(),
		},
	}, deps.GenerateID, deps.Now)

	return result, nil
}

func newBooking(input MaterializeBookingInput, deps MaterializeBookingDeps) booking.Booking {
	conf := input.Confirmation
	rates := deps.Rates.WithDefaults()
	fee := conf.BookingFeeCents
	if fee <= 0 {
		fee = rates.DepositCents
	}
	currency := strings.ToLower(conf.Currency)
	if currency == "" {
		currency = pricing.DefaultCurrency
	}
	now := deps.Now()

	return booking.Booking{
		ID:               deps.GenerateID(),
		ClientID:         input.ClientID,
		ClientEmail:      input.ClientEmail,
		CompanyName:      input.CompanyName,
		ShowID:           input.Draft.ShowID,
		ShowName:         input.Draft.ShowName,
		ContactID:        input.Draft.ContactID,
		ShowroomID:       input.Draft.ShowroomID,
		Notes:            input.Draft.Notes,
		RequestedDate:    input.Draft.Date,
		Status:           booking.StatusPending,
		DatesNeeded:      pricing.DatesNeeded(input.Plan),
		TotalStaffNeeded: pricing.ComputeTotalStaffDays(input.Plan),
		Payment: booking.Payment{
			BookingFeeCents:         fee,
			BookingFeeCentsPaid:     conf.AmountCapturedCents,
			RatePerDayCents:         rates.RatePerDayCents,
			PaymentStatus:           booking.PaymentStatusDepositPaid,
			StripeCheckoutSessionID: conf.CheckoutSessionID,
			StripePaymentIntentID:   conf.PaymentIntentID,
			StripePaymentMethodID:   conf.PaymentMethodID,
			StripeCustomerID:        conf.CustomerID,
			Currency:                currency,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// existingBookingResult reports a booking created by an earlier call, creating its share
// link if that earlier call failed before doing so. The booking is not re-derived.
func existingBookingResult(ctx context.Context, b booking.Booking, deps MaterializeBookingDeps) MaterializeBookingResult {
	result := MaterializeBookingResult{BookingID: b.ID, Breakdown: b.Breakdown()}
	if link, ok := ensureShareLink(ctx, b, deps); ok {
		result.ShareLinkID = link.ID
		result.ShareLinkURL = link.URL(deps.BaseURL)
	}
	return result
}

// checkClientReferences rejects contact or showroom ids owned by another client.
// A nil store skips the check.
func checkClientReferences(ctx context.Context, clientID string, draft BookingDraft, store ClientReferenceStore) error {
	if store == nil {
		return nil
	}
	if draft.ContactID != "" {
		c, err := store.GetContact(ctx, draft.ContactID)
		if err != nil && !errors.Is(err, domainClient.ErrContactNotFound) {
			return fmt.Errorf("lookup contact %s: %w", draft.ContactID, err)
		}
		if err != nil || c.ClientID != clientID {
			return fmt.Errorf("%w: contact %s", booking.ErrForeignReference, draft.ContactID)
		}
	}
	if draft.ShowroomID != "" {
		s, err := store.GetShowroom(ctx, draft.ShowroomID)
		if err != nil && !errors.Is(err, domainClient.ErrShowroomNotFound) {
			return fmt.Errorf("lookup showroom %s: %w", draft.ShowroomID, err)
		}
		if err != nil || s.ClientID != clientID {
			return fmt.Errorf("%w: showroom %s", booking.ErrForeignReference, draft.ShowroomID)
		}
	}
	return nil
}

// dropStaleReferences clears contact or showroom ids that no longer belong to the client.
// The deposit is already captured, so a stale reference never blocks the booking.
// Only lookup failures are returned.
func dropStaleReferences(ctx context.Context, clientID string, draft BookingDraft, store ClientReferenceStore) (BookingDraft, error) {
	err := checkClientReferences(ctx, clientID, draft, store)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, booking.ErrForeignReference) {
		return draft, err
	}
	if draft.ContactID != "" && checkClientReferences(ctx, clientID, BookingDraft{ContactID: draft.ContactID}, store) != nil {
		slog.Warn("booking_event", "event", "stale_contact_dropped", "client_id", clientID, "contact_id", draft.ContactID)
		draft.ContactID = ""
	}
	if draft.ShowroomID != "" && checkClientReferences(ctx, clientID, BookingDraft{ShowroomID: draft.ShowroomID}, store) != nil {
		slog.Warn("booking_event", "event", "stale_showroom_dropped", "client_id", clientID, "showroom_id", draft.ShowroomID)
		draft.ShowroomID = ""
	}
	return draft, nil
}

// ensureShareLink returns the booking's share link, creating it when absent.
// INVARIANT: never fails the caller; errors are logged and reported as ok=false
func ensureShareLink(ctx context.Context, b booking.Booking, deps MaterializeBookingDeps) (sharelink.ShareLink, bool) {
	if deps.ShareLinkStore == nil {
		return sharelink.ShareLink{}, false
	}
	link, err := deps.ShareLinkStore.GetByBookingID(ctx, b.ID)
	if err == nil {
		return link, true
	}
	if !errors.Is(err, sharelink.ErrShareLinkNotFound) {
		slog.Warn("booking_event", "event", "share_link_lookup_failed", "booking_id", b.ID, "error", err.Error())
		return sharelink.ShareLink{}, false
	}

	showName := b.ShowName
	if showName == "" {
		showName = sharelink.DefaultShowName
	}
	link = sharelink.ShareLink{
		ID:          deps.GenerateID(),
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		ClientEmail: b.ClientEmail,
		CompanyName: b.CompanyName,
		ShowID:      b.ShowID,
		ShowName:    showName,
		CreatedAt:   deps.Now(),
	}
	err = deps.ShareLinkStore.Create(ctx, link)
	if errors.Is(err, sharelink.ErrDuplicateBooking) {
		link, err = deps.ShareLinkStore.GetByBookingID(ctx, b.ID)
	}
	if err != nil {
		slog.Warn("booking_event", "event", "share_link_create_failed", "booking_id", b.ID, "error", err.Error())
		return sharelink.ShareLink{}, false
	}
	slog.Info("booking_event", "event", "share_link_ready", "booking_id", b.ID, "share_link_id", link.ID)
	return link, true
}

func sendBookingConfirmation(ctx context.Context, b booking.Booking, result MaterializeBookingResult, deps MaterializeBookingDeps) {
	if b.ClientEmail == "" {
		return
	}
	dates := make([]email.BookingDate, 0, len(b.DatesNeeded))
	for _, d := range b.DatesNeeded {
		dates = append(dates, email.BookingDate{Date: d.Date, StaffCount: d.StaffCount})
	}
	bd := result.Breakdown
	req, err := email.RenderBookingConfirmation(b.ClientEmail, email.BookingConfirmationData{
		CompanyName:     b.CompanyName,
		ShowName:        b.ShowName,
		Dates:           dates,
		TotalStaffDays:  bd.TotalStaffDays,
		RatePerDayCents: bd.RatePerDayCents,
		BaseTotalCents:  bd.BaseTotalCents,
		DepositCents:    bd.DepositCents,
		AmountDueCents:  bd.AmountDueCents,
		Currency:        bd.Currency,
		ShareURL:        result.ShareLinkURL,
	})
	if err != nil {
		slog.Error("email_event", "event", "render_failed", "booking_id", b.ID, "error", err.Error())
		return
	}
	sendEmail(ctx, deps.SideEffects, req, deps.GenerateID, deps.Now)
}
