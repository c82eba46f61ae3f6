package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"smithagency/internal/adapters/payment"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
	"smithagency/internal/domain/show"
)

// metadataNotesLimit caps notes carried in processor metadata.
const metadataNotesLimit = 200

// ErrEmptyStaffingPlan is returned when a checkout requests no staff-days.
var ErrEmptyStaffingPlan = errors.New("staffing plan must request at least one staff-day")

// ShowReader loads shows.
type ShowReader interface {
	GetByID(ctx context.Context, id string) (show.Show, error)
}

// CreateCheckoutInput carries data for creating a deposit checkout.
type CreateCheckoutInput struct {
	ClientID    string
	ClientEmail string
	CompanyName string
	Plan        pricing.StaffingPlan
	Draft       BookingDraft
}

// CreateCheckoutDeps holds dependencies for ExecuteCreateCheckoutSession.
type CreateCheckoutDeps struct {
	Gateway     payment.Gateway
	ShowStore   ShowReader
	ClientStore ClientReferenceStore
	Rates       pricing.Rates
	Currency    string
	BaseURL     string
}

// CreateCheckoutResult is the hosted payment page for the deposit.
type CreateCheckoutResult struct {
	SessionID string
	URL       string
	Quote     pricing.Breakdown
}

// ExecuteCreateCheckoutSession creates a hosted deposit payment that saves the card for the final charge.
// PRE: input.ClientID and input.ClientEmail identify the caller
// POST: Returns the processor session; nothing is persisted locally
// INVARIANT: Contact and showroom ids belong to the client before any money moves
// INVARIANT: The plan round-trips through session metadata as staffByDate JSON
func ExecuteCreateCheckoutSession(ctx context.Context, input CreateCheckoutInput, deps CreateCheckoutDeps) (CreateCheckoutResult, error) {
	if input.ClientID == "" || !strings.Contains(input.ClientEmail, "@") {
		return CreateCheckoutResult{}, errors.New("client id and email are required")
	}
	if pricing.ComputeTotalStaffDays(input.Plan) < 1 {
		return CreateCheckoutResult{}, ErrEmptyStaffingPlan
	}
	if len(input.Draft.Notes) > booking.MaxNotesLength {
		return CreateCheckoutResult{}, errors.New("booking notes cannot exceed 2000 characters")
	}
	if input.Draft.ShowID == "" {
		return CreateCheckoutResult{}, errors.New("show id is required")
	}

	s, err := deps.ShowStore.GetByID(ctx, input.Draft.ShowID)
	if err != nil {
		return CreateCheckoutResult{}, fmt.Errorf("load show %s: %w", input.Draft.ShowID, err)
	}
	if !s.IsActive() {
		return CreateCheckoutResult{}, fmt.Errorf("show %s: %w", s.ID, show.ErrShowInactive)
	}
	for _, need := range pricing.DatesNeeded(input.Plan) {
		if !s.Contains(need.Date) {
			return CreateCheckoutResult{}, fmt.Errorf("date %s not in %s to %s: %w", need.Date, s.StartDate, s.EndDate, show.ErrDateOutsideShow)
		}
	}

	if err := checkClientReferences(ctx, input.ClientID, input.Draft, deps.ClientStore); err != nil {
		return CreateCheckoutResult{}, err
	}

	rates := deps.Rates.WithDefaults()
	currency := deps.Currency
	if currency == "" {
		currency = pricing.DefaultCurrency
	}

	customerID, err := deps.Gateway.FindOrCreateCustomer(ctx, input.ClientEmail, input.CompanyName, input.ClientID)
	if err != nil {
		return CreateCheckoutResult{}, fmt.Errorf("find customer for client %s: %w: %w", input.ClientID, booking.ErrProcessor, err)
	}

	base := strings.TrimRight(deps.BaseURL, "/")
	session, err := deps.Gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		CustomerID:  customerID,
		AmountCents: rates.DepositCents,
		Currency:    currency,
		ProductName: "Booking deposit",
		SuccessURL:  base + "/client/portal?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   base + "/client/portal?depositCanceled=1",
		Metadata: map[string]string{
			"clientId":        input.ClientID,
			"contactId":       input.Draft.ContactID,
			"showroomId":      input.Draft.ShowroomID,
			"showId":          s.ID,
			"showName":        s.Name,
			"notes":           truncateRunes(input.Draft.Notes, metadataNotesLimit),
			"date":            input.Draft.Date,
			"staffByDate":     input.Plan.Encode(),
			"bookingFeeCents": strconv.FormatInt(rates.DepositCents, 10),
		},
	})
	if err != nil {
		return CreateCheckoutResult{}, fmt.Errorf("create checkout for client %s: %w: %w", input.ClientID, booking.ErrProcessor, err)
	}

	slog.Info("booking_event", "event", "checkout_session_created", "client_id", input.ClientID, "session_id", session.ID, "show_id", s.ID)

	return CreateCheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
		Quote:     pricing.Quote(input.Plan, rates.RatePerDayCents, rates.DepositCents, currency),
	}, nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
