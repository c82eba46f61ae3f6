package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"smithagency/internal/adapters/payment"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
)

// ErrSessionClientMismatch is returned when a checkout session was created for another client.
var ErrSessionClientMismatch = errors.New("checkout session belongs to another client")

// ConfirmCheckoutInput carries data for confirming a deposit checkout.
type ConfirmCheckoutInput struct {
	SessionID string
	ClientID  string
}

// ConfirmCheckoutDeps holds dependencies for ExecuteConfirmCheckout.
type ConfirmCheckoutDeps struct {
	Gateway payment.Gateway
}

// ConfirmCheckoutResult is a paid checkout decoded into booking inputs.
type ConfirmCheckoutResult struct {
	Confirmation payment.Confirmation
	Plan         pricing.StaffingPlan
	Draft        BookingDraft
}

// ExecuteConfirmCheckout retrieves a checkout session and decodes the booking it paid for.
// PRE: input.SessionID and input.ClientID are non-empty
// POST: Returns the confirmation only when the session is paid and owned by the caller
func ExecuteConfirmCheckout(ctx context.Context, input ConfirmCheckoutInput, deps ConfirmCheckoutDeps) (ConfirmCheckoutResult, error) {
	if input.SessionID == "" || input.ClientID == "" {
		return ConfirmCheckoutResult{}, errors.New("session id and client id are required")
	}

	conf, err := deps.Gateway.GetCheckoutSession(ctx, input.SessionID)
	if err != nil {
		return ConfirmCheckoutResult{}, fmt.Errorf("retrieve session %s: %w: %w", input.SessionID, booking.ErrProcessor, err)
	}
	if conf.Status != payment.StatusPaid {
		return ConfirmCheckoutResult{}, fmt.Errorf("confirm session %s: %w", input.SessionID, booking.ErrPaymentNotCompleted)
	}

	md := conf.Metadata
	if md["clientId"] != input.ClientID {
		return ConfirmCheckoutResult{}, fmt.Errorf("confirm session %s: %w", input.SessionID, ErrSessionClientMismatch)
	}
	if conf.CheckoutSessionID == "" {
		conf.CheckoutSessionID = input.SessionID
	}
	if fee, err := strconv.ParseInt(md["bookingFeeCents"], 10, 64); err == nil && fee > 0 {
		conf.BookingFeeCents = fee
	}

	return ConfirmCheckoutResult{
		Confirmation: conf,
		Plan:         pricing.ParseStaffingPlanJSON(md["staffByDate"]),
		Draft: BookingDraft{
			ShowID:     md["showId"],
			ShowName:   md["showName"],
			ContactID:  md["contactId"],
			ShowroomID: md["showroomId"],
			Notes:      md["notes"],
			Date:       md["date"],
		},
	}, nil
}

// CompleteBookingInput carries data for confirming and materializing in one step.
type CompleteBookingInput struct {
	SessionID   string
	ClientID    string
	ClientEmail string
	CompanyName string
}

// CompleteBookingDeps holds dependencies for ExecuteCompleteBooking.
type CompleteBookingDeps struct {
	Confirm     ConfirmCheckoutDeps
	Materialize MaterializeBookingDeps
}

// ExecuteCompleteBooking confirms a paid checkout and materializes its booking.
// PRE: The caller is the client the checkout was created for
// POST: Exactly one booking exists for the session
func ExecuteCompleteBooking(ctx context.Context, input CompleteBookingInput, deps CompleteBookingDeps) (MaterializeBookingResult, error) {
	confirmed, err := ExecuteConfirmCheckout(ctx, ConfirmCheckoutInput{SessionID: input.SessionID, ClientID: input.ClientID}, deps.Confirm)
	if err != nil {
		return MaterializeBookingResult{}, err
	}
	return ExecuteMaterializeBooking(ctx, MaterializeBookingInput{
		ClientID:     input.ClientID,
		ClientEmail:  input.ClientEmail,
		CompanyName:  input.CompanyName,
		Plan:         confirmed.Plan,
		Draft:        confirmed.Draft,
		Confirmation: confirmed.Confirmation,
	}, deps.Materialize)
}
