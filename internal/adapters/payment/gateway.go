package payment

import (
	"context"
	"errors"
	"fmt"

	"smithagency/internal/domain/booking"
)

// Checkout session payment status once the deposit has been captured.
const StatusPaid = "paid"

// Charge outcomes reported by ChargeOffSession.
const (
	ChargeSucceeded      = "succeeded"
	ChargeRequiresAction = "requires_action"
	ChargeProcessing     = "processing"
)

// CheckoutRequest describes a hosted deposit payment.
type CheckoutRequest struct {
	CustomerID  string
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is a created hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// Confirmation is the processor's record of a completed deposit checkout.
type Confirmation struct {
	CheckoutSessionID   string
	PaymentIntentID     string
	PaymentMethodID     string
	CustomerID          string
	AmountCapturedCents int64
	BookingFeeCents     int64
	Currency            string
	Status              string
	// Metadata merges the session metadata over the payment intent metadata.
	Metadata map[string]string
}

// References returns the reusable processor references carried by the confirmation.
func (c Confirmation) References() booking.PaymentReferences {
	return booking.PaymentReferences{CustomerID: c.CustomerID, PaymentMethodID: c.PaymentMethodID}
}

// ChargeRequest is an off-session charge against a saved card.
type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	Description     string
	Metadata        map[string]string
	IdempotencyKey  string
}

// ChargeResult is the processor's answer to a charge that was not declined.
type ChargeResult struct {
	ID          string
	Status      string
	RedirectURL string // set when Status is ChargeRequiresAction
}

// ErrIdempotencyConflict means an idempotency key was reused with different request parameters.
var ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")

// CardError is a charge the issuer refused.
type CardError struct {
	PaymentIntentID string
	Code            string
	DeclineCode     string
	Message         string
}

// Error implements error.
func (e *CardError) Error() string {
	code := e.DeclineCode
	if code == "" {
		code = e.Code
	}
	return fmt.Sprintf("card error %s: %s", code, e.Message)
}

// Gateway is the payment processor port.
type Gateway interface {
	// FindOrCreateCustomer returns the processor customer for email, creating it if absent.
	FindOrCreateCustomer(ctx context.Context, email, name, clientID string) (string, error)

	// CreateCheckoutSession creates a hosted deposit payment that saves the card for later.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)

	// GetCheckoutSession retrieves a session with its payment intent expanded.
	GetCheckoutSession(ctx context.Context, sessionID string) (Confirmation, error)

	// PaymentIntentReferences reads the customer and card used by a payment intent.
	PaymentIntentReferences(ctx context.Context, paymentIntentID string) (booking.PaymentReferences, error)

	// ChargeOffSession charges a saved card without the customer present.
	// Returns *CardError when the issuer declines.
	ChargeOffSession(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
