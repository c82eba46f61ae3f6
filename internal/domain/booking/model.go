package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"smithagency/internal/domain/pricing"
)

// Workflow status constants.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Payment status constants. A booking only moves forward: deposit_paid -> final_paid.
const (
	PaymentStatusDepositPaid = "deposit_paid"
	PaymentStatusFinalPaid   = "final_paid"
)

// MaxNotesLength bounds the free-text notes a client can attach.
const MaxNotesLength = 2000

// Payment is the payment sub-record of a booking.
// BookingFeeCentsPaid is the canonical deposit credited against the final total.
type Payment struct {
	BookingFeeCents            int64  `bson:"bookingFeeCents"`
	BookingFeeCentsPaid        int64  `bson:"bookingFeeCentsPaid"`
	RatePerDayCents            int64  `bson:"ratePerDayCents"`
	PaymentStatus              string `bson:"paymentStatus"`
	StripeCheckoutSessionID    string `bson:"stripeCheckoutSessionId"`
	StripePaymentIntentID      string `bson:"stripePaymentIntentId"`
	StripePaymentMethodID      string `bson:"stripePaymentMethodId"`
	StripeCustomerID           string `bson:"stripeCustomerId"`
	Currency                   string `bson:"currency"`
	FinalChargeCents           int64  `bson:"finalChargeCents"`
	FinalChargePaymentIntentID string `bson:"finalChargePaymentIntentId"`
	// FinalChargeAttempts counts declined final charges; it scopes the processor idempotency key.
	FinalChargeAttempts int `bson:"finalChargeAttempts"`
}

// Booking is a client's staffing engagement for one show.
type Booking struct {
	ID               string             `bson:"_id"`
	ClientID         string             `bson:"clientId"`
	ClientEmail      string             `bson:"clientEmail"`
	CompanyName      string             `bson:"companyName"`
	ShowID           string             `bson:"showId"`
	ShowName         string             `bson:"showName"`
	ContactID        string             `bson:"contactId"`
	ShowroomID       string             `bson:"showroomId"`
	Notes            string             `bson:"notes"`
	RequestedDate    string             `bson:"date"`
	Status           string             `bson:"status"`
	DatesNeeded      []pricing.DateNeed `bson:"datesNeeded"`
	TotalStaffNeeded int                `bson:"totalStaffNeeded"`
	Payment          `bson:",inline"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

// PaymentReferences are the processor references needed for an off-session charge.
type PaymentReferences struct {
	CustomerID      string
	PaymentMethodID string
}

// Complete reports whether both references are present.
func (r PaymentReferences) Complete() bool {
	return r.CustomerID != "" && r.PaymentMethodID != ""
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ClientID and StripeCheckoutSessionID are non-empty, TotalStaffNeeded matches DatesNeeded
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ClientID) == "" {
		return errors.New("booking client id cannot be empty")
	}
	if strings.TrimSpace(b.StripeCheckoutSessionID) == "" {
		return errors.New("booking checkout session id cannot be empty")
	}
	if len(b.Notes) > MaxNotesLength {
		return errors.New("booking notes cannot exceed 2000 characters")
	}
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusCancelled:
	default:
		return errors.New("status must be 'pending', 'confirmed', or 'cancelled'")
	}
	switch b.PaymentStatus {
	case PaymentStatusDepositPaid, PaymentStatusFinalPaid:
	default:
		return errors.New("payment status must be 'deposit_paid' or 'final_paid'")
	}
	if b.BookingFeeCentsPaid < 0 || b.BookingFeeCents < 0 {
		return errors.New("booking fee cannot be negative")
	}
	if pricing.ComputeTotalStaffDays(b.Plan()) != b.TotalStaffNeeded {
		return errors.New("total staff needed does not match dates needed")
	}
	return nil
}

// Plan rebuilds the staffing plan from the persisted schedule.
// INVARIANT: Booking fields are not mutated
func (b *Booking) Plan() pricing.StaffingPlan {
	return pricing.PlanFromDates(b.DatesNeeded)
}

// DepositCents returns the deposit credited against the final total.
// Legacy rows are normalised by migration, so only the canonical field is read.
func (b *Booking) DepositCents() int64 {
	return b.BookingFeeCentsPaid
}

// RateCents returns the per-staff-day rate stamped at booking time.
func (b *Booking) RateCents() int64 {
	return b.RatePerDayCents
}

// CurrencyOrDefault returns the booking currency, defaulting to usd.
func (b *Booking) CurrencyOrDefault() string {
	if b.Currency == "" {
		return pricing.DefaultCurrency
	}
	return b.Currency
}

// Breakdown computes the billing summary from the persisted schedule and stamped rates.
// INVARIANT: Booking fields are not mutated
func (b *Booking) Breakdown() pricing.Breakdown {
	return pricing.Quote(b.Plan(), b.RateCents(), b.DepositCents(), b.CurrencyOrDefault())
}

// IsFinalPaid returns true once the balance has been charged.
func (b *Booking) IsFinalPaid() bool {
	return b.PaymentStatus == PaymentStatusFinalPaid
}

// References returns the processor references currently recorded on the booking.
func (b *Booking) References() PaymentReferences {
	return PaymentReferences{CustomerID: b.StripeCustomerID, PaymentMethodID: b.StripePaymentMethodID}
}

// MarkFinalPaid records a successful final charge.
// PRE: chargeID is the processor's reference for the succeeded charge
// POST: PaymentStatus is final_paid, final charge fields and UpdatedAt are set
func (b *Booking) MarkFinalPaid(amountCents int64, chargeID string, now time.Time) error {
	if b.IsFinalPaid() {
		return ErrAlreadyFinalPaid
	}
	b.PaymentStatus = PaymentStatusFinalPaid
	b.FinalChargeCents = amountCents
	b.FinalChargePaymentIntentID = chargeID
	b.UpdatedAt = now
	return nil
}

// FinalChargeIdempotencyKey scopes the processor idempotency key to the booking and attempt.
// A retried charge after a transport error reuses the key; a declined attempt bumps it.
// The amount is not part of the key, so a retry must repeat the amount of the unresolved attempt.
func (b *Booking) FinalChargeIdempotencyKey() string {
	return fmt.Sprintf("final-charge:%s:%d", b.ID, b.FinalChargeAttempts)
}
