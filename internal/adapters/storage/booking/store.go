package booking

import (
	"context"
	"time"

	domain "smithagency/internal/domain/booking"
)

// Store defines the interface for booking persistence.
type Store interface {
	// GetByID retrieves a booking by its ID.
	// PRE: id is non-empty
	// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
	GetByID(ctx context.Context, id string) (domain.Booking, error)

	// GetByCheckoutSession retrieves the booking created for a checkout session.
	// PRE: sessionID is non-empty
	// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
	GetByCheckoutSession(ctx context.Context, sessionID string) (domain.Booking, error)

	// Create inserts a new booking.
	// PRE: b has been validated
	// POST: Booking persisted, or domain.ErrDuplicateCheckoutSession if the session already has one
	Create(ctx context.Context, b domain.Booking) error

	// ListByClient returns a client's bookings, newest first.
	// PRE: clientID is non-empty
	// POST: Returns all bookings owned by the client
	ListByClient(ctx context.Context, clientID string) ([]domain.Booking, error)

	// BackfillPaymentReferences writes each reference only where the stored value is still empty.
	// PRE: id is non-empty
	// POST: Returns true if any field was written
	BackfillPaymentReferences(ctx context.Context, id string, refs domain.PaymentReferences, now time.Time) (bool, error)

	// MarkFinalPaid moves payment status to final_paid if it is not already.
	// PRE: id is non-empty
	// POST: Booking updated, or domain.ErrAlreadyFinalPaid / domain.ErrBookingNotFound
	MarkFinalPaid(ctx context.Context, id string, amountCents int64, chargeID string, now time.Time) error

	// IncrementFinalChargeAttempts bumps the attempt counter after a declined charge.
	// PRE: id is non-empty
	// POST: FinalChargeAttempts incremented by one
	IncrementFinalChargeAttempts(ctx context.Context, id string, now time.Time) error
}

// Ensure implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)
