package booking

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrPaymentNotCompleted means the deposit confirmation is absent or unpaid.
	ErrPaymentNotCompleted = errors.New("deposit payment not completed")
	ErrBookingNotFound     = errors.New("booking not found")
	// ErrMissingPaymentMethod means no reusable card could be resolved, even after repair.
	ErrMissingPaymentMethod = errors.New("missing customer or payment method")
	ErrNothingToCharge      = errors.New("nothing to charge; final amount is zero or negative")
	ErrChargeDeclined       = errors.New("final charge declined")
	ErrProcessor            = errors.New("payment processor error")
	ErrAlreadyFinalPaid     = errors.New("booking is already final paid")
	// ErrDuplicateCheckoutSession is returned by stores when the unique checkout-session index rejects an insert.
	ErrDuplicateCheckoutSession = errors.New("booking already exists for checkout session")
	ErrForeignReference         = errors.New("referenced contact or showroom belongs to another client")
	// ErrChargeAmountChanged means an unresolved attempt under the same idempotency key used another amount.
	// The processor keeps keys for 24 hours; rerun with the original amount to settle that attempt.
	ErrChargeAmountChanged = errors.New("final charge amount differs from the pending attempt; rerun with the original amount")
)

// DeclineError carries the processor's decline detail and matches ErrChargeDeclined.
type DeclineError struct {
	BookingID       string
	PaymentIntentID string
	Code            string
	Message         string
}

// Error implements error.
func (e *DeclineError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "card declined"
	}
	if e.Code != "" {
		return fmt.Sprintf("final charge declined for booking %s: %s (%s)", e.BookingID, msg, e.Code)
	}
	return fmt.Sprintf("final charge declined for booking %s: %s", e.BookingID, msg)
}

// Unwrap lets errors.Is match ErrChargeDeclined.
func (e *DeclineError) Unwrap() error {
	return ErrChargeDeclined
}
