package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = `SELECT id, client_id, client_email, company_name, show_id, show_name, contact_id, showroom_id,
	notes, requested_date, status, dates_needed, total_staff_needed,
	booking_fee_cents, booking_fee_cents_paid, rate_per_day_cents, payment_status,
	stripe_checkout_session_id, stripe_payment_intent_id, stripe_payment_method_id, stripe_customer_id, currency,
	final_charge_cents, final_charge_payment_intent_id, final_charge_attempts, created_at, updated_at
	FROM booking`

// SQLiteStore implements the booking Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a booking by its ID.
// PRE: id is non-empty
// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	return b, err
}

// GetByCheckoutSession retrieves the booking created for a checkout session.
// PRE: sessionID is non-empty
// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
func (s *SQLiteStore) GetByCheckoutSession(ctx context.Context, sessionID string) (domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, selectColumns+` WHERE stripe_checkout_session_id = ?`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, fmt.Errorf("%w: checkout session %s", domain.ErrBookingNotFound, sessionID)
	}
	return b, err
}

// Create inserts a new booking.
// PRE: b has been validated
// POST: Booking persisted, or domain.ErrDuplicateCheckoutSession on a unique index conflict
func (s *SQLiteStore) Create(ctx context.Context, b domain.Booking) error {
	dates, err := json.Marshal(nonNilDates(b.DatesNeeded))
	if err != nil {
		return fmt.Errorf("encode dates needed: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO booking (id, client_id, client_email, company_name, show_id, show_name, contact_id, showroom_id,
			notes, requested_date, status, dates_needed, total_staff_needed,
			booking_fee_cents, booking_fee_cents_paid, rate_per_day_cents, payment_status,
			stripe_checkout_session_id, stripe_payment_intent_id, stripe_payment_method_id, stripe_customer_id, currency,
			final_charge_cents, final_charge_payment_intent_id, final_charge_attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ClientID, b.ClientEmail, b.CompanyName, b.ShowID, b.ShowName, b.ContactID, b.ShowroomID,
		b.Notes, b.RequestedDate, b.Status, string(dates), b.TotalStaffNeeded,
		b.BookingFeeCents, b.BookingFeeCentsPaid, b.RatePerDayCents, b.PaymentStatus,
		b.StripeCheckoutSessionID, b.StripePaymentIntentID, b.StripePaymentMethodID, b.StripeCustomerID, b.CurrencyOrDefault(),
		b.FinalChargeCents, b.FinalChargePaymentIntentID, b.FinalChargeAttempts,
		b.CreatedAt.UTC().Format(dateLayout), b.UpdatedAt.UTC().Format(dateLayout))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateCheckoutSession, b.StripeCheckoutSessionID)
	}
	return err
}

// ListByClient returns a client's bookings, newest first.
// PRE: clientID is non-empty
// POST: Returns all bookings owned by the client
func (s *SQLiteStore) ListByClient(ctx context.Context, clientID string) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE client_id = ? ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BackfillPaymentReferences writes each reference only where the stored value is still empty.
// PRE: id is non-empty
// POST: Returns true if any field was written
func (s *SQLiteStore) BackfillPaymentReferences(ctx context.Context, id string, refs domain.PaymentReferences, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE booking SET
		   stripe_customer_id = CASE WHEN stripe_customer_id = '' THEN ? ELSE stripe_customer_id END,
		   stripe_payment_method_id = CASE WHEN stripe_payment_method_id = '' THEN ? ELSE stripe_payment_method_id END,
		   updated_at = ?
		 WHERE id = ?
		   AND ((stripe_customer_id = '' AND ? != '') OR (stripe_payment_method_id = '' AND ? != ''))`,
		refs.CustomerID, refs.PaymentMethodID, now.UTC().Format(dateLayout), id,
		refs.CustomerID, refs.PaymentMethodID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFinalPaid moves payment status to final_paid if it is not already.
// PRE: id is non-empty
// POST: Booking updated, or domain.ErrAlreadyFinalPaid / domain.ErrBookingNotFound
func (s *SQLiteStore) MarkFinalPaid(ctx context.Context, id string, amountCents int64, chargeID string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE booking SET payment_status = ?, final_charge_cents = ?, final_charge_payment_intent_id = ?, updated_at = ?
		 WHERE id = ? AND payment_status != ?`,
		domain.PaymentStatusFinalPaid, amountCents, chargeID, now.UTC().Format(dateLayout),
		id, domain.PaymentStatusFinalPaid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrAlreadyFinalPaid, id)
}

// IncrementFinalChargeAttempts bumps the attempt counter after a declined charge.
// PRE: id is non-empty
// POST: FinalChargeAttempts incremented by one
func (s *SQLiteStore) IncrementFinalChargeAttempts(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE booking SET final_charge_attempts = final_charge_attempts + 1, updated_at = ? WHERE id = ?`,
		now.UTC().Format(dateLayout), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var dates, createdAt, updatedAt string
	err := row.Scan(
		&b.ID, &b.ClientID, &b.ClientEmail, &b.CompanyName, &b.ShowID, &b.ShowName, &b.ContactID, &b.ShowroomID,
		&b.Notes, &b.RequestedDate, &b.Status, &dates, &b.TotalStaffNeeded,
		&b.BookingFeeCents, &b.BookingFeeCentsPaid, &b.RatePerDayCents, &b.PaymentStatus,
		&b.StripeCheckoutSessionID, &b.StripePaymentIntentID, &b.StripePaymentMethodID, &b.StripeCustomerID, &b.Currency,
		&b.FinalChargeCents, &b.FinalChargePaymentIntentID, &b.FinalChargeAttempts, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := json.Unmarshal([]byte(dates), &b.DatesNeeded); err != nil {
		return domain.Booking{}, fmt.Errorf("decode dates needed for booking %s: %w", b.ID, err)
	}
	b.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	b.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return b, nil
}

func nonNilDates(d []pricing.DateNeed) []pricing.DateNeed {
	if d == nil {
		return []pricing.DateNeed{}
	}
	return d
}
