package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smithagency/internal/adapters/events"
	"smithagency/internal/adapters/lock"
	"smithagency/internal/adapters/payment"
	domainAudit "smithagency/internal/domain/audit"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
)

// DefaultFinalChargeLockTTL bounds how long one invocation may hold a booking.
const DefaultFinalChargeLockTTL = 2 * time.Minute

// Amount sources reported on FinalChargeResult.
const (
	AmountSourceOverrideAmount = "override_amount"
	AmountSourceOverrideRate   = "override_rate"
	AmountSourceFinalFee       = "final_fee"
	AmountSourceComputed       = "computed"
)

// FinalChargeBookingStore is the booking persistence the reconciler needs.
type FinalChargeBookingStore interface {
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	BackfillPaymentReferences(ctx context.Context, id string, refs booking.PaymentReferences, now time.Time) (bool, error)
	MarkFinalPaid(ctx context.Context, id string, amountCents int64, chargeID string, now time.Time) error
	IncrementFinalChargeAttempts(ctx context.Context, id string, now time.Time) error
}

// AuditWriter persists audit events.
type AuditWriter interface {
	Save(ctx context.Context, event domainAudit.Event) error
}

// FinalChargeInput carries data for the final-charge reconciler.
type FinalChargeInput struct {
	BookingID           string
	DryRun              bool
	OverrideAmountCents *int64
	OverrideRateCents   *int64
	FinalFeeCents       *int64
	ActorID             string
	ActorRole           string
}

// FinalChargeDeps holds dependencies for ExecuteFinalCharge.
type FinalChargeDeps struct {
	BookingStore FinalChargeBookingStore
	Gateway      payment.Gateway
	Locker       lock.Locker
	AuditStore   AuditWriter
	SideEffects  SideEffectDeps
	LockTTL      time.Duration
	GenerateID   func() string
	Now          func() time.Time
}

// FinalChargeResult reports what the reconciler computed and did.
type FinalChargeResult struct {
	BookingID           string
	DryRun              bool
	Computed            pricing.Breakdown
	AmountToChargeCents int64
	AmountSource        string
	Success             bool
	RequiresAction      bool
	ActionURL           string
	PaymentIntentID     string
	Status              string
	RepairedReferences  bool
}

// ExecuteFinalCharge charges the outstanding balance of a booking against its saved card.
// PRE: input.BookingID is non-empty
// POST: On success the booking is final_paid with FinalChargeCents and FinalChargePaymentIntentID set
// POST: On error the result still carries the computed breakdown once the booking was loaded
// INVARIANT: A booking is charged at most once; dry runs have no side effects
func ExecuteFinalCharge(ctx context.Context, input FinalChargeInput, deps FinalChargeDeps) (FinalChargeResult, error) {
	if input.BookingID == "" {
		return FinalChargeResult{}, errors.New("booking id is required")
	}

	b, err := deps.BookingStore.GetByID(ctx, input.BookingID)
	if err != nil {
		return FinalChargeResult{}, fmt.Errorf("load booking %s: %w", input.BookingID, err)
	}

	computed := b.Breakdown()
	amount, source := chargeAmount(input, computed)
	result := FinalChargeResult{
		BookingID:           b.ID,
		DryRun:              input.DryRun,
		Computed:            computed,
		AmountToChargeCents: amount,
		AmountSource:        source,
	}

	if input.DryRun {
		slog.Info("billing_event", "event", "final_charge_dry_run", "booking_id", b.ID, "amount_cents", amount, "source", source)
		return result, nil
	}
	if b.IsFinalPaid() {
		return result, fmt.Errorf("charge booking %s: %w", b.ID, booking.ErrAlreadyFinalPaid)
	}
	if amount <= 0 {
		slog.Info("billing_event", "event", "final_charge_nothing_due", "booking_id", b.ID, "source", source)
		return result, fmt.Errorf("charge booking %s: %w", b.ID, booking.ErrNothingToCharge)
	}

	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = DefaultFinalChargeLockTTL
	}
	release, err := deps.Locker.Acquire(ctx, "final-charge:"+b.ID, ttl)
	if err != nil {
		return result, fmt.Errorf("lock booking %s: %w", b.ID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("billing_event", "event", "final_charge_unlock_failed", "booking_id", b.ID, "error", err.Error())
		}
	}()

	// Re-read under the lock: a concurrent invocation may have finished or bumped the attempt counter.
	b, err = deps.BookingStore.GetByID(ctx, input.BookingID)
	if err != nil {
		return result, fmt.Errorf("reload booking %s: %w", input.BookingID, err)
	}
	if b.IsFinalPaid() {
		return result, fmt.Errorf("charge booking %s: %w", b.ID, booking.ErrAlreadyFinalPaid)
	}

	refs, repaired, err := resolvePaymentReferences(ctx, b, input, deps)
	if err != nil {
		return result, err
	}
	result.RepairedReferences = repaired

	charge, err := deps.Gateway.ChargeOffSession(ctx, payment.ChargeRequest{
		CustomerID:      refs.CustomerID,
		PaymentMethodID: refs.PaymentMethodID,
		AmountCents:     amount,
		Currency:        b.CurrencyOrDefault(),
		Description:     "Final charge for booking " + b.ID,
		Metadata:        map[string]string{"bookingId": b.ID, "type": "final_charge"},
		IdempotencyKey:  b.FinalChargeIdempotencyKey(),
	})
	if err != nil {
		var cardErr *payment.CardError
		if errors.As(err, &cardErr) {
			return result, recordDecline(ctx, b, amount, cardErr, input, deps)
		}
		if errors.Is(err, payment.ErrIdempotencyConflict) {
			slog.Warn("billing_event", "event", "final_charge_amount_changed", "booking_id", b.ID, "amount_cents", amount,
				"idempotency_key", b.FinalChargeIdempotencyKey())
			return result, fmt.Errorf("charge booking %s: %w", b.ID, booking.ErrChargeAmountChanged)
		}
		slog.Error("billing_event", "event", "final_charge_processor_error", "booking_id", b.ID, "error", err.Error())
		return result, fmt.Errorf("charge booking %s: %w: %w", b.ID, booking.ErrProcessor, err)
	}

	result.PaymentIntentID = charge.ID
	result.Status = charge.Status

	switch charge.Status {
	case payment.ChargeSucceeded:
		if err := deps.BookingStore.MarkFinalPaid(ctx, b.ID, amount, charge.ID, deps.Now()); err != nil {
			// The processor took the money; a retry reuses the idempotency key and lands here again.
			slog.Error("billing_event", "event", "final_charge_record_failed", "booking_id", b.ID, "payment_intent_id", charge.ID, "error", err.Error())
			return result, fmt.Errorf("record final charge booking %s: %w", b.ID, err)
		}
		result.Success = true
		slog.Info("billing_event", "event", "final_charge_succeeded", "booking_id", b.ID, "payment_intent_id", charge.ID, "amount_cents", amount)
		writeAudit(ctx, deps.AuditStore, domainAudit.NewEvent(deps.GenerateID(), deps.Now(), actorOrSystem(input.ActorID), input.ActorRole, domainAudit.CategoryBilling, domainAudit.ActionCharge).
			WithResource(domainAudit.ResourceBooking, b.ID).
			WithDescription("Final charge succeeded").
			WithMetadata(map[string]any{"amount_cents": amount, "source": source, "payment_intent_id": charge.ID}))
		publishEvent(ctx, deps.SideEffects, events.Event{
			Type:       events.TypeBookingFinalCharged,
			ResourceID: b.ID,
			Data: map[string]any{
				"client_id":         b.ClientID,
				"amount_cents":      amount,
				"currency":          b.CurrencyOrDefault(),
				"payment_intent_id": charge.ID,
			},
		}, deps.GenerateID, deps.Now)
	case payment.ChargeRequiresAction:
		result.RequiresAction = true
		result.ActionURL = charge.RedirectURL
		slog.Info("billing_event", "event", "final_charge_requires_action", "booking_id", b.ID, "payment_intent_id", charge.ID)
	default:
		slog.Warn("billing_event", "event", "final_charge_pending", "booking_id", b.ID, "payment_intent_id", charge.ID, "status", charge.Status)
	}
	return result, nil
}

// chargeAmount applies the operator override precedence.
// INVARIANT: override amount > override rate > final fee > computed amount due
func chargeAmount(input FinalChargeInput, computed pricing.Breakdown) (int64, string) {
	switch {
	case input.OverrideAmountCents != nil:
		return *input.OverrideAmountCents, AmountSourceOverrideAmount
	case input.OverrideRateCents != nil:
		base := pricing.ComputeBaseTotalCents(computed.TotalStaffDays, *input.OverrideRateCents)
		return pricing.ComputeAmountDueCents(base, computed.DepositCents), AmountSourceOverrideRate
	case input.FinalFeeCents != nil:
		return *input.FinalFeeCents, AmountSourceFinalFee
	default:
		return computed.AmountDueCents, AmountSourceComputed
	}
}

// resolvePaymentReferences returns the customer and card to charge, repairing missing
// references from the deposit checkout session and then its payment intent.
// POST: Newly recovered references are backfilled onto the booking
func resolvePaymentReferences(ctx context.Context, b booking.Booking, input FinalChargeInput, deps FinalChargeDeps) (booking.PaymentReferences, bool, error) {
	refs := b.References()
	if refs.Complete() {
		return refs, false, nil
	}

	var recovered booking.PaymentReferences
	var lookupErr error
	merge := func(found booking.PaymentReferences) {
		if refs.CustomerID == "" && found.CustomerID != "" {
			refs.CustomerID = found.CustomerID
			recovered.CustomerID = found.CustomerID
		}
		if refs.PaymentMethodID == "" && found.PaymentMethodID != "" {
			refs.PaymentMethodID = found.PaymentMethodID
			recovered.PaymentMethodID = found.PaymentMethodID
		}
	}

	if b.StripeCheckoutSessionID != "" {
		conf, err := deps.Gateway.GetCheckoutSession(ctx, b.StripeCheckoutSessionID)
		if err != nil {
			lookupErr = err
			slog.Warn("billing_event", "event", "repair_session_lookup_failed", "booking_id", b.ID, "error", err.Error())
		} else {
			merge(conf.References())
		}
	}

	if !refs.Complete() && b.StripePaymentIntentID != "" {
		found, err := deps.Gateway.PaymentIntentReferences(ctx, b.StripePaymentIntentID)
		if err != nil {
			lookupErr = err
			slog.Warn("billing_event", "event", "repair_intent_lookup_failed", "booking_id", b.ID, "error", err.Error())
		} else {
			merge(found)
		}
	}

	repaired := recovered.CustomerID != "" || recovered.PaymentMethodID != ""
	if repaired {
		if _, err := deps.BookingStore.BackfillPaymentReferences(ctx, b.ID, recovered, deps.Now()); err != nil {
			return refs, false, fmt.Errorf("backfill payment references booking %s: %w", b.ID, err)
		}
		slog.Info("billing_event", "event", "payment_references_repaired", "booking_id", b.ID,
			"customer", recovered.CustomerID != "", "payment_method", recovered.PaymentMethodID != "")
		writeAudit(ctx, deps.AuditStore, domainAudit.NewEvent(deps.GenerateID(), deps.Now(), actorOrSystem(input.ActorID), input.ActorRole, domainAudit.CategoryBilling, domainAudit.ActionRepair).
			WithResource(domainAudit.ResourceBooking, b.ID).
			WithDescription("Recovered payment references from processor").
			WithMetadata(map[string]any{"customer_id": recovered.CustomerID, "payment_method_id": recovered.PaymentMethodID}))
	}

	if !refs.Complete() {
		if lookupErr != nil {
			return refs, repaired, fmt.Errorf("resolve payment method booking %s: %w: %w", b.ID, booking.ErrProcessor, lookupErr)
		}
		return refs, repaired, fmt.Errorf("resolve payment method booking %s: %w", b.ID, booking.ErrMissingPaymentMethod)
	}
	return refs, repaired, nil
}

// recordDecline bumps the attempt counter and reports the decline.
// POST: Returns a *booking.DeclineError
func recordDecline(ctx context.Context, b booking.Booking, amount int64, cardErr *payment.CardError, input FinalChargeInput, deps FinalChargeDeps) error {
	code := cardErr.DeclineCode
	if code == "" {
		code = cardErr.Code
	}
	slog.Warn("billing_event", "event", "final_charge_declined", "booking_id", b.ID, "code", code)

	if err := deps.BookingStore.IncrementFinalChargeAttempts(ctx, b.ID, deps.Now()); err != nil {
		slog.Error("billing_event", "event", "attempt_increment_failed", "booking_id", b.ID, "error", err.Error())
	}
	writeAudit(ctx, deps.AuditStore, domainAudit.NewEvent(deps.GenerateID(), deps.Now(), actorOrSystem(input.ActorID), input.ActorRole, domainAudit.CategoryBilling, domainAudit.ActionDecline).
		WithSeverity(domainAudit.SeverityWarning).
		WithResource(domainAudit.ResourceBooking, b.ID).
		WithDescription("Final charge declined").
		WithMetadata(map[string]any{"amount_cents": amount, "code": code, "attempt": b.FinalChargeAttempts}))
	publishEvent(ctx, deps.SideEffects, events.Event{
		Type:       events.TypeBookingFinalDeclined,
		ResourceID: b.ID,
		Data:       map[string]any{"client_id": b.ClientID, "amount_cents": amount, "code": code},
	}, deps.GenerateID, deps.Now)

	return &booking.DeclineError{
		BookingID:       b.ID,
		PaymentIntentID: cardErr.PaymentIntentID,
		Code:            code,
		Message:         cardErr.Message,
	}
}

// writeAudit persists an audit event. A nil store or a failed write is logged only.
func writeAudit(ctx context.Context, store AuditWriter, ev domainAudit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, ev); err != nil {
		slog.Error("audit_event", "event", "save_failed", "action", string(ev.Action), "resource_id", ev.ResourceID, "error", err.Error())
	}
}

func actorOrSystem(id string) string {
	if id == "" {
		return "system"
	}
	return id
}
