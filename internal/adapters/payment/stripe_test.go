package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

// newTestGateway points a gateway at handler instead of the Stripe API.
func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGatewayWithBackends("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestChargeOffSession_Succeeded(t *testing.T) {
	var gotKey string
	var gotForm url.Values
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_final","object":"payment_intent","status":"succeeded","amount":110000}`)
	})

	res, err := g.ChargeOffSession(context.Background(), ChargeRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		AmountCents:     110000,
		Currency:        "usd",
		Description:     "Final charge",
		Metadata:        map[string]string{"bookingId": "bk-1", "type": "final_charge"},
		IdempotencyKey:  "final-charge:bk-1:0",
	})
	if err != nil {
		t.Fatalf("ChargeOffSession: %v", err)
	}
	if res.ID != "pi_final" || res.Status != ChargeSucceeded {
		t.Errorf("unexpected result: %+v", res)
	}
	if gotKey != "final-charge:bk-1:0" {
		t.Errorf("Idempotency-Key = %q", gotKey)
	}
	if gotForm.Get("off_session") != "true" || gotForm.Get("confirm") != "true" {
		t.Errorf("expected off-session confirm, got %v", gotForm)
	}
	if gotForm.Get("metadata[type]") != "final_charge" || gotForm.Get("amount") != "110000" {
		t.Errorf("unexpected form: %v", gotForm)
	}
}

func TestChargeOffSession_RequiresAction(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_3ds","object":"payment_intent","status":"requires_action",
			"next_action":{"type":"redirect_to_url","redirect_to_url":{"url":"https://hooks.stripe.com/3ds"}}}`)
	})

	res, err := g.ChargeOffSession(context.Background(), ChargeRequest{CustomerID: "cus_1", PaymentMethodID: "pm_1", AmountCents: 100, Currency: "usd"})
	if err != nil {
		t.Fatalf("ChargeOffSession: %v", err)
	}
	if res.Status != ChargeRequiresAction || res.RedirectURL != "https://hooks.stripe.com/3ds" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestChargeOffSession_CardDeclined(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds",
			"message":"Your card has insufficient funds.",
			"payment_intent":{"id":"pi_declined","object":"payment_intent","status":"requires_payment_method"}}}`)
	})

	_, err := g.ChargeOffSession(context.Background(), ChargeRequest{CustomerID: "cus_1", PaymentMethodID: "pm_1", AmountCents: 100, Currency: "usd"})
	var ce *CardError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CardError, got %v", err)
	}
	if ce.DeclineCode != "insufficient_funds" || ce.PaymentIntentID != "pi_declined" {
		t.Errorf("unexpected card error: %+v", ce)
	}
}

func TestChargeOffSession_ProcessorError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"No such customer"}}`)
	})

	_, err := g.ChargeOffSession(context.Background(), ChargeRequest{CustomerID: "cus_x", PaymentMethodID: "pm_1", AmountCents: 100, Currency: "usd"})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CardError
	if errors.As(err, &ce) {
		t.Errorf("invalid request must not be reported as a decline: %v", err)
	}
}

func TestChargeOffSession_IdempotencyConflict(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Idempotency-Key"); got != "final-charge:bk-1:0" {
			t.Errorf("Idempotency-Key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"idempotency_error","message":"Keys for idempotent requests can only be used with the same parameters they were first used with."}}`)
	})

	_, err := g.ChargeOffSession(context.Background(), ChargeRequest{
		CustomerID: "cus_1", PaymentMethodID: "pm_1", AmountCents: 5000, Currency: "usd", IdempotencyKey: "final-charge:bk-1:0",
	})
	if !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestConfirmationFromSession_MergesMetadata(t *testing.T) {
	s := &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Currency:      stripe.CurrencyUSD,
		AmountTotal:   10000,
		Metadata:      map[string]string{"clientId": "client-1", "showId": "show-1"},
		PaymentIntent: &stripe.PaymentIntent{
			ID:             "pi_1",
			AmountReceived: 10000,
			Customer:       &stripe.Customer{ID: "cus_1"},
			PaymentMethod:  &stripe.PaymentMethod{ID: "pm_1"},
			Metadata:       map[string]string{"showId": "stale", "notes": "bring badges"},
		},
	}
	c := confirmationFromSession(s)
	if c.Status != StatusPaid || c.CustomerID != "cus_1" || c.PaymentMethodID != "pm_1" {
		t.Errorf("unexpected confirmation: %+v", c)
	}
	if c.Metadata["showId"] != "show-1" || c.Metadata["notes"] != "bring badges" {
		t.Errorf("session metadata must win over intent metadata: %v", c.Metadata)
	}
	if !c.References().Complete() {
		t.Error("expected complete references")
	}
}
