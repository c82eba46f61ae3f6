package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"smithagency/internal/domain/booking"
)

// StripeGateway implements Gateway with the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway for secretKey.
// PRE: secretKey is a Stripe secret key
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

// NewStripeGatewayWithBackends creates a gateway on explicit backends, e.g. a test server.
func NewStripeGatewayWithBackends(secretKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, backends)}
}

// FindOrCreateCustomer returns the first customer with email, creating one tagged with clientID.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, email, name, clientID string) (string, error) {
	list := &stripe.CustomerListParams{Email: stripe.String(email)}
	list.Context = ctx
	list.Limit = stripe.Int64(1)
	iter := g.api.Customers.List(list)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("clientId", clientID)
	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	slog.Info("payment_event", "event", "customer_created", "customer_id", c.ID, "client_id", clientID)
	return c.ID, nil
}

// CreateCheckoutSession creates a hosted deposit payment that saves the card for off-session use.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer: stripe.String(req.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
			Metadata:         req.Metadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   req.Metadata,
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetCheckoutSession retrieves a session with its payment intent expanded.
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (Confirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Confirmation{}, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}
	return confirmationFromSession(s), nil
}

// confirmationFromSession flattens a session and its expanded payment intent.
func confirmationFromSession(s *stripe.CheckoutSession) Confirmation {
	c := Confirmation{
		CheckoutSessionID: s.ID,
		Status:            string(s.PaymentStatus),
		Currency:          string(s.Currency),
		Metadata:          map[string]string{},
	}
	if s.Customer != nil {
		c.CustomerID = s.Customer.ID
	}
	if pi := s.PaymentIntent; pi != nil {
		c.PaymentIntentID = pi.ID
		c.AmountCapturedCents = pi.AmountReceived
		if pi.PaymentMethod != nil {
			c.PaymentMethodID = pi.PaymentMethod.ID
		}
		if c.CustomerID == "" && pi.Customer != nil {
			c.CustomerID = pi.Customer.ID
		}
		for k, v := range pi.Metadata {
			c.Metadata[k] = v
		}
	}
	for k, v := range s.Metadata {
		c.Metadata[k] = v
	}
	if c.AmountCapturedCents == 0 {
		c.AmountCapturedCents = s.AmountTotal
	}
	return c
}

// PaymentIntentReferences reads the customer and card used by a payment intent.
func (g *StripeGateway) PaymentIntentReferences(ctx context.Context, paymentIntentID string) (booking.PaymentReferences, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return booking.PaymentReferences{}, fmt.Errorf("retrieve payment intent %s: %w", paymentIntentID, err)
	}
	var refs booking.PaymentReferences
	if pi.Customer != nil {
		refs.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		refs.PaymentMethodID = pi.PaymentMethod.ID
	}
	return refs, nil
}

// ChargeOffSession confirms an off-session payment intent for a saved card.
// A declined card returns *CardError; any other failure is returned wrapped.
func (g *StripeGateway) ChargeOffSession(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		Metadata:      req.Metadata,
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
			ce := &CardError{Code: string(se.Code), DeclineCode: string(se.DeclineCode), Message: se.Msg}
			if se.PaymentIntent != nil {
				ce.PaymentIntentID = se.PaymentIntent.ID
			}
			return ChargeResult{}, ce
		}
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeIdempotency {
			return ChargeResult{}, fmt.Errorf("create payment intent: %w: %s", ErrIdempotencyConflict, se.Msg)
		}
		return ChargeResult{}, fmt.Errorf("create payment intent: %w", err)
	}

	res := ChargeResult{ID: pi.ID, Status: string(pi.Status)}
	if pi.Status == stripe.PaymentIntentStatusRequiresAction && pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		res.RedirectURL = pi.NextAction.RedirectToURL.URL
	}
	return res, nil
}
