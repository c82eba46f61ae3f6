package web

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"smithagency/internal/adapters/http/middleware"
	"smithagency/internal/adapters/payment"
	"smithagency/internal/application/projections"
	auditDomain "smithagency/internal/domain/audit"
)

func TestCreateCheckoutSession(t *testing.T) {
	e := newTestEnv(t)
	seedShow(t, e)
	tok := e.token(t, "client-1", "buyer@brand.example", middleware.RoleClient)

	t.Run("returns quote and hosted url", func(t *testing.T) {
		rr := e.do(t, "POST", "/api/stripe/create-checkout-session", map[string]any{
			"showId":      "show-1",
			"staffByDate": map[string]any{"2024-03-01": 2, "2024-03-02": "3"},
		}, tok)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		got := decodeBody[createCheckoutResponse](t, rr)
		if got.SessionID == "" || !strings.Contains(got.URL, got.SessionID) {
			t.Errorf("session = %q url = %q", got.SessionID, got.URL)
		}
		if got.Quote.TotalStaffDays != 5 {
			t.Errorf("TotalStaffDays = %d, want 5", got.Quote.TotalStaffDays)
		}
		if got.Quote.BaseTotalCents != 5*got.Quote.RatePerDayCents {
			t.Errorf("BaseTotalCents = %d, want %d", got.Quote.BaseTotalCents, 5*got.Quote.RatePerDayCents)
		}
		if len(e.gateway.checkouts) != 1 {
			t.Fatalf("checkouts = %d, want 1", len(e.gateway.checkouts))
		}
	})

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"empty plan", map[string]any{"showId": "show-1", "staffByDate": map[string]any{"2024-03-01": 0}}, http.StatusBadRequest},
		{"missing show id", map[string]any{"staffByDate": map[string]any{"2024-03-01": 1}}, http.StatusBadRequest},
		{"unknown show", map[string]any{"showId": "nope", "staffByDate": map[string]any{"2024-03-01": 1}}, http.StatusNotFound},
		{"date outside show", map[string]any{"showId": "show-1", "staffByDate": map[string]any{"2024-04-01": 1}}, http.StatusBadRequest},
		{"unknown contact", map[string]any{"showId": "show-1", "staffByDate": map[string]any{"2024-03-01": 1}, "contactId": "ct-missing"}, http.StatusBadRequest},
		{"unknown showroom", map[string]any{"showId": "show-1", "staffByDate": map[string]any{"2024-03-01": 1}, "showroomId": "sr-missing"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"showId": "show-1", "staffByDate": map[string]any{"2024-03-01": 1}, "extra": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, "POST", "/api/stripe/create-checkout-session", tt.body, tok)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func paidConfirmation(sessionID, clientID string) payment.Confirmation {
	return payment.Confirmation{
		CheckoutSessionID:   sessionID,
		PaymentIntentID:     "pi_" + sessionID,
		PaymentMethodID:     "pm_1",
		CustomerID:          "cus_1",
		AmountCapturedCents: 10000,
		BookingFeeCents:     10000,
		Currency:            "usd",
		Status:              payment.StatusPaid,
		Metadata: map[string]string{
			"clientId":        clientID,
			"showId":          "show-1",
			"showName":        "Atlanta Market",
			"staffByDate":     `{"2024-03-01":2,"2024-03-02":3}`,
			"bookingFeeCents": "10000",
		},
	}
}

func TestCompleteBooking_IdempotentAndShareable(t *testing.T) {
	e := newTestEnv(t)
	seedShow(t, e)
	e.gateway.sessions["cs_paid"] = paidConfirmation("cs_paid", "client-1")
	tok := e.token(t, "client-1", "buyer@brand.example", middleware.RoleClient)

	first := e.do(t, "POST", "/api/stripe/complete-booking", map[string]any{"sessionId": "cs_paid", "companyName": "Brand Co"}, tok)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d: %s", first.Code, first.Body.String())
	}
	created := decodeBody[completeBookingResponse](t, first)
	if !created.Created || created.BookingID == "" {
		t.Fatalf("first response = %+v", created)
	}
	if created.Breakdown.TotalStaffDays != 5 || created.Breakdown.DepositCents != 10000 {
		t.Errorf("breakdown = %+v", created.Breakdown)
	}
	if !strings.HasPrefix(created.ShareLinkURL, "https://thesmithagency.example/promo/") {
		t.Errorf("ShareLinkURL = %q", created.ShareLinkURL)
	}

	second := e.do(t, "POST", "/api/stripe/complete-booking", map[string]any{"sessionId": "cs_paid"}, tok)
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d: %s", second.Code, second.Body.String())
	}
	again := decodeBody[completeBookingResponse](t, second)
	if again.Created || again.BookingID != created.BookingID || again.ShareLinkID != created.ShareLinkID {
		t.Errorf("second response = %+v, want same booking %s", again, created.BookingID)
	}

	rr := e.do(t, "GET", "/api/clients/me/bookings", nil, tok)
	if rr.Code != http.StatusOK {
		t.Fatalf("bookings status = %d", rr.Code)
	}
	list := decodeBody[projections.GetClientBookingsResult](t, rr)
	if len(list.Bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(list.Bookings))
	}
	if list.Bookings[0].ShareLinkURL != created.ShareLinkURL {
		t.Errorf("ShareLinkURL = %q, want %q", list.Bookings[0].ShareLinkURL, created.ShareLinkURL)
	}

	promo := e.do(t, "GET", "/promo/"+created.ShareLinkID, nil)
	if promo.Code != http.StatusOK {
		t.Fatalf("promo status = %d", promo.Code)
	}
	if got := decodeBody[promoResponse](t, promo); got.CompanyName != "Brand Co" || got.ShowName != "Atlanta Market" {
		t.Errorf("promo = %+v", got)
	}
	if rr := e.do(t, "GET", "/promo/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing promo status = %d, want 404", rr.Code)
	}

	stats := decodeBody[[]projections.ShareLinkStatsView](t, e.do(t, "GET", "/api/admin/share-links", nil, internalKey()))
	if len(stats) != 1 || stats[0].Clicks != 1 {
		t.Errorf("stats = %+v, want one link with one click", stats)
	}
}

func TestCompleteBooking_Rejections(t *testing.T) {
	e := newTestEnv(t)
	seedShow(t, e)
	e.gateway.sessions["cs_other"] = paidConfirmation("cs_other", "client-2")
	unpaid := paidConfirmation("cs_unpaid", "client-1")
	unpaid.Status = "unpaid"
	e.gateway.sessions["cs_unpaid"] = unpaid
	tok := e.token(t, "client-1", "buyer@brand.example", middleware.RoleClient)

	tests := []struct {
		name    string
		session string
		want    int
	}{
		{"unpaid", "cs_unpaid", http.StatusPaymentRequired},
		{"other client", "cs_other", http.StatusForbidden},
		{"unknown session", "cs_missing", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, "POST", "/api/stripe/complete-booking", map[string]any{"sessionId": tt.session}, tok)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestChargeFinal(t *testing.T) {
	e := newTestEnv(t)
	seedBooking(t, e, "bk-1", true)

	t.Run("dry run reports the computed amount", func(t *testing.T) {
		rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-1", "dryRun": true}, internalKey())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		got := decodeBody[chargeFinalResponse](t, rr)
		if !got.DryRun || got.AmountToCharge != 110000 {
			t.Errorf("dry run = %+v, want 110000", got)
		}
		if got.Computed.BaseTotalCents != 120000 {
			t.Errorf("Computed.BaseTotalCents = %d, want 120000", got.Computed.BaseTotalCents)
		}
		if len(e.gateway.charges) != 0 {
			t.Error("dry run must not charge")
		}
	})

	t.Run("query string form", func(t *testing.T) {
		rr := e.do(t, "GET", "/api/stripe/charge-final?bookingId=bk-1&dryRun=1&overrideAmountCents=5000", nil, internalKey())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		if got := decodeBody[chargeFinalResponse](t, rr); got.AmountToCharge != 5000 {
			t.Errorf("AmountToCharge = %d, want 5000", got.AmountToCharge)
		}
	})

	t.Run("bad query amount", func(t *testing.T) {
		rr := e.do(t, "GET", "/api/stripe/charge-final?bookingId=bk-1&finalFeeCents=abc", nil, internalKey())
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "nope"}, internalKey())
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("charges once", func(t *testing.T) {
		rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-1"}, internalKey())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		got := decodeBody[chargeFinalResponse](t, rr)
		if !got.Success || got.PaymentIntentID == "" {
			t.Errorf("charge = %+v", got)
		}
		if len(e.gateway.charges) != 1 || e.gateway.charges[0].AmountCents != 110000 {
			t.Fatalf("charges = %+v", e.gateway.charges)
		}

		rr = e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-1"}, internalKey())
		if rr.Code != http.StatusConflict {
			t.Errorf("repeat status = %d, want 409", rr.Code)
		}
		if len(e.gateway.charges) != 1 {
			t.Errorf("repeat charged again: %d charges", len(e.gateway.charges))
		}
	})

	t.Run("audit records the charge", func(t *testing.T) {
		rr := e.do(t, "GET", "/api/admin/audit?resource_id=bk-1&action=charge", nil, internalKey())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		events := decodeBody[[]auditDomain.Event](t, rr)
		if len(events) != 1 || events[0].ActorID != "internal-key" {
			t.Errorf("events = %+v", events)
		}
	})
}

func TestChargeFinal_Decline(t *testing.T) {
	e := newTestEnv(t)
	seedBooking(t, e, "bk-2", true)
	e.gateway.chargeErr = &payment.CardError{PaymentIntentID: "pi_declined", Code: "card_declined", DeclineCode: "insufficient_funds", Message: "Your card has insufficient funds."}

	rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-2"}, internalKey())
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402: %s", rr.Code, rr.Body.String())
	}
	got := decodeBody[chargeFinalResponse](t, rr)
	if got.DeclineCode != "insufficient_funds" || got.PaymentIntentID != "pi_declined" || got.Error == "" {
		t.Errorf("decline = %+v", got)
	}

	events := decodeBody[[]auditDomain.Event](t, e.do(t, "GET", "/api/admin/audit?action=decline", nil, internalKey()))
	if len(events) != 1 || events[0].ResourceID != "bk-2" {
		t.Errorf("decline audit = %+v", events)
	}
}

func TestChargeFinal_AmountChanged(t *testing.T) {
	e := newTestEnv(t)
	seedBooking(t, e, "bk-6", true)
	e.gateway.chargeErr = fmt.Errorf("create payment intent: %w", payment.ErrIdempotencyConflict)

	rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-6", "overrideAmountCents": 5000}, internalKey())
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[chargeFinalResponse](t, rr); !strings.Contains(got.Error, "original amount") {
		t.Errorf("Error = %q", got.Error)
	}
}

func TestChargeFinal_RepairsReferences(t *testing.T) {
	e := newTestEnv(t)
	seedBooking(t, e, "bk-3", false)
	conf := paidConfirmation("cs_bk-3", "client-1")
	conf.CustomerID = "cus_repaired"
	conf.PaymentMethodID = "pm_repaired"
	e.gateway.sessions["cs_bk-3"] = conf

	rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-3", "finalFeeCents": 25000}, internalKey())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeBody[chargeFinalResponse](t, rr)
	if !got.RepairedReferences || !got.Success {
		t.Errorf("response = %+v", got)
	}
	if c := e.gateway.charges[0]; c.CustomerID != "cus_repaired" || c.PaymentMethodID != "pm_repaired" {
		t.Errorf("charge used %s/%s", c.CustomerID, c.PaymentMethodID)
	}
}

func TestChargeFinal_MissingPaymentMethod(t *testing.T) {
	e := newTestEnv(t)
	seedBooking(t, e, "bk-4", false)
	bare := paidConfirmation("cs_bk-4", "client-1")
	bare.CustomerID, bare.PaymentMethodID = "", ""
	e.gateway.sessions["cs_bk-4"] = bare

	rr := e.do(t, "POST", "/api/stripe/charge-final", map[string]any{"bookingId": "bk-4"}, internalKey())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
	}
	if len(e.gateway.charges) != 0 {
		t.Error("no charge expected without a saved card")
	}
}

func TestClientProfileFlow(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "client-1", "buyer@brand.example", middleware.RoleClient)

	if rr := e.do(t, "GET", "/api/clients/me", nil, tok); rr.Code != http.StatusNotFound {
		t.Errorf("profile before register = %d, want 404", rr.Code)
	}
	if rr := e.do(t, "POST", "/api/clients/me/contacts", map[string]any{"name": "Dana"}, tok); rr.Code != http.StatusConflict {
		t.Errorf("contact before register = %d, want 409", rr.Code)
	}

	if rr := e.do(t, "POST", "/api/clients/me", map[string]any{"companyName": "Brand Co"}, tok); rr.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", rr.Code, rr.Body.String())
	}
	if rr := e.do(t, "POST", "/api/clients/me", map[string]any{"companyName": "Brand Co", "website": "brand.example"}, tok); rr.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rr.Code, rr.Body.String())
	}

	if rr := e.do(t, "POST", "/api/clients/me/contacts", map[string]any{"name": "Dana", "email": "not-an-email"}, tok); rr.Code != http.StatusBadRequest {
		t.Errorf("bad contact email = %d, want 400", rr.Code)
	}
	if rr := e.do(t, "POST", "/api/clients/me/contacts", map[string]any{"name": "Dana", "email": "dana@brand.example"}, tok); rr.Code != http.StatusCreated {
		t.Fatalf("contact = %d: %s", rr.Code, rr.Body.String())
	}
	if rr := e.do(t, "POST", "/api/clients/me/showrooms", map[string]any{"city": "Atlanta", "buildingNumber": "2", "floorNumber": "14", "boothNumber": "1405"}, tok); rr.Code != http.StatusCreated {
		t.Fatalf("showroom = %d: %s", rr.Code, rr.Body.String())
	}

	rr := e.do(t, "GET", "/api/clients/me", nil, tok)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile = %d", rr.Code)
	}
	got := decodeBody[clientProfileResponse](t, rr)
	if got.Client.Website != "brand.example" || got.Client.Email != "buyer@brand.example" {
		t.Errorf("client = %+v", got.Client)
	}
	if len(got.Contacts) != 1 || len(got.Showrooms) != 1 {
		t.Fatalf("contacts = %d showrooms = %d", len(got.Contacts), len(got.Showrooms))
	}
	if got.Showrooms[0].Label == "" {
		t.Error("showroom label should be populated")
	}
}

func TestShowsAndStaffFlow(t *testing.T) {
	e := newTestEnv(t)
	opTok := e.token(t, "op-1", "ops@thesmithagency.net", middleware.RoleOperator)
	staffTok := e.token(t, "staff-1", "ava@thesmithagency.net", middleware.RoleStaff)

	rr := e.do(t, "POST", "/api/admin/shows", map[string]any{
		"id": "show-1", "name": "Atlanta Market", "startDate": "2024-03-01", "endDate": "2024-03-03", "status": "active",
	}, opTok)
	if rr.Code != http.StatusOK {
		t.Fatalf("save show = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[showView](t, rr); len(got.Dates) != 3 {
		t.Errorf("show dates = %v, want 3 days", got.Dates)
	}
	if rr := e.do(t, "POST", "/api/admin/shows", map[string]any{"name": "Backwards", "startDate": "2024-03-05", "endDate": "2024-03-01"}, opTok); rr.Code != http.StatusBadRequest {
		t.Errorf("backwards show = %d, want 400", rr.Code)
	}

	shows := decodeBody[[]showView](t, e.do(t, "GET", "/api/shows", nil))
	if len(shows) != 1 || shows[0].ID != "show-1" {
		t.Errorf("shows = %+v", shows)
	}

	if rr := e.do(t, "POST", "/api/staff/me/application", validApplication(), staffTok); rr.Code != http.StatusNotFound {
		t.Errorf("application before profile = %d, want 404", rr.Code)
	}
	if rr := e.do(t, "POST", "/api/admin/staff", map[string]any{"staffId": "staff-1", "email": "ava@thesmithagency.net", "name": "Ava"}, opTok); rr.Code != http.StatusCreated {
		t.Fatalf("create staff = %d: %s", rr.Code, rr.Body.String())
	}

	avail := map[string]any{"showId": "show-1", "dates": []string{"2024-03-02", "2024-03-01", "2024-03-02"}}
	if rr := e.do(t, "POST", "/api/staff/me/availability", avail, staffTok); rr.Code != http.StatusBadRequest && rr.Code != http.StatusForbidden {
		t.Errorf("availability before approval = %d, want 400 or 403", rr.Code)
	}

	if rr := e.do(t, "POST", "/api/staff/me/application", validApplication(), staffTok); rr.Code != http.StatusOK {
		t.Fatalf("application = %d: %s", rr.Code, rr.Body.String())
	}
	rr = e.do(t, "POST", "/api/admin/staff/staff-1/approval", map[string]any{"approved": true}, internalKey())
	if rr.Code != http.StatusOK {
		t.Fatalf("approve = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[staffView](t, rr); !got.ApplicationApproved {
		t.Errorf("staff = %+v, want approved", got)
	}

	if rr := e.do(t, "POST", "/api/staff/me/availability", map[string]any{"showId": "show-1", "dates": []string{"2024-04-01"}}, staffTok); rr.Code != http.StatusBadRequest {
		t.Errorf("out of range availability = %d, want 400", rr.Code)
	}
	rr = e.do(t, "POST", "/api/staff/me/availability", avail, staffTok)
	if rr.Code != http.StatusCreated {
		t.Fatalf("availability = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[staffAvailabilityView](t, rr); strings.Join(got.AvailableDates, ",") != "2024-03-01,2024-03-02" {
		t.Errorf("dates = %v, want deduplicated ascending", got.AvailableDates)
	}
	if rr := e.do(t, "POST", "/api/staff/me/availability", avail, staffTok); rr.Code != http.StatusConflict {
		t.Errorf("duplicate availability = %d, want 409", rr.Code)
	}

	mine := decodeBody[[]staffAvailabilityView](t, e.do(t, "GET", "/api/staff/me/availability", nil, staffTok))
	if len(mine) != 1 {
		t.Errorf("my availability = %+v", mine)
	}

	rr = e.do(t, "GET", "/api/admin/shows/show-1/availability", nil, opTok)
	if rr.Code != http.StatusOK {
		t.Fatalf("show availability = %d", rr.Code)
	}
	summary := decodeBody[showAvailabilityResponse](t, rr)
	if summary.StaffByDate["2024-03-01"] != 1 || summary.StaffByDate["2024-03-03"] != 0 {
		t.Errorf("staffByDate = %v", summary.StaffByDate)
	}
	if len(summary.Submissions) != 1 || summary.Submissions[0].StaffName != "Ava" {
		t.Errorf("submissions = %+v", summary.Submissions)
	}
	if rr := e.do(t, "GET", "/api/admin/shows/nope/availability", nil, opTok); rr.Code != http.StatusNotFound {
		t.Errorf("unknown show availability = %d, want 404", rr.Code)
	}
}

func validApplication() map[string]any {
	return map[string]any{
		"phone":      "404-555-0100",
		"location":   "Atlanta, GA",
		"address":    "1 Peachtree St",
		"dressSize":  "4",
		"shoeSize":   "8",
		"instagram":  "@ava",
		"experience": "Two seasons at AmericasMart",
	}
}

func TestAdminOutbox(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/api/admin/outbox", nil, internalKey())
	if rr.Code != http.StatusOK {
		t.Fatalf("list = %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty outbox body = %s, want []", rr.Body.String())
	}
	if rr := e.do(t, "POST", "/api/admin/outbox/missing/retry", nil, internalKey()); rr.Code != http.StatusNotFound {
		t.Errorf("retry missing = %d, want 404", rr.Code)
	}
	if rr := e.do(t, "POST", "/api/admin/outbox/missing/abandon", nil, internalKey()); rr.Code != http.StatusNotFound {
		t.Errorf("abandon missing = %d, want 404", rr.Code)
	}
}
