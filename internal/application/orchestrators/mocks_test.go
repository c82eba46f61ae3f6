package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"time"

	"smithagency/internal/adapters/email"
	"smithagency/internal/adapters/events"
	"smithagency/internal/adapters/payment"
	domainAudit "smithagency/internal/domain/audit"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/client"
	"smithagency/internal/domain/outbox"
	"smithagency/internal/domain/sharelink"
	"smithagency/internal/domain/show"
	"smithagency/internal/domain/staff"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seqIDs returns a generator yielding prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// --- booking store ---

type mockBookingStore struct {
	bookings map[string]booking.Booking
	// raceWinner is inserted by the next Create, which then reports a duplicate.
	raceWinner *booking.Booking
	createErr  error
	markErr    error
	creates    int
}

func newMockBookingStore(seed ...booking.Booking) *mockBookingStore {
	m := &mockBookingStore{bookings: make(map[string]booking.Booking)}
	for _, b := range seed {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingStore) GetByID(_ context.Context, id string) (booking.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return booking.Booking{}, fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
	}
	return b, nil
}

func (m *mockBookingStore) GetByCheckoutSession(_ context.Context, sessionID string) (booking.Booking, error) {
	for _, b := range m.bookings {
		if b.StripeCheckoutSessionID == sessionID {
			return b, nil
		}
	}
	return booking.Booking{}, fmt.Errorf("%w: session %s", booking.ErrBookingNotFound, sessionID)
}

func (m *mockBookingStore) Create(_ context.Context, b booking.Booking) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if m.raceWinner != nil {
		m.bookings[m.raceWinner.ID] = *m.raceWinner
		m.raceWinner = nil
	}
	for _, existing := range m.bookings {
		if existing.StripeCheckoutSessionID == b.StripeCheckoutSessionID {
			return booking.ErrDuplicateCheckoutSession
		}
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingStore) ListByClient(_ context.Context, clientID string) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range m.bookings {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockBookingStore) BackfillPaymentReferences(_ context.Context, id string, refs booking.PaymentReferences, now time.Time) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
	}
	changed := false
	if b.StripeCustomerID == "" && refs.CustomerID != "" {
		b.StripeCustomerID = refs.CustomerID
		changed = true
	}
	if b.StripePaymentMethodID == "" && refs.PaymentMethodID != "" {
		b.StripePaymentMethodID = refs.PaymentMethodID
		changed = true
	}
	if changed {
		b.UpdatedAt = now
		m.bookings[id] = b
	}
	return changed, nil
}

func (m *mockBookingStore) MarkFinalPaid(_ context.Context, id string, amountCents int64, chargeID string, now time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
	}
	if err := b.MarkFinalPaid(amountCents, chargeID, now); err != nil {
		return err
	}
	m.bookings[id] = b
	return nil
}

func (m *mockBookingStore) IncrementFinalChargeAttempts(_ context.Context, id string, now time.Time) error {
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
	}
	b.FinalChargeAttempts++
	b.UpdatedAt = now
	m.bookings[id] = b
	return nil
}

// --- payment gateway ---

type mockGateway struct {
	sessions map[string]payment.Confirmation
	intents  map[string]booking.PaymentReferences

	sessionErr error
	intentErr  error

	// chargeFn decides the outcome of a charge that is not a replay.
	chargeFn func(req payment.ChargeRequest) (payment.ChargeResult, error)
	charges  []payment.ChargeRequest
	// landed holds succeeded charges by idempotency key; a replayed key returns the original.
	landed map[string]payment.ChargeResult

	checkouts []payment.CheckoutRequest
	customers map[string]string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		sessions:  make(map[string]payment.Confirmation),
		intents:   make(map[string]booking.PaymentReferences),
		landed:    make(map[string]payment.ChargeResult),
		customers: make(map[string]string),
		chargeFn: func(req payment.ChargeRequest) (payment.ChargeResult, error) {
			return payment.ChargeResult{ID: "pi_final_" + req.IdempotencyKey, Status: payment.ChargeSucceeded}, nil
		},
	}
}

func (m *mockGateway) FindOrCreateCustomer(_ context.Context, email, _, _ string) (string, error) {
	if id, ok := m.customers[email]; ok {
		return id, nil
	}
	id := fmt.Sprintf("cus_%d", len(m.customers)+1)
	m.customers[email] = id
	return id, nil
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	m.checkouts = append(m.checkouts, req)
	id := fmt.Sprintf("cs_test_%d", len(m.checkouts))
	return payment.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (m *mockGateway) GetCheckoutSession(_ context.Context, sessionID string) (payment.Confirmation, error) {
	if m.sessionErr != nil {
		return payment.Confirmation{}, m.sessionErr
	}
	c, ok := m.sessions[sessionID]
	if !ok {
		return payment.Confirmation{}, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	return c, nil
}

func (m *mockGateway) PaymentIntentReferences(_ context.Context, paymentIntentID string) (booking.PaymentReferences, error) {
	if m.intentErr != nil {
		return booking.PaymentReferences{}, m.intentErr
	}
	return m.intents[paymentIntentID], nil
}

func (m *mockGateway) ChargeOffSession(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	m.charges = append(m.charges, req)
	if res, ok := m.landed[req.IdempotencyKey]; ok {
		return res, nil
	}
	res, err := m.chargeFn(req)
	if err == nil && res.Status == payment.ChargeSucceeded {
		m.landed[req.IdempotencyKey] = res
	}
	return res, err
}

// --- share link store ---

type mockShareLinkStore struct {
	links     map[string]sharelink.ShareLink
	clicks    []sharelink.Click
	createErr error
}

func newMockShareLinkStore() *mockShareLinkStore {
	return &mockShareLinkStore{links: make(map[string]sharelink.ShareLink)}
}

func (m *mockShareLinkStore) Create(_ context.Context, l sharelink.ShareLink) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.links {
		if existing.BookingID == l.BookingID {
			return sharelink.ErrDuplicateBooking
		}
	}
	m.links[l.ID] = l
	return nil
}

func (m *mockShareLinkStore) GetByID(_ context.Context, id string) (sharelink.ShareLink, error) {
	l, ok := m.links[id]
	if !ok {
		return sharelink.ShareLink{}, fmt.Errorf("%w: %s", sharelink.ErrShareLinkNotFound, id)
	}
	return l, nil
}

func (m *mockShareLinkStore) GetByBookingID(_ context.Context, bookingID string) (sharelink.ShareLink, error) {
	for _, l := range m.links {
		if l.BookingID == bookingID {
			return l, nil
		}
	}
	return sharelink.ShareLink{}, fmt.Errorf("%w: booking %s", sharelink.ErrShareLinkNotFound, bookingID)
}

func (m *mockShareLinkStore) RecordClick(_ context.Context, c sharelink.Click) error {
	m.clicks = append(m.clicks, c)
	return nil
}

// --- client store ---

type mockClientStore struct {
	clients   map[string]client.Client
	contacts  map[string]client.Contact
	showrooms map[string]client.Showroom
}

func newMockClientStore() *mockClientStore {
	return &mockClientStore{
		clients:   make(map[string]client.Client),
		contacts:  make(map[string]client.Contact),
		showrooms: make(map[string]client.Showroom),
	}
}

func (m *mockClientStore) Upsert(_ context.Context, c client.Client) error {
	m.clients[c.ID] = c
	return nil
}

func (m *mockClientStore) GetByID(_ context.Context, id string) (client.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return client.Client{}, fmt.Errorf("%w: %s", client.ErrClientNotFound, id)
	}
	return c, nil
}

func (m *mockClientStore) SaveContact(_ context.Context, c client.Contact) error {
	m.contacts[c.ID] = c
	return nil
}

func (m *mockClientStore) GetContact(_ context.Context, id string) (client.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return client.Contact{}, fmt.Errorf("%w: %s", client.ErrContactNotFound, id)
	}
	return c, nil
}

func (m *mockClientStore) SaveShowroom(_ context.Context, s client.Showroom) error {
	m.showrooms[s.ID] = s
	return nil
}

func (m *mockClientStore) GetShowroom(_ context.Context, id string) (client.Showroom, error) {
	s, ok := m.showrooms[id]
	if !ok {
		return client.Showroom{}, fmt.Errorf("%w: %s", client.ErrShowroomNotFound, id)
	}
	return s, nil
}

// --- show store ---

type mockShowStore struct {
	shows map[string]show.Show
}

func newMockShowStore(seed ...show.Show) *mockShowStore {
	m := &mockShowStore{shows: make(map[string]show.Show)}
	for _, s := range seed {
		m.shows[s.ID] = s
	}
	return m
}

func (m *mockShowStore) GetByID(_ context.Context, id string) (show.Show, error) {
	s, ok := m.shows[id]
	if !ok {
		return show.Show{}, fmt.Errorf("%w: %s", show.ErrShowNotFound, id)
	}
	return s, nil
}

func (m *mockShowStore) Save(_ context.Context, s show.Show) error {
	m.shows[s.ID] = s
	return nil
}

// --- staff store ---

type mockStaffStore struct {
	staff        map[string]staff.Staff
	availability map[string]staff.Availability
}

func newMockStaffStore(seed ...staff.Staff) *mockStaffStore {
	m := &mockStaffStore{
		staff:        make(map[string]staff.Staff),
		availability: make(map[string]staff.Availability),
	}
	for _, s := range seed {
		m.staff[s.ID] = s
	}
	return m
}

func (m *mockStaffStore) GetByID(_ context.Context, id string) (staff.Staff, error) {
	s, ok := m.staff[id]
	if !ok {
		return staff.Staff{}, fmt.Errorf("%w: %s", staff.ErrStaffNotFound, id)
	}
	return s, nil
}

func (m *mockStaffStore) Save(_ context.Context, s staff.Staff) error {
	m.staff[s.ID] = s
	return nil
}

func (m *mockStaffStore) CreateAvailability(_ context.Context, a staff.Availability) error {
	if _, ok := m.availability[a.ID]; ok {
		return staff.ErrAvailabilityExists
	}
	m.availability[a.ID] = a
	return nil
}

// --- side effects ---

type mockSender struct {
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent)), SentAt: fixedTime}, nil
}

type mockPublisher struct {
	published []events.Event
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, ev events.Event) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, ev)
	return nil
}

func (m *mockPublisher) types() []string {
	out := make([]string, 0, len(m.published))
	for _, ev := range m.published {
		out = append(out, ev.Type)
	}
	return out
}

type mockOutboxStore struct {
	entries map[string]outbox.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, fmt.Errorf("%w: %s", outbox.ErrEntryNotFound, id)
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockAuditStore struct {
	events []domainAudit.Event
}

func (m *mockAuditStore) Save(_ context.Context, ev domainAudit.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *mockAuditStore) actions() []domainAudit.Action {
	out := make([]domainAudit.Action, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Action)
	}
	return out
}
