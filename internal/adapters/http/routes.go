package web

import (
	"net/http"

	"smithagency/internal/adapters/http/middleware"
)

// registerRoutes wires every endpoint onto mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	client := middleware.RequireRole(middleware.RoleClient)
	staff := middleware.RequireRole(middleware.RoleStaff)
	operator := middleware.RequireOperator(s.opts.InternalKey)
	chargeFinal := middleware.Chain(http.HandlerFunc(s.handleChargeFinal),
		middleware.Timeout(s.opts.ChargeTimeout),
		middleware.RequireInternalKey(s.opts.InternalKey),
	)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Deposit checkout and final charge
	mux.Handle("POST /api/stripe/create-checkout-session", client(http.HandlerFunc(s.handleCreateCheckoutSession)))
	mux.Handle("POST /api/stripe/complete-booking", client(http.HandlerFunc(s.handleCompleteBooking)))
	mux.Handle("POST /api/stripe/charge-final", chargeFinal)
	mux.Handle("GET /api/stripe/charge-final", chargeFinal)

	// Client portal
	mux.Handle("GET /api/clients/me", client(http.HandlerFunc(s.handleGetClientProfile)))
	mux.Handle("POST /api/clients/me", client(http.HandlerFunc(s.handleRegisterClient)))
	mux.Handle("POST /api/clients/me/contacts", client(http.HandlerFunc(s.handleAddContact)))
	mux.Handle("POST /api/clients/me/showrooms", client(http.HandlerFunc(s.handleAddShowroom)))
	mux.Handle("GET /api/clients/me/bookings", client(http.HandlerFunc(s.handleClientBookings)))

	// Shows
	mux.HandleFunc("GET /api/shows", s.handleListShows)
	mux.Handle("POST /api/admin/shows", operator(http.HandlerFunc(s.handleSaveShow)))
	mux.Handle("GET /api/admin/shows/{id}/availability", operator(http.HandlerFunc(s.handleShowAvailability)))

	// Staff portal
	mux.Handle("POST /api/staff/me/application", staff(http.HandlerFunc(s.handleSubmitStaffApplication)))
	mux.Handle("POST /api/staff/me/availability", staff(http.HandlerFunc(s.handleSubmitAvailability)))
	mux.Handle("GET /api/staff/me/availability", staff(http.HandlerFunc(s.handleMyAvailability)))
	mux.Handle("POST /api/admin/staff", operator(http.HandlerFunc(s.handleCreateStaffProfile)))
	mux.Handle("POST /api/admin/staff/{id}/approval", operator(http.HandlerFunc(s.handleApproveStaff)))

	// Share links
	mux.HandleFunc("GET /promo/{slug}", s.handlePromo)
	mux.Handle("GET /api/admin/share-links", operator(http.HandlerFunc(s.handleShareLinkStats)))

	// Operations
	mux.Handle("GET /api/admin/outbox", operator(http.HandlerFunc(s.handleAdminOutboxList)))
	mux.Handle("POST /api/admin/outbox/{id}/retry", operator(http.HandlerFunc(s.handleAdminOutboxRetry)))
	mux.Handle("POST /api/admin/outbox/{id}/abandon", operator(http.HandlerFunc(s.handleAdminOutboxAbandon)))
	mux.Handle("GET /api/admin/audit", operator(http.HandlerFunc(s.handleAdminAuditTrail)))
}
