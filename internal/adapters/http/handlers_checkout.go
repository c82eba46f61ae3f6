package web

import (
	"errors"
	"log/slog"
	"net/http"

	"smithagency/internal/application/orchestrators"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
	"smithagency/internal/domain/show"
)

type createCheckoutRequest struct {
	StaffByDate map[string]any `json:"staffByDate" validate:"required"`
	ShowID      string         `json:"showId" validate:"required"`
	ContactID   string         `json:"contactId"`
	ShowroomID  string         `json:"showroomId"`
	Notes       string         `json:"notes" validate:"max=2000"`
	Date        string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	CompanyName string         `json:"companyName" validate:"max=200"`
}

type createCheckoutResponse struct {
	SessionID string            `json:"sessionId"`
	URL       string            `json:"url"`
	Quote     pricing.Breakdown `json:"quote"`
}

// handleCreateCheckoutSession starts the deposit checkout (POST /api/stripe/create-checkout-session).
// PRE: caller is an authenticated client
// POST: Returns the hosted payment URL; nothing is persisted
func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req createCheckoutRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := orchestrators.ExecuteCreateCheckoutSession(r.Context(), orchestrators.CreateCheckoutInput{
		ClientID:    id.ID,
		ClientEmail: id.Email,
		CompanyName: req.CompanyName,
		Plan:        pricing.ParseStaffingPlan(req.StaffByDate),
		Draft: orchestrators.BookingDraft{
			ShowID:     req.ShowID,
			ContactID:  req.ContactID,
			ShowroomID: req.ShowroomID,
			Notes:      req.Notes,
			Date:       req.Date,
		},
	}, orchestrators.CreateCheckoutDeps{
		Gateway:     s.opts.Gateway,
		ShowStore:   s.stores.ShowStore,
		ClientStore: s.stores.ClientStore,
		Rates:       s.opts.Rates,
		Currency:    s.opts.Currency,
		BaseURL:     s.opts.BaseURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, orchestrators.ErrEmptyStaffingPlan),
			errors.Is(err, show.ErrShowInactive),
			errors.Is(err, show.ErrDateOutsideShow),
			errors.Is(err, booking.ErrForeignReference):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, show.ErrShowNotFound):
			writeError(w, http.StatusNotFound, "show not found")
		case errors.Is(err, booking.ErrProcessor):
			processorError(w, err)
		default:
			internalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, createCheckoutResponse{SessionID: res.SessionID, URL: res.URL, Quote: res.Quote})
}

type completeBookingRequest struct {
	SessionID   string `json:"sessionId" validate:"required"`
	CompanyName string `json:"companyName" validate:"max=200"`
}

type completeBookingResponse struct {
	BookingID    string            `json:"bookingId"`
	Created      bool              `json:"created"`
	ShareLinkID  string            `json:"shareLinkId,omitempty"`
	ShareLinkURL string            `json:"shareLinkUrl,omitempty"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
}

// handleCompleteBooking confirms the paid checkout and materializes the booking (POST /api/stripe/complete-booking).
// Safe to repeat: the same session always yields the same booking.
func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req completeBookingRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := orchestrators.ExecuteCompleteBooking(r.Context(), orchestrators.CompleteBookingInput{
		SessionID:   req.SessionID,
		ClientID:    id.ID,
		ClientEmail: id.Email,
		CompanyName: req.CompanyName,
	}, orchestrators.CompleteBookingDeps{
		Confirm:     orchestrators.ConfirmCheckoutDeps{Gateway: s.opts.Gateway},
		Materialize: s.materializeDeps(),
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrPaymentNotCompleted):
			writeError(w, http.StatusPaymentRequired, "deposit payment not completed")
		case errors.Is(err, orchestrators.ErrSessionClientMismatch):
			writeError(w, http.StatusForbidden, "checkout session belongs to another client")
		case errors.Is(err, booking.ErrProcessor):
			processorError(w, err)
		default:
			internalError(w, err)
		}
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, completeBookingResponse{
		BookingID:    res.BookingID,
		Created:      res.Created,
		ShareLinkID:  res.ShareLinkID,
		ShareLinkURL: res.ShareLinkURL,
		Breakdown:    res.Breakdown,
	})
}

func (s *Server) materializeDeps() orchestrators.MaterializeBookingDeps {
	return orchestrators.MaterializeBookingDeps{
		BookingStore:   s.stores.BookingStore,
		ShareLinkStore: s.stores.ShareLinkStore,
		ClientStore:    s.stores.ClientStore,
		Rates:          s.opts.Rates,
		BaseURL:        s.opts.BaseURL,
		SideEffects:    s.opts.SideEffects,
		GenerateID:     s.opts.GenerateID,
		Now:            s.opts.Now,
	}
}

// processorError reports an upstream payment failure without leaking its detail.
func processorError(w http.ResponseWriter, err error) {
	slog.Error("payment_processor_error", "error", err.Error())
	writeError(w, http.StatusBadGateway, "payment processor error")
}
