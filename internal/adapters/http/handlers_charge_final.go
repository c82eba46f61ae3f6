package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"smithagency/internal/adapters/lock"
	"smithagency/internal/application/orchestrators"
	"smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
)

type chargeFinalRequest struct {
	BookingID           string `json:"bookingId" validate:"required"`
	DryRun              bool   `json:"dryRun"`
	FinalFeeCents       *int64 `json:"finalFeeCents" validate:"omitempty,gte=0"`
	OverrideAmountCents *int64 `json:"overrideAmountCents" validate:"omitempty,gte=0"`
	OverrideRateCents   *int64 `json:"overrideRateCents" validate:"omitempty,gte=0"`
}

type chargeFinalResponse struct {
	BookingID          string            `json:"bookingId"`
	DryRun             bool              `json:"dryRun,omitempty"`
	Success            bool              `json:"success,omitempty"`
	RequiresAction     bool              `json:"requiresAction,omitempty"`
	URL                string            `json:"url,omitempty"`
	PaymentIntentID    string            `json:"paymentIntentId,omitempty"`
	Status             string            `json:"status,omitempty"`
	AmountToCharge     int64             `json:"amountToChargeCents"`
	AmountSource       string            `json:"amountSource,omitempty"`
	Computed           pricing.Breakdown `json:"computed"`
	RepairedReferences bool              `json:"repairedReferences,omitempty"`
	Error              string            `json:"error,omitempty"`
	DeclineCode        string            `json:"declineCode,omitempty"`
}

// handleChargeFinal reconciles and charges the remaining balance of a booking
// (POST|GET /api/stripe/charge-final). Guarded by the internal key.
// POST: 200 charged, action required or dry run; 400 nothing to charge or no card;
// 404 unknown booking; 409 already paid or in flight; 402 declined; 502 processor error
func (s *Server) handleChargeFinal(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseChargeFinal(w, r)
	if !ok {
		return
	}

	actorID, actorRole := operatorActor(r)

	res, err := orchestrators.ExecuteFinalCharge(r.Context(), orchestrators.FinalChargeInput{
		BookingID:           req.BookingID,
		DryRun:              req.DryRun,
		OverrideAmountCents: req.OverrideAmountCents,
		OverrideRateCents:   req.OverrideRateCents,
		FinalFeeCents:       req.FinalFeeCents,
		ActorID:             actorID,
		ActorRole:           actorRole,
	}, orchestrators.FinalChargeDeps{
		BookingStore: s.stores.BookingStore,
		Gateway:      s.opts.Gateway,
		Locker:       s.opts.Locker,
		AuditStore:   s.stores.AuditStore,
		SideEffects:  s.opts.SideEffects,
		GenerateID:   s.opts.GenerateID,
		Now:          s.opts.Now,
	})

	resp := chargeFinalResponse{
		BookingID:          req.BookingID,
		DryRun:             res.DryRun,
		Success:            res.Success,
		RequiresAction:     res.RequiresAction,
		URL:                res.ActionURL,
		PaymentIntentID:    res.PaymentIntentID,
		Status:             res.Status,
		AmountToCharge:     res.AmountToChargeCents,
		AmountSource:       res.AmountSource,
		Computed:           res.Computed,
		RepairedReferences: res.RepairedReferences,
	}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var decline *booking.DeclineError
	switch {
	case errors.As(err, &decline):
		resp.Error = decline.Error()
		resp.DeclineCode = decline.Code
		resp.PaymentIntentID = decline.PaymentIntentID
		writeJSON(w, http.StatusPaymentRequired, resp)
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, booking.ErrNothingToCharge), errors.Is(err, booking.ErrMissingPaymentMethod):
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, booking.ErrAlreadyFinalPaid), errors.Is(err, lock.ErrLocked), errors.Is(err, booking.ErrChargeAmountChanged):
		resp.Error = err.Error()
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, booking.ErrProcessor):
		processorError(w, err)
	default:
		internalError(w, err)
	}
}

// parseChargeFinal reads the request from the JSON body, falling back to the query string
// for GET and for empty bodies.
func (s *Server) parseChargeFinal(w http.ResponseWriter, r *http.Request) (chargeFinalRequest, bool) {
	var req chargeFinalRequest
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := strictDecode(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return req, false
		}
	}
	if req.BookingID == "" {
		q := r.URL.Query()
		req.BookingID = q.Get("bookingId")
		req.DryRun = req.DryRun || parseBool(q.Get("dryRun"))
		for name, dst := range map[string]**int64{
			"finalFeeCents":       &req.FinalFeeCents,
			"overrideAmountCents": &req.OverrideAmountCents,
			"overrideRateCents":   &req.OverrideRateCents,
		} {
			if *dst != nil || q.Get(name) == "" {
				continue
			}
			n, err := strconv.ParseInt(q.Get(name), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, name+" must be an integer number of cents")
				return req, false
			}
			*dst = &n
		}
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return req, false
	}
	return req, true
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b || v == "1" || v == "yes"
}
