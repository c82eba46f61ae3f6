package web

import (
	"errors"
	"net/http"
	"time"

	"smithagency/internal/domain/outbox"
)

type outboxEntryView struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"actionType"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"maxAttempts"`
	LastAttemptedAt time.Time `json:"lastAttemptedAt,omitzero"`
	CreatedAt       time.Time `json:"createdAt"`
	ExternalID      string    `json:"externalId,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

// handleAdminOutboxList lists outbox entries (GET /api/admin/outbox).
// ?status=failed (default) lists parked entries; ?status=all lists entries still awaiting delivery.
func (s *Server) handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryLimit(r, 50, 100)

	var entries []outbox.Entry
	var err error
	if r.URL.Query().Get("status") == "all" {
		entries, err = s.stores.OutboxStore.ListPending(ctx, limit)
	} else {
		entries, err = s.stores.OutboxStore.ListFailed(ctx, limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}

	views := make([]outboxEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, outboxEntryView{
			ID:              e.ID,
			ActionType:      e.ActionType,
			Status:          e.Status,
			Attempts:        e.Attempts,
			MaxAttempts:     e.MaxAttempts,
			LastAttemptedAt: e.LastAttemptedAt,
			CreatedAt:       e.CreatedAt,
			ExternalID:      e.ExternalID,
			ErrorMessage:    e.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAdminOutboxRetry re-attempts one entry now (POST /api/admin/outbox/{id}/retry).
func (s *Server) handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Outbox.ProcessSingle(r.Context(), r.PathValue("id")); err != nil {
		outboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})
}

// handleAdminOutboxAbandon parks one entry for good (POST /api/admin/outbox/{id}/abandon).
func (s *Server) handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Outbox.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		outboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

func outboxError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outbox.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "outbox entry not found")
	case errors.Is(err, outbox.ErrTerminal):
		writeError(w, http.StatusConflict, err.Error())
	default:
		internalError(w, err)
	}
}
