package web

import (
	"net/http"

	auditStore "smithagency/internal/adapters/storage/audit"
	auditDomain "smithagency/internal/domain/audit"
)

// handleAdminAuditTrail returns billing audit events, newest first (GET /api/admin/audit).
// Filters: category, action, resource_type, resource_id; limit defaults to 100, max 1000.
func (s *Server) handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auditStore.Filter{
		Category:     auditDomain.Category(q.Get("category")),
		Action:       auditDomain.Action(q.Get("action")),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
	}

	events, err := s.stores.AuditStore.List(r.Context(), filter, queryLimit(r, 100, 1000))
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
