package web

import (
	"errors"
	"net/http"

	"smithagency/internal/application/orchestrators"
	"smithagency/internal/application/projections"
	"smithagency/internal/domain/sharelink"
)

type promoResponse struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	ShowName    string `json:"showName"`
	ShowID      string `json:"showId,omitempty"`
}

// handlePromo serves the public landing data of a share link and counts the visit (GET /promo/{slug}).
func (s *Server) handlePromo(w http.ResponseWriter, r *http.Request) {
	link, err := orchestrators.ExecuteRecordShareLinkClick(r.Context(), r.PathValue("slug"), orchestrators.RecordShareLinkClickDeps{
		ShareLinkStore: s.stores.ShareLinkStore,
		GenerateID:     s.opts.GenerateID,
		Now:            s.opts.Now,
	})
	if err != nil {
		if errors.Is(err, sharelink.ErrShareLinkNotFound) {
			writeError(w, http.StatusNotFound, "link not found")
			return
		}
		internalError(w, err)
		return
	}
	showName := link.ShowName
	if showName == "" {
		showName = sharelink.DefaultShowName
	}
	writeJSON(w, http.StatusOK, promoResponse{ID: link.ID, CompanyName: link.CompanyName, ShowName: showName, ShowID: link.ShowID})
}

// handleShareLinkStats lists share links newest first with click counts (GET /api/admin/share-links).
func (s *Server) handleShareLinkStats(w http.ResponseWriter, r *http.Request) {
	stats, err := projections.QueryGetShareLinkStats(r.Context(), s.opts.BaseURL, projections.GetShareLinkStatsDeps{
		ShareLinkStore: s.stores.ShareLinkStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
