package web

import (
	"errors"
	"net/http"

	"smithagency/internal/application/orchestrators"
	"smithagency/internal/application/projections"
	"smithagency/internal/domain/show"
)

type showView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Status    string   `json:"status"`
	Dates     []string `json:"dates"`
}

func newShowView(s show.Show) showView {
	return showView{
		ID:        s.ID,
		Name:      s.Name,
		Location:  s.Location,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Status:    s.Status,
		Dates:     s.DateRange(),
	}
}

// handleListShows lists shows open for booking, soonest first (GET /api/shows).
func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	shows, err := projections.QueryListActiveShows(r.Context(), s.stores.ShowStore)
	if err != nil {
		internalError(w, err)
		return
	}
	views := make([]showView, 0, len(shows))
	for _, sh := range shows {
		views = append(views, newShowView(sh))
	}
	writeJSON(w, http.StatusOK, views)
}

type saveShowRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,max=200"`
	Location  string `json:"location" validate:"max=200"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// handleSaveShow creates or replaces a show (POST /api/admin/shows).
func (s *Server) handleSaveShow(w http.ResponseWriter, r *http.Request) {
	var req saveShowRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.EndDate < req.StartDate {
		writeError(w, http.StatusBadRequest, "endDate cannot be before startDate")
		return
	}
	sh, err := orchestrators.ExecuteSaveShow(r.Context(), orchestrators.SaveShowInput{
		ID:        req.ID,
		Name:      req.Name,
		Location:  req.Location,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
	}, orchestrators.SaveShowDeps{
		ShowStore:  s.stores.ShowStore,
		GenerateID: s.opts.GenerateID,
		Now:        s.opts.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newShowView(sh))
}

type availabilityView struct {
	StaffID        string   `json:"staffId"`
	StaffName      string   `json:"staffName"`
	StaffEmail     string   `json:"staffEmail"`
	AvailableDates []string `json:"availableDates"`
}

type showAvailabilityResponse struct {
	Show        showView           `json:"show"`
	StaffByDate map[string]int     `json:"staffByDate"`
	Submissions []availabilityView `json:"submissions"`
}

// handleShowAvailability summarises staff availability for a show (GET /api/admin/shows/{id}/availability).
func (s *Server) handleShowAvailability(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetShowAvailability(r.Context(), r.PathValue("id"), s.availabilityDeps())
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			writeError(w, http.StatusNotFound, "show not found")
			return
		}
		internalError(w, err)
		return
	}
	resp := showAvailabilityResponse{
		Show:        newShowView(res.Show),
		StaffByDate: res.StaffByDate,
		Submissions: make([]availabilityView, 0, len(res.Submissions)),
	}
	for _, a := range res.Submissions {
		resp.Submissions = append(resp.Submissions, availabilityView{
			StaffID:        a.StaffID,
			StaffName:      a.StaffName,
			StaffEmail:     a.StaffEmail,
			AvailableDates: a.AvailableDates,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) availabilityDeps() projections.GetAvailabilityDeps {
	return projections.GetAvailabilityDeps{
		ShowStore:         s.stores.ShowStore,
		AvailabilityStore: s.stores.StaffStore,
	}
}
