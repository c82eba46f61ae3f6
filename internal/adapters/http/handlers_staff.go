package web

import (
	"errors"
	"net/http"
	"time"

	"smithagency/internal/adapters/http/middleware"
	"smithagency/internal/application/orchestrators"
	"smithagency/internal/application/projections"
	"smithagency/internal/domain/show"
	"smithagency/internal/domain/staff"
)

type staffView struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Active              bool      `json:"active"`
	ApplicationComplete bool      `json:"applicationComplete"`
	ApplicationApproved bool      `json:"applicationApproved"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func newStaffView(s staff.Staff) staffView {
	return staffView{
		ID:                  s.ID,
		Email:               s.Email,
		Name:                s.Name,
		Active:              s.Active,
		ApplicationComplete: s.ApplicationComplete,
		ApplicationApproved: s.ApplicationApproved,
		UpdatedAt:           s.UpdatedAt,
	}
}

type staffAvailabilityView struct {
	ID             string    `json:"id"`
	ShowID         string    `json:"showId"`
	AvailableDates []string  `json:"availableDates"`
	CreatedAt      time.Time `json:"createdAt"`
}

// staffError maps staff workflow failures onto HTTP statuses.
func staffError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, staff.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff profile not found")
	case errors.Is(err, show.ErrShowNotFound):
		writeError(w, http.StatusNotFound, "show not found")
	case errors.Is(err, staff.ErrEmailDomainNotAllowed),
		errors.Is(err, staff.ErrStaffInactive),
		errors.Is(err, staff.ErrApplicationNotApproved):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, staff.ErrAvailabilityExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, staff.ErrApplicationIncomplete),
		errors.Is(err, staff.ErrDateOutsideShow),
		errors.Is(err, staff.ErrNoDates),
		errors.Is(err, show.ErrShowInactive):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, err)
	}
}

type staffApplicationRequest struct {
	Phone      string `json:"phone" validate:"required,max=50"`
	Location   string `json:"location" validate:"required,max=200"`
	College    string `json:"college" validate:"max=200"`
	Address    string `json:"address" validate:"required,max=200"`
	DressSize  string `json:"dressSize" validate:"required,max=50"`
	ShoeSize   string `json:"shoeSize" validate:"required,max=50"`
	Instagram  string `json:"instagram" validate:"required,max=200"`
	Experience string `json:"experience" validate:"required,max=2000"`
}

// handleSubmitStaffApplication records the caller's application (POST /api/staff/me/application).
func (s *Server) handleSubmitStaffApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req staffApplicationRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := orchestrators.ExecuteSubmitStaffApplication(r.Context(), orchestrators.SubmitStaffApplicationInput{
		StaffID: id.ID,
		Email:   id.Email,
		Application: staff.Application{
			Phone:      req.Phone,
			Location:   req.Location,
			College:    req.College,
			Address:    req.Address,
			DressSize:  req.DressSize,
			ShoeSize:   req.ShoeSize,
			Instagram:  req.Instagram,
			Experience: req.Experience,
		},
	}, s.staffSelfServiceDeps())
	if err != nil {
		staffError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStaffView(st))
}

type submitAvailabilityRequest struct {
	ShowID string   `json:"showId" validate:"required"`
	Dates  []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
}

// handleSubmitAvailability records the days the caller can work a show (POST /api/staff/me/availability).
// POST: 201 once per show; a second submission is 409
func (s *Server) handleSubmitAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req submitAvailabilityRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, err := orchestrators.ExecuteSubmitAvailability(r.Context(), orchestrators.SubmitAvailabilityInput{
		StaffID: id.ID,
		Email:   id.Email,
		ShowID:  req.ShowID,
		Dates:   req.Dates,
	}, s.staffSelfServiceDeps())
	if err != nil {
		staffError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, staffAvailabilityView{ID: a.ID, ShowID: a.ShowID, AvailableDates: a.AvailableDates, CreatedAt: a.CreatedAt})
}

// handleMyAvailability lists the caller's submissions (GET /api/staff/me/availability).
func (s *Server) handleMyAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	subs, err := projections.QueryGetStaffAvailability(r.Context(), id.ID, s.availabilityDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	views := make([]staffAvailabilityView, 0, len(subs))
	for _, a := range subs {
		views = append(views, staffAvailabilityView{ID: a.ID, ShowID: a.ShowID, AvailableDates: a.AvailableDates, CreatedAt: a.CreatedAt})
	}
	writeJSON(w, http.StatusOK, views)
}

type createStaffRequest struct {
	StaffID string `json:"staffId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required,max=200"`
}

// handleCreateStaffProfile creates an active staff profile (POST /api/admin/staff).
func (s *Server) handleCreateStaffProfile(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if !s.decode(w, r, &req) {
		return
	}
	actorID, actorRole := operatorActor(r)
	st, err := orchestrators.ExecuteCreateStaffProfile(r.Context(), orchestrators.CreateStaffProfileInput{
		StaffID:   req.StaffID,
		Email:     req.Email,
		Name:      req.Name,
		ActorID:   actorID,
		ActorRole: actorRole,
	}, s.staffAdminDeps())
	if err != nil {
		staffError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStaffView(st))
}

type approveStaffRequest struct {
	Approved bool `json:"approved"`
}

// handleApproveStaff sets or clears approval of a submitted application (POST /api/admin/staff/{id}/approval).
func (s *Server) handleApproveStaff(w http.ResponseWriter, r *http.Request) {
	var req approveStaffRequest
	if !s.decode(w, r, &req) {
		return
	}
	actorID, actorRole := operatorActor(r)
	st, err := orchestrators.ExecuteApproveStaffApplication(r.Context(), orchestrators.ApproveStaffApplicationInput{
		StaffID:   r.PathValue("id"),
		Approved:  req.Approved,
		ActorID:   actorID,
		ActorRole: actorRole,
	}, s.staffAdminDeps())
	if err != nil {
		staffError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStaffView(st))
}

func (s *Server) staffSelfServiceDeps() orchestrators.StaffSelfServiceDeps {
	return orchestrators.StaffSelfServiceDeps{
		StaffStore:    s.stores.StaffStore,
		ShowStore:     s.stores.ShowStore,
		AllowedDomain: s.opts.StaffEmailDomain,
		SideEffects:   s.opts.SideEffects,
		GenerateID:    s.opts.GenerateID,
		Now:           s.opts.Now,
	}
}

func (s *Server) staffAdminDeps() orchestrators.StaffAdminDeps {
	return orchestrators.StaffAdminDeps{
		StaffStore:    s.stores.StaffStore,
		AuditStore:    s.stores.AuditStore,
		AllowedDomain: s.opts.StaffEmailDomain,
		GenerateID:    s.opts.GenerateID,
		Now:           s.opts.Now,
	}
}

// operatorActor names the caller for the audit trail; key-only callers are "internal-key".
func operatorActor(r *http.Request) (string, string) {
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		return id.ID, id.Role
	}
	return "internal-key", middleware.RoleOperator
}
