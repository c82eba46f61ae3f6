package web

import (
	"errors"
	"net/http"
	"time"

	"smithagency/internal/application/orchestrators"
	"smithagency/internal/application/projections"
	"smithagency/internal/domain/client"
)

type clientView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"companyName"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type contactView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type showroomView struct {
	ID             string `json:"id"`
	City           string `json:"city"`
	BuildingNumber string `json:"buildingNumber,omitempty"`
	FloorNumber    string `json:"floorNumber,omitempty"`
	BoothNumber    string `json:"boothNumber,omitempty"`
	Label          string `json:"label"`
}

func newClientView(c client.Client) clientView {
	return clientView{ID: c.ID, Email: c.Email, CompanyName: c.CompanyName, Website: c.Website, CreatedAt: c.CreatedAt}
}

func newContactView(c client.Contact) contactView {
	return contactView{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

func newShowroomView(s client.Showroom) showroomView {
	return showroomView{
		ID:             s.ID,
		City:           s.City,
		BuildingNumber: s.BuildingNumber,
		FloorNumber:    s.FloorNumber,
		BoothNumber:    s.BoothNumber,
		Label:          s.Label(),
	}
}

type registerClientRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Website     string `json:"website" validate:"omitempty,max=200"`
}

// handleRegisterClient creates or updates the caller's client profile (POST /api/clients/me).
// POST: 201 with the welcome email sent on first registration, 200 on update
func (s *Server) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req registerClientRequest
	if !s.decode(w, r, &req) {
		return
	}
	if id.Email == "" {
		writeError(w, http.StatusBadRequest, "token has no email")
		return
	}

	res, err := orchestrators.ExecuteRegisterClient(r.Context(), orchestrators.RegisterClientInput{
		ClientID:    id.ID,
		Email:       id.Email,
		CompanyName: req.CompanyName,
		Website:     req.Website,
	}, orchestrators.RegisterClientDeps{
		ClientStore: s.stores.ClientStore,
		SideEffects: s.opts.SideEffects,
		BaseURL:     s.opts.BaseURL,
		GenerateID:  s.opts.GenerateID,
		Now:         s.opts.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newClientView(res.Client))
}

type clientProfileResponse struct {
	Client    clientView     `json:"client"`
	Contacts  []contactView  `json:"contacts"`
	Showrooms []showroomView `json:"showrooms"`
}

// handleGetClientProfile returns the caller's profile with contacts and showrooms (GET /api/clients/me).
func (s *Server) handleGetClientProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	res, err := projections.QueryGetClientProfile(r.Context(), id.ID, projections.GetClientProfileDeps{ClientStore: s.stores.ClientStore})
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			writeError(w, http.StatusNotFound, "client profile not found")
			return
		}
		internalError(w, err)
		return
	}

	resp := clientProfileResponse{
		Client:    newClientView(res.Client),
		Contacts:  make([]contactView, 0, len(res.Contacts)),
		Showrooms: make([]showroomView, 0, len(res.Showrooms)),
	}
	for _, c := range res.Contacts {
		resp.Contacts = append(resp.Contacts, newContactView(c))
	}
	for _, sr := range res.Showrooms {
		resp.Showrooms = append(resp.Showrooms, newShowroomView(sr))
	}
	writeJSON(w, http.StatusOK, resp)
}

type addContactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
}

// handleAddContact adds a contact to the caller's profile (POST /api/clients/me/contacts).
func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req addContactRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteAddContact(r.Context(), orchestrators.AddContactInput{
		ClientID: id.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}, s.clientRecordDeps())
	if err != nil {
		clientRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newContactView(c))
}

type addShowroomRequest struct {
	City           string `json:"city" validate:"required,max=50"`
	BuildingNumber string `json:"buildingNumber" validate:"max=50"`
	FloorNumber    string `json:"floorNumber" validate:"max=50"`
	BoothNumber    string `json:"boothNumber" validate:"max=50"`
}

// handleAddShowroom adds a showroom to the caller's profile (POST /api/clients/me/showrooms).
func (s *Server) handleAddShowroom(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req addShowroomRequest
	if !s.decode(w, r, &req) {
		return
	}
	sr, err := orchestrators.ExecuteAddShowroom(r.Context(), orchestrators.AddShowroomInput{
		ClientID:       id.ID,
		City:           req.City,
		BuildingNumber: req.BuildingNumber,
		FloorNumber:    req.FloorNumber,
		BoothNumber:    req.BoothNumber,
	}, s.clientRecordDeps())
	if err != nil {
		clientRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newShowroomView(sr))
}

func (s *Server) clientRecordDeps() orchestrators.ClientRecordDeps {
	return orchestrators.ClientRecordDeps{
		ClientStore: s.stores.ClientStore,
		GenerateID:  s.opts.GenerateID,
		Now:         s.opts.Now,
	}
}

func clientRecordError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrClientNotFound) {
		writeError(w, http.StatusConflict, "register the client profile first")
		return
	}
	internalError(w, err)
}

// handleClientBookings lists the caller's bookings with pricing (GET /api/clients/me/bookings).
func (s *Server) handleClientBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	res, err := projections.QueryGetClientBookings(r.Context(), projections.GetClientBookingsQuery{
		ClientID: id.ID,
		BaseURL:  s.opts.BaseURL,
	}, projections.GetClientBookingsDeps{
		BookingStore:   s.stores.BookingStore,
		ShareLinkStore: s.stores.ShareLinkStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
