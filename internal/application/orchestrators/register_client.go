package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smithagency/internal/adapters/email"
	"smithagency/internal/domain/client"
)

// ClientStore defines the client persistence the orchestrators need.
type ClientStore interface {
	Upsert(ctx context.Context, c client.Client) error
	GetByID(ctx context.Context, id string) (client.Client, error)
	SaveContact(ctx context.Context, c client.Contact) error
	SaveShowroom(ctx context.Context, s client.Showroom) error
}

// RegisterClientInput carries input for the orchestrator.
type RegisterClientInput struct {
	ClientID    string
	Email       string
	CompanyName string
	Website     string
}

// RegisterClientDeps holds dependencies for ExecuteRegisterClient.
type RegisterClientDeps struct {
	ClientStore ClientStore
	SideEffects SideEffectDeps
	BaseURL     string
	GenerateID  func() string
	Now         func() time.Time
}

// RegisterClientResult is the stored profile.
type RegisterClientResult struct {
	Client  client.Client
	Created bool
}

// ExecuteRegisterClient creates or updates the caller's client profile.
// PRE: input.ClientID is the authenticated subject
// POST: Profile persisted; the welcome email is sent only when the profile is new
// INVARIANT: CreatedAt of an existing profile is preserved
func ExecuteRegisterClient(ctx context.Context, input RegisterClientInput, deps RegisterClientDeps) (RegisterClientResult, error) {
	now := deps.Now()
	c := client.Client{
		ID:          input.ClientID,
		Email:       strings.TrimSpace(input.Email),
		CompanyName: strings.TrimSpace(input.CompanyName),
		Website:     strings.TrimSpace(input.Website),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return RegisterClientResult{}, err
	}

	existing, err := deps.ClientStore.GetByID(ctx, c.ID)
	created := errors.Is(err, client.ErrClientNotFound)
	if err != nil && !created {
		return RegisterClientResult{}, fmt.Errorf("load client %s: %w", c.ID, err)
	}
	if !created {
		c.CreatedAt = existing.CreatedAt
	}

	if err := deps.ClientStore.Upsert(ctx, c); err != nil {
		return RegisterClientResult{}, fmt.Errorf("save client %s: %w", c.ID, err)
	}
	slog.Info("client_event", "event", "client_registered", "client_id", c.ID, "created", created)

	if created {
		req, err := email.RenderWelcome(c.Email, email.WelcomeData{
			CompanyName: c.CompanyName,
			PortalURL:   strings.TrimRight(deps.BaseURL, "/") + "/client/portal",
		})
		if err != nil {
			slog.Error("email_event", "event", "render_failed", "client_id", c.ID, "error", err.Error())
		} else {
			sendEmail(ctx, deps.SideEffects, req, deps.GenerateID, deps.Now)
		}
	}

	return RegisterClientResult{Client: c, Created: created}, nil
}

// AddContactInput carries input for the orchestrator.
type AddContactInput struct {
	ClientID string
	Name     string
	Email    string
	Phone    string
}

// ClientRecordDeps holds dependencies for contact and showroom creation.
type ClientRecordDeps struct {
	ClientStore ClientStore
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteAddContact adds a contact to the caller's profile.
// PRE: The client profile exists
// POST: Contact persisted with a generated ID
func ExecuteAddContact(ctx context.Context, input AddContactInput, deps ClientRecordDeps) (client.Contact, error) {
	if _, err := deps.ClientStore.GetByID(ctx, input.ClientID); err != nil {
		return client.Contact{}, fmt.Errorf("load client %s: %w", input.ClientID, err)
	}
	c := client.Contact{
		ID:        deps.GenerateID(),
		ClientID:  input.ClientID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		CreatedAt: deps.Now(),
	}
	if err := c.Validate(); err != nil {
		return client.Contact{}, err
	}
	if err := deps.ClientStore.SaveContact(ctx, c); err != nil {
		return client.Contact{}, fmt.Errorf("save contact for client %s: %w", input.ClientID, err)
	}
	return c, nil
}

// AddShowroomInput carries input for the orchestrator.
type AddShowroomInput struct {
	ClientID       string
	City           string
	BuildingNumber string
	FloorNumber    string
	BoothNumber    string
}

// ExecuteAddShowroom adds a showroom to the caller's profile.
// PRE: The client profile exists
// POST: Showroom persisted with a generated ID
func ExecuteAddShowroom(ctx context.Context, input AddShowroomInput, deps ClientRecordDeps) (client.Showroom, error) {
	if _, err := deps.ClientStore.GetByID(ctx, input.ClientID); err != nil {
		return client.Showroom{}, fmt.Errorf("load client %s: %w", input.ClientID, err)
	}
	s := client.Showroom{
		ID:             deps.GenerateID(),
		ClientID:       input.ClientID,
		City:           strings.TrimSpace(input.City),
		BuildingNumber: strings.TrimSpace(input.BuildingNumber),
		FloorNumber:    strings.TrimSpace(input.FloorNumber),
		BoothNumber:    strings.TrimSpace(input.BoothNumber),
		CreatedAt:      deps.Now(),
	}
	if err := s.Validate(); err != nil {
		return client.Showroom{}, err
	}
	if err := deps.ClientStore.SaveShowroom(ctx, s); err != nil {
		return client.Showroom{}, fmt.Errorf("save showroom for client %s: %w", input.ClientID, err)
	}
	return s, nil
}
