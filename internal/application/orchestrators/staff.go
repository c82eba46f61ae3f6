package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smithagency/internal/adapters/events"
	domainAudit "smithagency/internal/domain/audit"
	"smithagency/internal/domain/show"
	"smithagency/internal/domain/staff"
)

// StaffStore defines the staff persistence the orchestrators need.
type StaffStore interface {
	GetByID(ctx context.Context, id string) (staff.Staff, error)
	Save(ctx context.Context, s staff.Staff) error
	CreateAvailability(ctx context.Context, a staff.Availability) error
}

// CreateStaffProfileInput carries input for the orchestrator.
type CreateStaffProfileInput struct {
	StaffID   string
	Email     string
	Name      string
	ActorID   string
	ActorRole string
}

// StaffAdminDeps holds dependencies for operator staff actions.
type StaffAdminDeps struct {
	StaffStore    StaffStore
	AuditStore    AuditWriter
	AllowedDomain string
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteCreateStaffProfile creates an active staff profile for an auth subject.
// PRE: input.StaffID is the staff member's auth subject
// POST: Active profile persisted with no application
func ExecuteCreateStaffProfile(ctx context.Context, input CreateStaffProfileInput, deps StaffAdminDeps) (staff.Staff, error) {
	if strings.TrimSpace(input.StaffID) == "" || strings.TrimSpace(input.Name) == "" {
		return staff.Staff{}, fmt.Errorf("staff id and name are required")
	}
	if !staff.EmailDomainAllowed(input.Email, deps.AllowedDomain) {
		return staff.Staff{}, staff.ErrEmailDomainNotAllowed
	}
	now := deps.Now()
	s := staff.Staff{
		ID:        input.StaffID,
		Email:     strings.TrimSpace(input.Email),
		Name:      strings.TrimSpace(input.Name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := deps.StaffStore.Save(ctx, s); err != nil {
		return staff.Staff{}, fmt.Errorf("save staff %s: %w", s.ID, err)
	}
	writeAudit(ctx, deps.AuditStore, domainAudit.NewEvent(deps.GenerateID(), now, actorOrSystem(input.ActorID), input.ActorRole, domainAudit.CategoryStaff, domainAudit.ActionCreate).
		WithResource(domainAudit.ResourceStaff, s.ID).
		WithDescription("Staff profile created"))
	return s, nil
}

// ApproveStaffApplicationInput carries input for the orchestrator.
type ApproveStaffApplicationInput struct {
	StaffID   string
	Approved  bool
	ActorID   string
	ActorRole string
}

// ExecuteApproveStaffApplication sets or clears approval of a completed application.
// PRE: The application has been submitted
// POST: ApplicationApproved equals input.Approved
func ExecuteApproveStaffApplication(ctx context.Context, input ApproveStaffApplicationInput, deps StaffAdminDeps) (staff.Staff, error) {
	s, err := deps.StaffStore.GetByID(ctx, input.StaffID)
	if err != nil {
		return staff.Staff{}, fmt.Errorf("load staff %s: %w", input.StaffID, err)
	}
	if !s.ApplicationComplete {
		return staff.Staff{}, staff.ErrApplicationIncomplete
	}
	s.ApplicationApproved = input.Approved
	s.UpdatedAt = deps.Now()
	if err := deps.StaffStore.Save(ctx, s); err != nil {
		return staff.Staff{}, fmt.Errorf("save staff %s: %w", s.ID, err)
	}
	slog.Info("staff_event", "event", "application_reviewed", "staff_id", s.ID, "approved", input.Approved)
	writeAudit(ctx, deps.AuditStore, domainAudit.NewEvent(deps.GenerateID(), s.UpdatedAt, actorOrSystem(input.ActorID), input.ActorRole, domainAudit.CategoryStaff, domainAudit.ActionUpdate).
		WithResource(domainAudit.ResourceStaff, s.ID).
		WithDescription("Staff application reviewed").
		WithMetadata(map[string]any{"approved": input.Approved}))
	return s, nil
}

// SubmitStaffApplicationInput carries input for the orchestrator.
type SubmitStaffApplicationInput struct {
	StaffID     string
	Email       string
	Application staff.Application
}

// StaffSelfServiceDeps holds dependencies for staff self-service actions.
type StaffSelfServiceDeps struct {
	StaffStore    StaffStore
	ShowStore     ShowReader
	AllowedDomain string
	SideEffects   SideEffectDeps
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSubmitStaffApplication records the caller's application for review.
// PRE: An operator has created the profile
// POST: Application fields saved, ApplicationComplete true; approval unchanged
func ExecuteSubmitStaffApplication(ctx context.Context, input SubmitStaffApplicationInput, deps StaffSelfServiceDeps) (staff.Staff, error) {
	if !staff.EmailDomainAllowed(input.Email, deps.AllowedDomain) {
		return staff.Staff{}, staff.ErrEmailDomainNotAllowed
	}
	s, err := deps.StaffStore.GetByID(ctx, input.StaffID)
	if err != nil {
		return staff.Staff{}, fmt.Errorf("load staff %s: %w", input.StaffID, err)
	}
	if !s.Active {
		return staff.Staff{}, staff.ErrStaffInactive
	}
	if err := input.Application.Validate(); err != nil {
		return staff.Staff{}, err
	}
	s.ApplyApplication(input.Application, deps.Now())
	if err := deps.StaffStore.Save(ctx, s); err != nil {
		return staff.Staff{}, fmt.Errorf("save staff %s: %w", s.ID, err)
	}
	slog.Info("staff_event", "event", "application_submitted", "staff_id", s.ID)
	return s, nil
}

// SubmitAvailabilityInput carries input for the orchestrator.
type SubmitAvailabilityInput struct {
	StaffID string
	Email   string
	ShowID  string
	Dates   []string
}

// ExecuteSubmitAvailability records the days the caller can work a show.
// PRE: The caller's application is completed and approved
// POST: One availability record per staff member per show
// INVARIANT: Dates are unique, ascending and within the show's range
func ExecuteSubmitAvailability(ctx context.Context, input SubmitAvailabilityInput, deps StaffSelfServiceDeps) (staff.Availability, error) {
	if !staff.EmailDomainAllowed(input.Email, deps.AllowedDomain) {
		return staff.Availability{}, staff.ErrEmailDomainNotAllowed
	}
	s, err := deps.StaffStore.GetByID(ctx, input.StaffID)
	if err != nil {
		return staff.Availability{}, fmt.Errorf("load staff %s: %w", input.StaffID, err)
	}
	if err := s.CanSubmitAvailability(); err != nil {
		return staff.Availability{}, err
	}

	sh, err := deps.ShowStore.GetByID(ctx, input.ShowID)
	if err != nil {
		return staff.Availability{}, fmt.Errorf("load show %s: %w", input.ShowID, err)
	}
	if !sh.IsActive() {
		return staff.Availability{}, fmt.Errorf("show %s: %w", sh.ID, show.ErrShowInactive)
	}
	dates, err := staff.NormalizeDates(input.Dates, sh.StartDate, sh.EndDate)
	if err != nil {
		return staff.Availability{}, err
	}

	a := staff.Availability{
		ID:             staff.AvailabilityID(s.ID, sh.ID),
		StaffID:        s.ID,
		StaffName:      s.Name,
		StaffEmail:     s.Email,
		ShowID:         sh.ID,
		AvailableDates: dates,
		CreatedAt:      deps.Now(),
	}
	if err := deps.StaffStore.CreateAvailability(ctx, a); err != nil {
		return staff.Availability{}, fmt.Errorf("save availability %s: %w", a.ID, err)
	}

	slog.Info("staff_event", "event", "availability_submitted", "staff_id", s.ID, "show_id", sh.ID, "days", len(dates))
	publishEvent(ctx, deps.SideEffects, events.Event{
		Type:       events.TypeStaffAvailabilitySubmitted,
		ResourceID: a.ID,
		Data:       map[string]any{"staff_id": s.ID, "show_id": sh.ID, "dates": dates},
	}, deps.GenerateID, deps.Now)
	return a, nil
}
