package orchestrators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smithagency/internal/domain/show"
)

// ShowWriter persists shows.
type ShowWriter interface {
	Save(ctx context.Context, s show.Show) error
}

// SaveShowInput carries input for the orchestrator. An empty ID creates a show.
type SaveShowInput struct {
	ID        string
	Name      string
	Location  string
	StartDate string
	EndDate   string
	Status    string
}

// SaveShowDeps holds dependencies for ExecuteSaveShow.
type SaveShowDeps struct {
	ShowStore  ShowWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSaveShow creates or replaces a show.
// PRE: Dates are YYYY-MM-DD with StartDate <= EndDate
// POST: Show persisted; Status defaults to active
func ExecuteSaveShow(ctx context.Context, input SaveShowInput, deps SaveShowDeps) (show.Show, error) {
	s := show.Show{
		ID:        strings.TrimSpace(input.ID),
		Name:      strings.TrimSpace(input.Name),
		Location:  strings.TrimSpace(input.Location),
		StartDate: strings.TrimSpace(input.StartDate),
		EndDate:   strings.TrimSpace(input.EndDate),
		Status:    input.Status,
		CreatedAt: deps.Now(),
	}
	if s.ID == "" {
		s.ID = deps.GenerateID()
	}
	if s.Status == "" {
		s.Status = show.StatusActive
	}
	if err := s.Validate(); err != nil {
		return show.Show{}, err
	}
	if err := deps.ShowStore.Save(ctx, s); err != nil {
		return show.Show{}, fmt.Errorf("save show %s: %w", s.ID, err)
	}
	return s, nil
}
