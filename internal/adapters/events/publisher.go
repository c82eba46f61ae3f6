package events

import (
	"context"
	"time"
)

// Event types published by the booking lifecycle.
const (
	TypeBookingMaterialized        = "booking.materialized"
	TypeBookingFinalCharged        = "booking.final_charged"
	TypeBookingFinalDeclined       = "booking.final_charge_declined"
	TypeStaffAvailabilitySubmitted = "staff.availability_submitted"
)

// Event is a domain event. Type doubles as the routing key.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ResourceID string         `json:"resource_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher delivers domain events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
