package audit

import (
	"encoding/json"
	"time"
)

// Category groups audit events.
type Category string

const (
	CategoryBilling  Category = "billing"
	CategoryBooking  Category = "booking"
	CategoryStaff    Category = "staff"
	CategorySecurity Category = "security"
)

// Action is what happened to the resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionRepair  Action = "repair"
	ActionCharge  Action = "charge"
	ActionDecline Action = "decline"
	ActionDeny    Action = "deny"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Resource types recorded on events.
const (
	ResourceBooking = "booking"
	ResourceStaff   = "staff"
)

// Event is a single audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	Description  string    `json:"description"`
	Metadata     string    `json:"metadata"`
}

// NewEvent creates an info-level event.
// PRE: id is unique, action is non-empty
// POST: Returns an Event stamped at now
func NewEvent(id string, now time.Time, actorID, actorRole string, category Category, action Action) Event {
	return Event{
		ID:        id,
		Timestamp: now,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		ActorID:   actorID,
		ActorRole: actorRole,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
// PRE: resourceType and resourceID are non-empty
// POST: Event resource fields are populated
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithMetadata encodes fields as the event's JSON metadata.
// Unencodable values leave the metadata empty.
func (e Event) WithMetadata(fields map[string]any) Event {
	if len(fields) == 0 {
		return e
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return e
	}
	e.Metadata = string(b)
	return e
}
