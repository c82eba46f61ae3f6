package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types for best-effort side effects of the booking lifecycle.
const (
	ActionTypeEmail = "email"
	ActionTypeEvent = "event"
)

// DefaultMaxAttempts bounds retries before an entry is parked as failed.
const DefaultMaxAttempts = 8

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrTerminal        = errors.New("outbox entry is in a terminal state")
	ErrEntryNotFound   = errors.New("outbox entry not found")
)

// Entry is a deferred side effect (an email or a domain event) awaiting delivery.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON, decoded by the executor for ActionType
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider reference once delivered
	ErrorMessage    string
}

// NewEntry builds a pending entry.
// PRE: actionType and payload are non-empty
// POST: Returns a pending entry with default max attempts
func NewEntry(id, actionType, payload string, now time.Time) (Entry, error) {
	e := Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}
	return e, e.Validate()
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}
	return nil
}

// IsTerminal returns true once the entry will never be retried.
// PRE: Status field is set
// POST: Returns true for done, abandoned, or failed
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusAbandoned || e.Status == StatusFailed
}

// DueAt returns when the entry may next be attempted.
// Uses exponential backoff: baseDelay * 2^attempts, capped at maxDelay.
func (e *Entry) DueAt(baseDelay, maxDelay time.Duration) time.Time {
	if e.LastAttemptedAt.IsZero() {
		return e.CreatedAt
	}
	delay := maxDelay
	if e.Attempts < 30 {
		if d := baseDelay << e.Attempts; d > 0 && d < maxDelay {
			delay = d
		}
	}
	return e.LastAttemptedAt.Add(delay)
}

// MarkAttempt records an attempt.
// PRE: Entry is not terminal
// POST: Attempts incremented, LastAttemptedAt set, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry delivered.
// POST: Status done, ExternalID recorded, error cleared
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt, parking the entry once attempts are exhausted.
// POST: ErrorMessage set; Status failed when Attempts >= MaxAttempts
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as abandoned by an operator.
// POST: Status abandoned
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}
