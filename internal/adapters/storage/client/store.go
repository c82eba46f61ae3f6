package client

import (
	"context"

	domain "smithagency/internal/domain/client"
)

// Store defines the interface for client, contact and showroom persistence.
type Store interface {
	// Upsert creates the client or updates its email, company name and website.
	// PRE: c has been validated
	// POST: Client persisted; CreatedAt of an existing row is preserved
	Upsert(ctx context.Context, c domain.Client) error

	// GetByID retrieves a client by its ID.
	// PRE: id is non-empty
	// POST: Returns the client or an error wrapping domain.ErrClientNotFound
	GetByID(ctx context.Context, id string) (domain.Client, error)

	// SaveContact inserts a contact.
	// PRE: c has been validated, c.ClientID exists
	SaveContact(ctx context.Context, c domain.Contact) error

	// GetContact retrieves a contact by its ID.
	// POST: Returns the contact or an error wrapping domain.ErrContactNotFound
	GetContact(ctx context.Context, id string) (domain.Contact, error)

	// ListContacts returns a client's contacts ordered by name.
	ListContacts(ctx context.Context, clientID string) ([]domain.Contact, error)

	// SaveShowroom inserts a showroom.
	// PRE: s has been validated, s.ClientID exists
	SaveShowroom(ctx context.Context, s domain.Showroom) error

	// GetShowroom retrieves a showroom by its ID.
	// POST: Returns the showroom or an error wrapping domain.ErrShowroomNotFound
	GetShowroom(ctx context.Context, id string) (domain.Showroom, error)

	// ListShowrooms returns a client's showrooms ordered by city.
	ListShowrooms(ctx context.Context, clientID string) ([]domain.Showroom, error)
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
