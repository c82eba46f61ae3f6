package projections

import (
	"context"

	domainClient "smithagency/internal/domain/client"
)

// GetClientProfileResult carries the query result.
type GetClientProfileResult struct {
	Client    domainClient.Client
	Contacts  []domainClient.Contact
	Showrooms []domainClient.Showroom
}

// GetClientProfileDeps holds dependencies for QueryGetClientProfile.
type GetClientProfileDeps struct {
	ClientStore ClientStore
}

// QueryGetClientProfile loads a client with its contacts and showrooms.
// PRE: clientID is non-empty
// POST: Returns an error wrapping client.ErrClientNotFound for an unknown client
func QueryGetClientProfile(ctx context.Context, clientID string, deps GetClientProfileDeps) (GetClientProfileResult, error) {
	c, err := deps.ClientStore.GetByID(ctx, clientID)
	if err != nil {
		return GetClientProfileResult{}, err
	}
	contacts, err := deps.ClientStore.ListContacts(ctx, clientID)
	if err != nil {
		return GetClientProfileResult{}, err
	}
	showrooms, err := deps.ClientStore.ListShowrooms(ctx, clientID)
	if err != nil {
		return GetClientProfileResult{}, err
	}
	return GetClientProfileResult{Client: c, Contacts: contacts, Showrooms: showrooms}, nil
}
