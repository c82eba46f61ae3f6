package projections

import (
	"context"

	domainShow "smithagency/internal/domain/show"
)

// QueryListActiveShows returns the shows open for booking, earliest first.
func QueryListActiveShows(ctx context.Context, store ShowStore) ([]domainShow.Show, error) {
	shows, err := store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []domainShow.Show{}
	}
	return shows, nil
}
