package projections

import (
	"context"
	"fmt"

	domainShow "smithagency/internal/domain/show"
	domainStaff "smithagency/internal/domain/staff"
)

// GetShowAvailabilityResult carries the query result.
type GetShowAvailabilityResult struct {
	Show domainShow.Show
	// Submissions are ordered by staff name.
	Submissions []domainStaff.Availability
	// StaffByDate counts available staff per show day; every show day is present.
	StaffByDate map[string]int
}

// GetAvailabilityDeps holds dependencies for the availability queries.
type GetAvailabilityDeps struct {
	ShowStore         ShowStore
	AvailabilityStore AvailabilityStore
}

// QueryGetShowAvailability summarises staff availability for one show.
// PRE: showID is non-empty
// POST: StaffByDate has an entry for each day in the show's range
func QueryGetShowAvailability(ctx context.Context, showID string, deps GetAvailabilityDeps) (GetShowAvailabilityResult, error) {
	s, err := deps.ShowStore.GetByID(ctx, showID)
	if err != nil {
		return GetShowAvailabilityResult{}, fmt.Errorf("load show %s: %w", showID, err)
	}
	subs, err := deps.AvailabilityStore.ListAvailabilityByShow(ctx, showID)
	if err != nil {
		return GetShowAvailabilityResult{}, err
	}

	byDate := make(map[string]int)
	for _, d := range s.DateRange() {
		byDate[d] = 0
	}
	for _, a := range subs {
		for _, d := range a.AvailableDates {
			if _, ok := byDate[d]; ok {
				byDate[d]++
			}
		}
	}
	return GetShowAvailabilityResult{Show: s, Submissions: subs, StaffByDate: byDate}, nil
}

// QueryGetStaffAvailability lists a staff member's submissions, newest first.
func QueryGetStaffAvailability(ctx context.Context, staffID string, deps GetAvailabilityDeps) ([]domainStaff.Availability, error) {
	return deps.AvailabilityStore.ListAvailabilityByStaff(ctx, staffID)
}
