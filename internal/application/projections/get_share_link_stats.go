package projections

import (
	"context"
	"time"
)

// ShareLinkStatsView is a share link with its visit count.
type ShareLinkStatsView struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	BookingID   string    `json:"bookingId"`
	ClientID    string    `json:"clientId"`
	CompanyName string    `json:"companyName"`
	ShowName    string    `json:"showName"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GetShareLinkStatsDeps holds dependencies for QueryGetShareLinkStats.
type GetShareLinkStatsDeps struct {
	ShareLinkStore ShareLinkStore
}

// QueryGetShareLinkStats lists every share link with its click count, newest first.
func QueryGetShareLinkStats(ctx context.Context, baseURL string, deps GetShareLinkStatsDeps) ([]ShareLinkStatsView, error) {
	stats, err := deps.ShareLinkStore.ListStats(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ShareLinkStatsView, 0, len(stats))
	for _, s := range stats {
		views = append(views, ShareLinkStatsView{
			ID:          s.ID,
			URL:         s.URL(baseURL),
			BookingID:   s.BookingID,
			ClientID:    s.ClientID,
			CompanyName: s.CompanyName,
			ShowName:    s.ShowName,
			Clicks:      s.Clicks,
			CreatedAt:   s.CreatedAt,
		})
	}
	return views, nil
}
