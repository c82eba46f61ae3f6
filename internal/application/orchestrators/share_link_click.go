package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smithagency/internal/domain/sharelink"
)

// ShareLinkClickStore resolves links and records visits.
type ShareLinkClickStore interface {
	GetByID(ctx context.Context, id string) (sharelink.ShareLink, error)
	RecordClick(ctx context.Context, c sharelink.Click) error
}

// RecordShareLinkClickDeps holds dependencies for ExecuteRecordShareLinkClick.
type RecordShareLinkClickDeps struct {
	ShareLinkStore ShareLinkClickStore
	GenerateID     func() string
	Now            func() time.Time
}

// ExecuteRecordShareLinkClick resolves a public share link and logs the visit.
// PRE: id is the link's public slug
// POST: Returns the link or an error wrapping sharelink.ErrShareLinkNotFound
// INVARIANT: A failed click write does not hide the landing page
func ExecuteRecordShareLinkClick(ctx context.Context, id string, deps RecordShareLinkClickDeps) (sharelink.ShareLink, error) {
	link, err := deps.ShareLinkStore.GetByID(ctx, id)
	if err != nil {
		return sharelink.ShareLink{}, fmt.Errorf("load share link %s: %w", id, err)
	}
	if err := deps.ShareLinkStore.RecordClick(ctx, sharelink.NewClick(deps.GenerateID(), link, deps.Now())); err != nil {
		slog.Warn("share_link_event", "event", "click_record_failed", "share_link_id", link.ID, "error", err.Error())
	}
	return link, nil
}
