package query

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECENT DROPS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// DropsFeed is the capped recent-drops cache. The redis package provides the
// production implementation.
type DropsFeed interface {
	Recent(ctx context.Context, limit int) ([]*drop.Drop, error)
}

// RecentDropsResult is the drops feed plus log-wide aggregates.
type RecentDropsResult struct {
	Drops []*drop.Drop `json:"drops"`
	Stats drop.Stats   `json:"stats"`
}

// RecentDropsHandler serves the live drop feed. The feed cache is tried
// first; the durable log is authoritative and covers cold caches.
type RecentDropsHandler struct {
	drops drop.Log
	feed  DropsFeed
	log   *logger.Logger
}

// NewRecentDropsHandler creates a new RecentDropsHandler. feed may be nil.
func NewRecentDropsHandler(drops drop.Log, feed DropsFeed, log *logger.Logger) *RecentDropsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecentDropsHandler{
		drops: drops,
		feed:  feed,
		log:   log.With(logger.Component("query")),
	}
}

// Handle returns up to limit drops, newest first, with aggregate stats.
func (h *RecentDropsHandler) Handle(ctx context.Context, limit int) (*RecentDropsResult, error) {
	if limit <= 0 {
		limit = 50
	}

	var drops []*drop.Drop
	if h.feed != nil {
		cached, err := h.feed.Recent(ctx, limit)
		if err != nil {
			h.log.Warn("drops feed cache read", logger.Err(err))
		} else {
			drops = cached
		}
	}
	if len(drops) == 0 {
		fromLog, err := h.drops.ListRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		drops = fromLog
	}

	stats, err := h.drops.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &RecentDropsResult{Drops: drops, Stats: stats}, nil
}
