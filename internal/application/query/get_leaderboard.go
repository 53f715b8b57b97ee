package query

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Cache-aside over the pure standings projection. The board state is
// authoritative; tile writes invalidate the cached standings and the cache
// TTL bounds staleness if an invalidation is lost.
// ══════════════════════════════════════════════════════════════════════════════

// StandingsCache is the cached standings store. The redis package provides
// the production implementation.
type StandingsCache interface {
	Get(ctx context.Context, name shared.BoardName) ([]leaderboard.Standing, error)
	Set(ctx context.Context, name shared.BoardName, standings []leaderboard.Standing) error
}

// GetLeaderboardHandler computes or serves cached standings for a board.
type GetLeaderboardHandler struct {
	store board.Store
	cache StandingsCache
	log   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. cache may be
// nil; standings are then recomputed on every call.
func NewGetLeaderboardHandler(store board.Store, cache StandingsCache, log *logger.Logger) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		store: store,
		cache: cache,
		log:   log.With(logger.Component("query")),
	}
}

// Handle returns the standings: points descending, completed count
// descending, team name ascending.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, name string) ([]leaderboard.Standing, error) {
	boardName, err := shared.NewBoardName(name)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if standings, err := h.cache.Get(ctx, boardName); err == nil {
			return standings, nil
		}
	}

	b, err := h.store.GetBoard(ctx, boardName)
	if err != nil {
		return nil, err
	}
	standings := leaderboard.Compute(b)

	if h.cache != nil {
		if err := h.cache.Set(ctx, boardName, standings); err != nil {
			h.log.Warn("cache standings", logger.BoardName(name), logger.Err(err))
		}
	}
	return standings, nil
}
