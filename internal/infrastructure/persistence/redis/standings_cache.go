// Package redis implements Redis caching for Bingo Hub.
package redis

import (
	"context"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS CACHE
// ══════════════════════════════════════════════════════════════════════════════

// StandingsCache caches computed leaderboard standings per board. The board
// state is authoritative; every accepted tile write invalidates the key, and
// the TTL bounds staleness in case an invalidation is lost.
type StandingsCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewStandingsCache creates a StandingsCache with the default TTL.
func NewStandingsCache(cache *Cache) *StandingsCache {
	return &StandingsCache{cache: cache, ttl: TTLStandings}
}

func standingsKey(board shared.BoardName) string {
	return PrefixStandings + board.String()
}

// Get returns cached standings, or ErrCacheMiss.
func (s *StandingsCache) Get(ctx context.Context, board shared.BoardName) ([]leaderboard.Standing, error) {
	var standings []leaderboard.Standing
	if err := s.cache.Get(ctx, standingsKey(board), &standings); err != nil {
		return nil, err
	}
	return standings, nil
}

// Set stores standings for a board.
func (s *StandingsCache) Set(ctx context.Context, board shared.BoardName, standings []leaderboard.Standing) error {
	return s.cache.Set(ctx, standingsKey(board), standings, s.ttl)
}

// Invalidate drops the cached standings for a board.
func (s *StandingsCache) Invalidate(ctx context.Context, board shared.BoardName) error {
	return s.cache.Delete(ctx, standingsKey(board))
}
