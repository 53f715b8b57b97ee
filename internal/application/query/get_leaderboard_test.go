package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/persistence/memory"
)

// mapCache is an in-memory StandingsCache for tests.
type mapCache struct {
	entries map[shared.BoardName][]leaderboard.Standing
	gets    int
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[shared.BoardName][]leaderboard.Standing)}
}

func (c *mapCache) Get(_ context.Context, name shared.BoardName) ([]leaderboard.Standing, error) {
	c.gets++
	standings, ok := c.entries[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c.hits++
	return standings, nil
}

func (c *mapCache) Set(_ context.Context, name shared.BoardName, standings []leaderboard.Standing) error {
	c.entries[name] = standings
	return nil
}

func completeTile(t *testing.T, store *memory.Store, team shared.TeamName, row, col int) {
	t.Helper()

	checked := true
	_, err := store.UpdateTile(context.Background(), board.UpdateTileParams{
		Key:      shared.TileKey{Board: "Fall Event", Team: team, Coord: shared.Coord{Row: row, Col: col}},
		Mutation: board.Mutation{Checked: &checked},
		Password: "team-secret",
	})
	require.NoError(t, err)
}

func TestGetLeaderboard(t *testing.T) {
	store := memory.NewStore()
	seedBoard(t, store)
	completeTile(t, store, "Blue", 0, 0) // 10 points
	completeTile(t, store, "Blue", 0, 1) // 20 points
	completeTile(t, store, "Red", 1, 0)  // 30 points

	handler := NewGetLeaderboardHandler(store, nil, nil)
	standings, err := handler.Handle(context.Background(), "Fall Event")
	require.NoError(t, err)

	require.Len(t, standings, 2)
	assert.Equal(t, "Blue", standings[0].Team, "two completions beat one on equal points")
	assert.Equal(t, 30, standings[0].Points)
	assert.Equal(t, 2, standings[0].CompletedCount)
	assert.Equal(t, "Red", standings[1].Team)
	assert.Equal(t, 30, standings[1].Points)
}

func TestGetLeaderboard_CacheAside(t *testing.T) {
	store := memory.NewStore()
	seedBoard(t, store)
	completeTile(t, store, "Red", 0, 0)

	cache := newMapCache()
	handler := NewGetLeaderboardHandler(store, cache, nil)
	ctx := context.Background()

	first, err := handler.Handle(ctx, "Fall Event")
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	// The second read is served from the cache even though the board moved;
	// tile writes are responsible for invalidation.
	completeTile(t, store, "Red", 0, 1)
	second, err := handler.Handle(ctx, "Fall Event")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)
}

func TestGetBoard(t *testing.T) {
	store := memory.NewStore()
	seedBoard(t, store)

	b, err := NewGetBoardHandler(store).Handle(context.Background(), "Fall Event")
	require.NoError(t, err)
	assert.Equal(t, shared.BoardName("Fall Event"), b.Name)

	_, err = NewGetBoardHandler(store).Handle(context.Background(), "Missing")
	assert.True(t, shared.IsNotFound(err))

	names, err := NewListBoardsHandler(store).Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []shared.BoardName{"Fall Event"}, names)
}
