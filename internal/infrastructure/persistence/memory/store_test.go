package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

func seedBoard(t *testing.T, store *Store, rows, cols int) *board.Board {
	t.Helper()

	grid := make([][]board.TileDefinition, rows)
	for r := range grid {
		grid[r] = make([]board.TileDefinition, cols)
		for c := range grid[r] {
			grid[r][c] = board.TileDefinition{
				Title:       fmt.Sprintf("tile %d,%d", r, c),
				Points:      5,
				Requirement: board.ItemRequirement(fmt.Sprintf("item %d,%d", r, c)),
			}
		}
	}

	b, err := board.NewBoard(board.Definition{
		Name:            "Fall Event",
		AdminPassword:   "admin-secret",
		GeneralPassword: "team-secret",
		Grid:            grid,
		Teams:           []board.Team{{Name: "Red"}, {Name: "Blue"}},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateBoard(context.Background(), b))
	return b
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 2, 2)

	got, err := store.GetBoard(context.Background(), "Fall Event")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows())

	// Duplicate creation is rejected.
	dup, err := board.NewBoard(board.Definition{
		Name:            "Fall Event",
		AdminPassword:   "a",
		GeneralPassword: "g",
		Grid:            got.Grid,
		Teams:           []board.Team{{Name: "Red"}},
	}, time.Now())
	require.NoError(t, err)
	err = store.CreateBoard(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = store.GetBoard(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStore_GetBoardReturnsCopy(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 1, 1)

	got, err := store.GetBoard(context.Background(), "Fall Event")
	require.NoError(t, err)
	got.TeamTiles["Red"][0][0].Checked = true

	again, err := store.GetBoard(context.Background(), "Fall Event")
	require.NoError(t, err)
	assert.False(t, again.TeamTiles["Red"][0][0].Checked,
		"mutating a returned board must not leak into the store")
}

func TestStore_UpdateTile(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 2, 2)

	checked := true
	player := "P1"
	result, err := store.UpdateTile(context.Background(), board.UpdateTileParams{
		Key: shared.TileKey{
			Board: "Fall Event",
			Team:  "Red",
			Coord: shared.Coord{Row: 0, Col: 1},
		},
		Mutation: board.Mutation{Checked: &checked, CompletedBy: &player},
		Password: "team-secret",
	})
	require.NoError(t, err)
	assert.True(t, result.Outcome.Transitioned)
	assert.Equal(t, "P1", result.State.CompletedBy)
	assert.True(t, result.TeamGrid[0][1].Checked)
	assert.False(t, result.TeamGrid[0][0].Checked)

	// Wrong password never reaches the tile.
	_, err = store.UpdateTile(context.Background(), board.UpdateTileParams{
		Key: shared.TileKey{
			Board: "Fall Event",
			Team:  "Red",
			Coord: shared.Coord{Row: 0, Col: 0},
		},
		Mutation: board.Mutation{Checked: &checked},
		Password: "wrong",
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestStore_UpdateTile_OutOfBounds(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 2, 2)

	checked := true
	_, err := store.UpdateTile(context.Background(), board.UpdateTileParams{
		Key: shared.TileKey{
			Board: "Fall Event",
			Team:  "Red",
			Coord: shared.Coord{Row: 2, Col: 0},
		},
		Mutation: board.Mutation{Checked: &checked},
		Password: "team-secret",
	})
	assert.ErrorIs(t, err, shared.ErrOutOfBounds)
}

func TestStore_ConcurrentDistinctTiles(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 4, 4)

	checked := true
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			wg.Add(1)
			go func(r, c int) {
				defer wg.Done()
				_, err := store.UpdateTile(context.Background(), board.UpdateTileParams{
					Key: shared.TileKey{
						Board: "Fall Event",
						Team:  "Red",
						Coord: shared.Coord{Row: r, Col: c},
					},
					Mutation: board.Mutation{Checked: &checked},
					Password: "team-secret",
				})
				errs[r*4+c] = err
			}(r, c)
		}
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "update %d", i)
	}

	got, err := store.GetBoard(context.Background(), "Fall Event")
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.True(t, got.TeamTiles["Red"][r][c].Checked)
		}
	}
}

func TestStore_ConcurrentSameTileSerializes(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 1, 1)

	checked := true
	const writers = 8
	var wg sync.WaitGroup
	transitions := make([]bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := fmt.Sprintf("P%d", i)
			result, err := store.UpdateTile(context.Background(), board.UpdateTileParams{
				Key: shared.TileKey{
					Board: "Fall Event",
					Team:  "Red",
					Coord: shared.Coord{Row: 0, Col: 0},
				},
				Mutation: board.Mutation{Checked: &checked, CompletedBy: &player},
				Password: "team-secret",
			})
			require.NoError(t, err)
			transitions[i] = result.Outcome.Transitioned
		}(i)
	}
	wg.Wait()

	// Exactly one writer wins; the rest observe the committed state.
	wins := 0
	for _, transitioned := range transitions {
		if transitioned {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestStore_CompleteItemTile(t *testing.T) {
	store := NewStore()
	seedBoard(t, store, 1, 2)

	result, found, err := store.CompleteItemTile(
		context.Background(), "Fall Event", "Red", "ITEM 0,1", "P1", "https://img/1.png")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "P1", result.State.CompletedBy)
	assert.True(t, result.Outcome.Transitioned)

	// A second identical drop finds no open tile.
	_, found, err = store.CompleteItemTile(
		context.Background(), "Fall Event", "Red", "item 0,1", "P2", "")
	require.NoError(t, err)
	assert.False(t, found)

	// Unknown team is an error, not a silent miss.
	_, _, err = store.CompleteItemTile(
		context.Background(), "Fall Event", "Gold", "item 0,0", "P1", "")
	assert.ErrorIs(t, err, shared.ErrTeamNotFound)
}

func TestDropLog(t *testing.T) {
	log := NewDropLog()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := drop.New(drop.Input{
			PlayerName: fmt.Sprintf("P%d", i%2),
			ItemName:   fmt.Sprintf("item-%d", i),
			Quantity:   1,
		}, time.Now())
		require.NoError(t, err)
		require.NoError(t, log.Append(ctx, d))
	}

	recent, err := log.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "item-2", recent[0].ItemName, "newest first")
	assert.Equal(t, "item-1", recent[1].ItemName)

	stats, err := log.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDrops)
	assert.Equal(t, 2, stats.UniquePlayers)
}
