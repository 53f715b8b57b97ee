package board

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// UpdateTileParams carries one password-gated tile mutation request.
type UpdateTileParams struct {
	Key      shared.TileKey
	Mutation Mutation

	// Password is checked against the board's stored hashes. Admin-only
	// mutations (resets) require the admin password.
	Password string
}

// UpdateTileResult describes the committed state after an update. It is
// captured inside the store's critical section so callers can dispatch
// notifications and detect bingo lines without re-reading under a lock.
type UpdateTileResult struct {
	// Coord is the tile that was written. UpdateTile echoes the requested
	// coordinate; CompleteItemTile reports the tile it selected.
	Coord shared.Coord

	Definition TileDefinition

	// State is the committed post-write state; Previous is the state the
	// mutation found. Reset notifications name the prior completer.
	State    TileState
	Previous TileState

	Outcome UpdateOutcome

	// TeamGrid is a snapshot of the team's full tile state after the write,
	// used for bingo line detection.
	TeamGrid [][]TileState
}

// Store owns durable board state. All mutation goes through these operations;
// nothing else writes board or tile fields.
//
// UpdateTile and CompleteItemTile are atomic per tile key: concurrent calls
// for the same (board, team, row, col) serialize, and the second observes the
// first's result. Calls for different keys must not block each other.
type Store interface {
	// CreateBoard persists a new board. Fails with shared.ErrAlreadyExists
	// if the name is taken.
	CreateBoard(ctx context.Context, b *Board) error

	// GetBoard returns the board by name, or shared.ErrNotFound.
	GetBoard(ctx context.Context, name shared.BoardName) (*Board, error)

	// ListBoardNames returns the names of all boards, sorted.
	ListBoardNames(ctx context.Context) ([]shared.BoardName, error)

	// UpdateTile applies a password-gated mutation to one tile.
	UpdateTile(ctx context.Context, params UpdateTileParams) (*UpdateTileResult, error)

	// CompleteItemTile atomically completes the first open item tile matching
	// itemName for the team, if one exists. This internal path is not
	// password-gated: it is driven by accepted drop evidence. The boolean is
	// false when no matching open tile was found.
	CompleteItemTile(ctx context.Context, name shared.BoardName, team shared.TeamName, itemName, player, proofURL string) (*UpdateTileResult, bool, error)
}
