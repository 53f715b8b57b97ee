// Package query contains read operations (CQRS - Queries). Queries never
// mutate board state; anything they compute is derived from the stores.
package query

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BOARD QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetBoardHandler returns a board by name.
type GetBoardHandler struct {
	store board.Store
}

// NewGetBoardHandler creates a new GetBoardHandler.
func NewGetBoardHandler(store board.Store) *GetBoardHandler {
	return &GetBoardHandler{store: store}
}

// Handle returns the board, or shared.ErrNotFound. The password hashes are
// excluded from JSON serialization, so the returned aggregate is safe to hand
// to the HTTP layer as-is.
func (h *GetBoardHandler) Handle(ctx context.Context, name string) (*board.Board, error) {
	boardName, err := shared.NewBoardName(name)
	if err != nil {
		return nil, err
	}
	return h.store.GetBoard(ctx, boardName)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST BOARDS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListBoardsHandler returns the names of all boards.
type ListBoardsHandler struct {
	store board.Store
}

// NewListBoardsHandler creates a new ListBoardsHandler.
func NewListBoardsHandler(store board.Store) *ListBoardsHandler {
	return &ListBoardsHandler{store: store}
}

// Handle returns all board names, sorted.
func (h *ListBoardsHandler) Handle(ctx context.Context) ([]shared.BoardName, error) {
	return h.store.ListBoardNames(ctx)
}
