// Package memory implements the board store and drop log on process memory.
// It backs the development mode and the concurrency test suite; the postgres
// package provides the durable equivalent behind the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// Store keeps all boards in memory.
//
// Locking model: operations on the same tile key serialize on a per-key
// mutex, so the second writer always observes the first's committed state.
// The per-board stateMu covers only the in-memory transition and the result
// snapshot; no network I/O ever happens under either lock.
type Store struct {
	mu     sync.RWMutex
	boards map[shared.BoardName]*boardEntry

	tileLocks sync.Map // shared.TileKey string -> *sync.Mutex
}

type boardEntry struct {
	stateMu sync.Mutex
	board   *board.Board
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{boards: make(map[shared.BoardName]*boardEntry)}
}

// CreateBoard implements board.Store.
func (s *Store) CreateBoard(_ context.Context, b *board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.boards[b.Name]; exists {
		return shared.ErrBoardAlreadyExists
	}
	s.boards[b.Name] = &boardEntry{board: b.Clone()}
	return nil
}

// GetBoard implements board.Store. The returned board is a deep copy; callers
// may read it freely while writers continue.
func (s *Store) GetBoard(_ context.Context, name shared.BoardName) (*board.Board, error) {
	entry, err := s.entry(name)
	if err != nil {
		return nil, err
	}

	entry.stateMu.Lock()
	defer entry.stateMu.Unlock()
	return entry.board.Clone(), nil
}

// ListBoardNames implements board.Store.
func (s *Store) ListBoardNames(_ context.Context) ([]shared.BoardName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]shared.BoardName, 0, len(s.boards))
	for name := range s.boards {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}

// UpdateTile implements board.Store.
func (s *Store) UpdateTile(_ context.Context, params board.UpdateTileParams) (*board.UpdateTileResult, error) {
	entry, err := s.entry(params.Key.Board)
	if err != nil {
		return nil, err
	}

	// Authorization runs outside the state lock; bcrypt comparison is the
	// expensive part of an update and must not serialize unrelated tiles.
	privilege, err := entry.board.Authorize(params.Password)
	if err != nil {
		return nil, err
	}

	unlock := s.lockTile(params.Key)
	defer unlock()

	entry.stateMu.Lock()
	defer entry.stateMu.Unlock()

	b := entry.board
	def, err := b.Definition(params.Key.Coord)
	if err != nil {
		return nil, err
	}
	state, err := b.TileState(params.Key.Team, params.Key.Coord)
	if err != nil {
		return nil, err
	}

	previous := *state
	outcome, err := state.Apply(params.Mutation, privilege, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	b.Touch(time.Now().UTC())

	return &board.UpdateTileResult{
		Coord:      params.Key.Coord,
		Definition: def,
		State:      *state,
		Previous:   previous,
		Outcome:    outcome,
		TeamGrid:   snapshotGrid(b.TeamTiles[params.Key.Team]),
	}, nil
}

// CompleteItemTile implements board.Store. The search and the completion run
// under the same critical section so two drops for the same item cannot both
// claim one tile.
func (s *Store) CompleteItemTile(_ context.Context, name shared.BoardName, team shared.TeamName, itemName, player, proofURL string) (*board.UpdateTileResult, bool, error) {
	entry, err := s.entry(name)
	if err != nil {
		return nil, false, err
	}

	entry.stateMu.Lock()
	defer entry.stateMu.Unlock()

	b := entry.board
	if _, err := b.FindTeam(team); err != nil {
		return nil, false, err
	}

	coord, found := b.FindOpenItemTile(team, itemName)
	if !found {
		return nil, false, nil
	}

	state, err := b.TileState(team, coord)
	if err != nil {
		return nil, false, err
	}
	previous := *state
	state.Complete(player, proofURL, time.Now().UTC())
	b.Touch(time.Now().UTC())

	def := b.Grid[coord.Row][coord.Col]
	return &board.UpdateTileResult{
		Coord:      coord,
		Definition: def,
		State:      *state,
		Previous:   previous,
		Outcome:    board.UpdateOutcome{Transitioned: true},
		TeamGrid:   snapshotGrid(b.TeamTiles[team]),
	}, true, nil
}

func (s *Store) entry(name shared.BoardName) (*boardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.boards[name]
	if !ok {
		return nil, shared.ErrBoardNotFound
	}
	return entry, nil
}

// lockTile acquires the per-key mutex and returns its unlock func.
func (s *Store) lockTile(key shared.TileKey) func() {
	v, _ := s.tileLocks.LoadOrStore(key.String(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func snapshotGrid(grid [][]board.TileState) [][]board.TileState {
	out := make([][]board.TileState, len(grid))
	for i, row := range grid {
		out[i] = append([]board.TileState(nil), row...)
	}
	return out
}
