// Package postgres implements the PostgreSQL persistence layer for Bingo Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOARD STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BoardStore implements board.Store for PostgreSQL. Tile transitions run in a
// transaction that locks the single (board, team, row, col) row, so writes to
// the same tile serialize at the database while other tiles proceed.
type BoardStore struct {
	conn *Connection
}

// NewBoardStore creates a new BoardStore.
func NewBoardStore(conn *Connection) *BoardStore {
	return &BoardStore{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Creation & Reads
// ─────────────────────────────────────────────────────────────────────────────

// CreateBoard persists a board, its teams, and an open tile row per
// (team, cell) in one transaction.
func (s *BoardStore) CreateBoard(ctx context.Context, b *board.Board) error {
	gridJSON, err := json.Marshal(b.Grid)
	if err != nil {
		return fmt.Errorf("failed to marshal grid: %w", err)
	}

	err = s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO boards (name, admin_hash, general_hash, grid, created_at, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, b.Name.String(), b.AdminHash, b.GeneralHash, gridJSON, b.CreatedAt, b.LastUpdated)
		if err != nil {
			return err
		}

		for _, team := range b.Teams {
			membersJSON, err := json.Marshal(team.Members)
			if err != nil {
				return fmt.Errorf("failed to marshal members: %w", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO teams (board_name, name, color, members)
				VALUES ($1, $2, $3, $4)
			`, b.Name.String(), team.Name.String(), team.Color.String(), membersJSON)
			if err != nil {
				return err
			}

			for r := 0; r < b.Rows(); r++ {
				for c := 0; c < b.Cols(); c++ {
					_, err = tx.Exec(ctx, `
						INSERT INTO team_tiles (board_name, team_name, tile_row, tile_col)
						VALUES ($1, $2, $3, $4)
					`, b.Name.String(), team.Name.String(), r, c)
					if err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrBoardAlreadyExists
		}
		return fmt.Errorf("failed to create board: %w", err)
	}
	return nil
}

// GetBoard loads the full aggregate: header, teams, and every team's tiles.
func (s *BoardStore) GetBoard(ctx context.Context, name shared.BoardName) (*board.Board, error) {
	b, err := s.loadHeader(ctx, s.conn, name)
	if err != nil {
		return nil, err
	}

	if err := s.loadTeams(ctx, b); err != nil {
		return nil, err
	}
	if err := s.loadTiles(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBoardNames returns all board names sorted.
func (s *BoardStore) ListBoardNames(ctx context.Context) ([]shared.BoardName, error) {
	rows, err := s.conn.Query(ctx, "SELECT name FROM boards ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var names []shared.BoardName
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan board name: %w", err)
		}
		names = append(names, shared.BoardName(name))
	}
	return names, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Tile Transitions
// ─────────────────────────────────────────────────────────────────────────────

// UpdateTile applies a password-gated mutation inside a row-locked
// transaction.
func (s *BoardStore) UpdateTile(ctx context.Context, params board.UpdateTileParams) (*board.UpdateTileResult, error) {
	b, err := s.loadHeader(ctx, s.conn, params.Key.Board)
	if err != nil {
		return nil, err
	}

	// bcrypt runs before the transaction opens; a wrong password never takes
	// a row lock.
	privilege, err := b.Authorize(params.Password)
	if err != nil {
		return nil, err
	}

	if !params.Key.Coord.InBounds(b.Rows(), b.Cols()) {
		return nil, shared.ErrTileOutOfBounds
	}
	def := b.Grid[params.Key.Coord.Row][params.Key.Coord.Col]

	var result *board.UpdateTileResult
	err = s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		state, err := s.lockTile(ctx, tx, params.Key)
		if err != nil {
			return err
		}

		previous := *state
		outcome, err := state.Apply(params.Mutation, privilege, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := s.saveTile(ctx, tx, params.Key, state); err != nil {
			return err
		}
		if err := s.touchBoard(ctx, tx, params.Key.Board); err != nil {
			return err
		}

		grid, err := s.readTeamGrid(ctx, tx, params.Key.Board, params.Key.Team, b.Rows(), b.Cols())
		if err != nil {
			return err
		}

		result = &board.UpdateTileResult{
			Coord:      params.Key.Coord,
			Definition: def,
			State:      *state,
			Previous:   previous,
			Outcome:    outcome,
			TeamGrid:   grid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteItemTile locks the team's full tile set, finds the first open item
// tile in row-major order, and completes it. Locking the whole team prevents
// two drops for the same item from claiming one tile.
func (s *BoardStore) CompleteItemTile(ctx context.Context, name shared.BoardName, team shared.TeamName, itemName, player, proofURL string) (*board.UpdateTileResult, bool, error) {
	b, err := s.loadHeader(ctx, s.conn, name)
	if err != nil {
		return nil, false, err
	}

	var (
		result *board.UpdateTileResult
		found  bool
	)
	err = s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM teams WHERE board_name = $1 AND name = $2)",
			name.String(), team.String(),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check team: %w", err)
		}
		if !exists {
			return shared.ErrTeamNotFound
		}

		rows, err := tx.Query(ctx, `
			SELECT tile_row, tile_col, checked, proof_url, completed_by, completed_at
			FROM team_tiles
			WHERE board_name = $1 AND team_name = $2
			ORDER BY tile_row, tile_col
			FOR UPDATE
		`, name.String(), team.String())
		if err != nil {
			return fmt.Errorf("failed to lock team tiles: %w", err)
		}
		grid, err := scanTileGrid(rows, b.Rows(), b.Cols())
		if err != nil {
			return err
		}

		var coord shared.Coord
		for r := range b.Grid {
			for c := range b.Grid[r] {
				if b.Grid[r][c].Requirement.MatchesItem(itemName) && !grid[r][c].Checked {
					coord = shared.Coord{Row: r, Col: c}
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return nil
		}

		state := &grid[coord.Row][coord.Col]
		previous := *state
		state.Complete(player, proofURL, time.Now().UTC())

		key := shared.TileKey{Board: name, Team: team, Coord: coord}
		if err := s.saveTile(ctx, tx, key, state); err != nil {
			return err
		}
		if err := s.touchBoard(ctx, tx, name); err != nil {
			return err
		}

		result = &board.UpdateTileResult{
			Coord:      coord,
			Definition: b.Grid[coord.Row][coord.Col],
			State:      *state,
			Previous:   previous,
			Outcome:    board.UpdateOutcome{Transitioned: true},
			TeamGrid:   grid,
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, found, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// loadHeader reads the board row (hashes, grid, timestamps) without teams or
// tile state.
func (s *BoardStore) loadHeader(ctx context.Context, q Querier, name shared.BoardName) (*board.Board, error) {
	var (
		b        board.Board
		gridJSON []byte
	)
	err := q.QueryRow(ctx, `
		SELECT name, admin_hash, general_hash, grid, created_at, last_updated
		FROM boards
		WHERE name = $1
	`, name.String()).Scan(&b.Name, &b.AdminHash, &b.GeneralHash, &gridJSON, &b.CreatedAt, &b.LastUpdated)
	if IsNoRows(err) {
		return nil, shared.ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if err := json.Unmarshal(gridJSON, &b.Grid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid: %w", err)
	}
	return &b, nil
}

func (s *BoardStore) loadTeams(ctx context.Context, b *board.Board) error {
	rows, err := s.conn.Query(ctx, `
		SELECT name, color, members
		FROM teams
		WHERE board_name = $1
		ORDER BY name
	`, b.Name.String())
	if err != nil {
		return fmt.Errorf("failed to load teams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			team        board.Team
			membersJSON []byte
		)
		if err := rows.Scan(&team.Name, &team.Color, &membersJSON); err != nil {
			return fmt.Errorf("failed to scan team: %w", err)
		}
		if len(membersJSON) > 0 {
			if err := json.Unmarshal(membersJSON, &team.Members); err != nil {
				return fmt.Errorf("failed to unmarshal members: %w", err)
			}
		}
		b.Teams = append(b.Teams, team)
	}
	return rows.Err()
}

func (s *BoardStore) loadTiles(ctx context.Context, b *board.Board) error {
	b.TeamTiles = make(map[shared.TeamName][][]board.TileState, len(b.Teams))
	for _, team := range b.Teams {
		rows, err := s.conn.Query(ctx, `
			SELECT tile_row, tile_col, checked, proof_url, completed_by, completed_at
			FROM team_tiles
			WHERE board_name = $1 AND team_name = $2
			ORDER BY tile_row, tile_col
		`, b.Name.String(), team.Name.String())
		if err != nil {
			return fmt.Errorf("failed to load tiles: %w", err)
		}
		grid, err := scanTileGrid(rows, b.Rows(), b.Cols())
		if err != nil {
			return err
		}
		b.TeamTiles[team.Name] = grid
	}
	return nil
}

// lockTile selects one tile row FOR UPDATE.
func (s *BoardStore) lockTile(ctx context.Context, tx pgx.Tx, key shared.TileKey) (*board.TileState, error) {
	var (
		state       board.TileState
		completedAt *time.Time
	)
	err := tx.QueryRow(ctx, `
		SELECT checked, proof_url, completed_by, completed_at
		FROM team_tiles
		WHERE board_name = $1 AND team_name = $2 AND tile_row = $3 AND tile_col = $4
		FOR UPDATE
	`, key.Board.String(), key.Team.String(), key.Coord.Row, key.Coord.Col).
		Scan(&state.Checked, &state.ProofURL, &state.CompletedBy, &completedAt)
	if IsNoRows(err) {
		return nil, shared.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock tile: %w", err)
	}
	state.CompletedAt = completedAt
	return &state, nil
}

func (s *BoardStore) saveTile(ctx context.Context, tx pgx.Tx, key shared.TileKey, state *board.TileState) error {
	_, err := tx.Exec(ctx, `
		UPDATE team_tiles
		SET checked = $1, proof_url = $2, completed_by = $3, completed_at = $4
		WHERE board_name = $5 AND team_name = $6 AND tile_row = $7 AND tile_col = $8
	`, state.Checked, state.ProofURL, state.CompletedBy, state.CompletedAt,
		key.Board.String(), key.Team.String(), key.Coord.Row, key.Coord.Col)
	if err != nil {
		return fmt.Errorf("failed to save tile: %w", err)
	}
	return nil
}

func (s *BoardStore) touchBoard(ctx context.Context, tx pgx.Tx, name shared.BoardName) error {
	_, err := tx.Exec(ctx,
		"UPDATE boards SET last_updated = NOW() WHERE name = $1",
		name.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to touch board: %w", err)
	}
	return nil
}

// readTeamGrid reads the team's tiles within the transaction so the snapshot
// reflects the just-committed write.
func (s *BoardStore) readTeamGrid(ctx context.Context, tx pgx.Tx, name shared.BoardName, team shared.TeamName, rows, cols int) ([][]board.TileState, error) {
	tileRows, err := tx.Query(ctx, `
		SELECT tile_row, tile_col, checked, proof_url, completed_by, completed_at
		FROM team_tiles
		WHERE board_name = $1 AND team_name = $2
		ORDER BY tile_row, tile_col
	`, name.String(), team.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read team grid: %w", err)
	}
	return scanTileGrid(tileRows, rows, cols)
}

// scanTileGrid reads (row, col, state) rows into a dense grid. Closes rows.
func scanTileGrid(rows pgx.Rows, gridRows, gridCols int) ([][]board.TileState, error) {
	defer rows.Close()

	grid := make([][]board.TileState, gridRows)
	for i := range grid {
		grid[i] = make([]board.TileState, gridCols)
	}

	for rows.Next() {
		var (
			r, c        int
			state       board.TileState
			completedAt *time.Time
		)
		if err := rows.Scan(&r, &c, &state.Checked, &state.ProofURL, &state.CompletedBy, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tile: %w", err)
		}
		state.CompletedAt = completedAt
		if r < gridRows && c < gridCols {
			grid[r][c] = state
		}
	}
	return grid, rows.Err()
}
