package command

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE TILE COMMAND
// Password-gated mutation of one team's tile state. The store enforces
// atomicity per tile; this handler adds notification fan-out and cache
// invalidation around the committed result.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateTileCommand contains one requested tile mutation. Nil pointer fields
// are left untouched.
type UpdateTileCommand struct {
	Board string
	Team  string
	Row   int
	Col   int

	// Password is checked against the board's stored hashes.
	Password string

	Checked     *bool
	ProofURL    *string
	CompletedBy *string

	// AdminReset requests the audited checked→open transition.
	AdminReset bool
}

// Validate validates the command.
func (c UpdateTileCommand) Validate() error {
	if _, err := shared.NewBoardName(c.Board); err != nil {
		return err
	}
	if !shared.TeamName(c.Team).IsValid() {
		return shared.NewDomainError("board", "UpdateTile", shared.ErrEmptyValue, "team name is required")
	}
	if c.Password == "" {
		return shared.NewDomainError("board", "UpdateTile", shared.ErrEmptyValue, "password is required")
	}
	return nil
}

// UpdateTileResult contains the committed tile state and what the update did.
type UpdateTileResult struct {
	Coord      shared.Coord
	Definition board.TileDefinition
	State      board.TileState
	Outcome    board.UpdateOutcome

	// BingoLines lists the lines completed by this update, if any.
	BingoLines []leaderboard.Line
}

// UpdateTileHandler handles the UpdateTileCommand.
type UpdateTileHandler struct {
	store       board.Store
	publisher   shared.EventPublisher
	invalidator StandingsInvalidator
	log         *logger.Logger
}

// NewUpdateTileHandler creates a new UpdateTileHandler.
func NewUpdateTileHandler(
	store board.Store,
	publisher shared.EventPublisher,
	invalidator StandingsInvalidator,
	log *logger.Logger,
) *UpdateTileHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if invalidator == nil {
		invalidator = NopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &UpdateTileHandler{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		log:         log.With(logger.Component("command")),
	}
}

// Handle executes the update tile command.
func (h *UpdateTileHandler) Handle(ctx context.Context, cmd UpdateTileCommand) (*UpdateTileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	key := shared.TileKey{
		Board: shared.BoardName(cmd.Board),
		Team:  shared.TeamName(cmd.Team),
		Coord: shared.Coord{Row: cmd.Row, Col: cmd.Col},
	}
	stored, err := h.store.UpdateTile(ctx, board.UpdateTileParams{
		Key: key,
		Mutation: board.Mutation{
			Checked:     cmd.Checked,
			ProofURL:    cmd.ProofURL,
			CompletedBy: cmd.CompletedBy,
			AdminReset:  cmd.AdminReset,
		},
		Password: cmd.Password,
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateTileResult{
		Coord:      stored.Coord,
		Definition: stored.Definition,
		State:      stored.State,
		Outcome:    stored.Outcome,
	}

	if stored.Outcome.Transitioned || stored.Outcome.WasReset {
		if err := h.invalidator.Invalidate(ctx, key.Board); err != nil {
			h.log.Warn("invalidate standings", logger.BoardName(cmd.Board), logger.Err(err))
		}
	}

	switch {
	case stored.Outcome.Transitioned:
		h.log.Info("tile completed",
			logger.BoardName(cmd.Board),
			logger.TeamName(cmd.Team),
			logger.TileCoord(cmd.Row, cmd.Col),
			logger.Points(stored.Definition.Points))
		result.BingoLines = announceCompletion(ctx, h.store, h.publisher, h.log, key.Board, key.Team, stored)

	case stored.Outcome.WasReset:
		h.log.Info("tile reset",
			logger.BoardName(cmd.Board),
			logger.TeamName(cmd.Team),
			logger.TileCoord(cmd.Row, cmd.Col))
		event := shared.NewTileResetEvent(
			cmd.Board, cmd.Team, stored.Definition.Title,
			stored.Coord.Row, stored.Coord.Col, stored.Previous.CompletedBy)
		if err := h.publisher.Publish(event); err != nil {
			h.log.Warn("publish tile reset", logger.Err(err))
		}
	}

	return result, nil
}
