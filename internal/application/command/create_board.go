// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE BOARD COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateBoardCommand contains the data to create a new bingo board. Passwords
// arrive in plaintext once and are hashed before anything is persisted.
type CreateBoardCommand struct {
	// Name is the board name, unique across all boards.
	Name string

	// AdminPassword gates resets and other admin-only mutations.
	AdminPassword string

	// GeneralPassword gates normal tile updates.
	GeneralPassword string

	// Grid is the rows×cols matrix of tile definitions shared by all teams.
	Grid [][]board.TileDefinition

	// Teams competing on this board.
	Teams []board.Team
}

// CreateBoardResult contains the result of creating a board.
type CreateBoardResult struct {
	Name      shared.BoardName
	Rows      int
	Cols      int
	Teams     []string
	CreatedAt time.Time
}

// CreateBoardHandler handles the CreateBoardCommand.
type CreateBoardHandler struct {
	store     board.Store
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCreateBoardHandler creates a new CreateBoardHandler.
func NewCreateBoardHandler(store board.Store, publisher shared.EventPublisher, log *logger.Logger) *CreateBoardHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &CreateBoardHandler{
		store:     store,
		publisher: publisher,
		log:       log.With(logger.Component("command")),
	}
}

// Handle validates the definition, hashes the passwords, persists the board,
// and announces it.
func (h *CreateBoardHandler) Handle(ctx context.Context, cmd CreateBoardCommand) (*CreateBoardResult, error) {
	b, err := board.NewBoard(board.Definition{
		Name:            cmd.Name,
		AdminPassword:   cmd.AdminPassword,
		GeneralPassword: cmd.GeneralPassword,
		Grid:            cmd.Grid,
		Teams:           cmd.Teams,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := h.store.CreateBoard(ctx, b); err != nil {
		return nil, err
	}

	h.log.Info("board created",
		logger.BoardName(b.Name.String()),
		logger.Int("rows", b.Rows()),
		logger.Int("cols", b.Cols()),
		logger.Int("teams", len(b.Teams)))

	event := shared.NewBoardCreatedEvent(b.Name.String(), b.TeamNames(), b.Rows(), b.Cols())
	if err := h.publisher.Publish(event); err != nil {
		h.log.Warn("publish board created", logger.Err(err))
	}

	return &CreateBoardResult{
		Name:      b.Name,
		Rows:      b.Rows(),
		Cols:      b.Cols(),
		Teams:     b.TeamNames(),
		CreatedAt: b.CreatedAt,
	}, nil
}
