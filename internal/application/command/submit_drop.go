package command

import (
	"context"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT DROP COMMAND
// Appends the drop record, then completes the first open item tile matching
// the item for the player's team, then fans out notifications. The drop is
// evidence: once appended it survives any downstream failure.
// ══════════════════════════════════════════════════════════════════════════════

// DropsCachePusher pushes a drop onto the recent-drops feed cache.
type DropsCachePusher interface {
	Push(ctx context.Context, d *drop.Drop) error
}

// NopPusher is used when no cache is configured.
type NopPusher struct{}

// Push implements DropsCachePusher.
func (NopPusher) Push(context.Context, *drop.Drop) error { return nil }

// SubmitDropCommand contains one reported item drop.
type SubmitDropCommand struct {
	PlayerName    string
	ItemName      string
	Quantity      int
	Rarity        string
	Value         int64
	ScreenshotURL string

	// Board and Team select the tile-completion target. When either is empty
	// the drop is recorded without touching any board.
	Board string
	Team  string
}

// SubmitDropResult contains the recorded drop and, if an item tile matched,
// the completed tile.
type SubmitDropResult struct {
	Drop *drop.Drop

	// TileCompleted is true when the drop checked an item tile.
	TileCompleted bool
	Coord         shared.Coord
	Definition    board.TileDefinition

	// BingoLines lists the lines finished by the tile completion, if any.
	BingoLines []leaderboard.Line
}

// SubmitDropHandler handles the SubmitDropCommand.
type SubmitDropHandler struct {
	drops       drop.Log
	store       board.Store
	publisher   shared.EventPublisher
	invalidator StandingsInvalidator
	pusher      DropsCachePusher
	log         *logger.Logger
}

// NewSubmitDropHandler creates a new SubmitDropHandler.
func NewSubmitDropHandler(
	drops drop.Log,
	store board.Store,
	publisher shared.EventPublisher,
	invalidator StandingsInvalidator,
	pusher DropsCachePusher,
	log *logger.Logger,
) *SubmitDropHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if invalidator == nil {
		invalidator = NopInvalidator{}
	}
	if pusher == nil {
		pusher = NopPusher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &SubmitDropHandler{
		drops:       drops,
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		pusher:      pusher,
		log:         log.With(logger.Component("command")),
	}
}

// Handle executes the submit drop command.
func (h *SubmitDropHandler) Handle(ctx context.Context, cmd SubmitDropCommand) (*SubmitDropResult, error) {
	d, err := drop.New(drop.Input{
		PlayerName:    cmd.PlayerName,
		ItemName:      cmd.ItemName,
		Quantity:      cmd.Quantity,
		Rarity:        cmd.Rarity,
		Value:         cmd.Value,
		ScreenshotURL: cmd.ScreenshotURL,
		TeamName:      cmd.Team,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := h.drops.Append(ctx, d); err != nil {
		return nil, err
	}
	if err := h.pusher.Push(ctx, d); err != nil {
		h.log.Warn("push drop to feed cache", logger.Err(err))
	}

	h.log.Info("drop recorded",
		logger.PlayerName(d.PlayerName),
		logger.ItemName(d.ItemName),
		logger.Int("quantity", d.Quantity))

	event := shared.NewDropRecordedEvent(
		d.ID, d.PlayerName, d.ItemName, d.Quantity,
		d.Rarity, d.Value, d.ScreenshotURL, d.TeamName)
	if err := h.publisher.Publish(event); err != nil {
		h.log.Warn("publish drop recorded", logger.Err(err))
	}

	result := &SubmitDropResult{Drop: d}
	if cmd.Board == "" || cmd.Team == "" {
		return result, nil
	}

	// Tile completion is downstream of the drop record: a missing board or
	// team must not reject evidence that is already appended.
	name := shared.BoardName(cmd.Board)
	team := shared.TeamName(cmd.Team)
	stored, found, err := h.store.CompleteItemTile(ctx, name, team, d.ItemName, d.PlayerName, d.ScreenshotURL)
	if err != nil {
		h.log.Warn("complete item tile",
			logger.BoardName(cmd.Board),
			logger.TeamName(cmd.Team),
			logger.ItemName(d.ItemName),
			logger.Err(err))
		return result, nil
	}
	if !found {
		return result, nil
	}

	result.TileCompleted = true
	result.Coord = stored.Coord
	result.Definition = stored.Definition

	if err := h.invalidator.Invalidate(ctx, name); err != nil {
		h.log.Warn("invalidate standings", logger.BoardName(cmd.Board), logger.Err(err))
	}

	h.log.Info("item tile completed by drop",
		logger.BoardName(cmd.Board),
		logger.TeamName(cmd.Team),
		logger.TileCoord(stored.Coord.Row, stored.Coord.Col),
		logger.ItemName(d.ItemName))
	result.BingoLines = announceCompletion(ctx, h.store, h.publisher, h.log, name, team, stored)

	return result, nil
}
