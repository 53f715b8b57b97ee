package command

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// StandingsInvalidator drops cached leaderboard standings after an accepted
// tile write. The redis StandingsCache implements it; handlers treat
// invalidation as best-effort because the cache TTL bounds staleness anyway.
type StandingsInvalidator interface {
	Invalidate(ctx context.Context, name shared.BoardName) error
}

// NopInvalidator is used when no cache is configured.
type NopInvalidator struct{}

// Invalidate implements StandingsInvalidator.
func (NopInvalidator) Invalidate(context.Context, shared.BoardName) error { return nil }

// announceCompletion publishes the tile completion event and, when the
// completion finished a row, column, or diagonal, a bingo event per line.
// The line check runs on the grid snapshot captured in the store's critical
// section, so only lines finished by this very completion are announced.
func announceCompletion(
	ctx context.Context,
	store board.Store,
	publisher shared.EventPublisher,
	log *logger.Logger,
	name shared.BoardName,
	team shared.TeamName,
	result *board.UpdateTileResult,
) []leaderboard.Line {
	completed := shared.NewTileCompletedEvent(
		name.String(), team.String(), result.Definition.Title,
		result.Coord.Row, result.Coord.Col, result.Definition.Points,
		result.State.CompletedBy, result.State.ProofURL)
	if err := publisher.Publish(completed); err != nil {
		log.Warn("publish tile completed", logger.Err(err))
	}

	lines := leaderboard.LinesThrough(result.TeamGrid, result.Coord)
	if len(lines) == 0 {
		return nil
	}

	// Point totals come from the definitions, which are immutable, so this
	// read does not need to happen under the store's lock.
	totalPoints := 0
	if b, err := store.GetBoard(ctx, name); err == nil {
		totalPoints = leaderboard.TeamPoints(b, team)
	} else {
		log.Warn("load board for bingo points", logger.BoardName(name.String()), logger.Err(err))
	}

	for _, line := range lines {
		event := shared.NewBingoAchievedEvent(name.String(), team.String(), line.Describe(), totalPoints)
		if err := publisher.Publish(event); err != nil {
			log.Warn("publish bingo achieved", logger.Err(err))
		}
	}
	return lines
}
