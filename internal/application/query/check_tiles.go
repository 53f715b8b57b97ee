package query

import (
	"context"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/rules"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK TILES QUERY
// Side-effect-free batch evaluation: which open tiles do the players' current
// stats satisfy? One player's provider failure never discards the others'
// results; the failure is reported inline (partial results).
// ══════════════════════════════════════════════════════════════════════════════

// CheckTilesQuery selects a team's open tiles and the players to evaluate.
type CheckTilesQuery struct {
	Board   string
	Team    string
	Players []string
}

// Validate validates the query.
func (q CheckTilesQuery) Validate() error {
	if _, err := shared.NewBoardName(q.Board); err != nil {
		return err
	}
	if !shared.TeamName(q.Team).IsValid() {
		return shared.NewDomainError("board", "CheckTiles", shared.ErrEmptyValue, "team name is required")
	}
	if len(q.Players) == 0 {
		return shared.NewDomainError("board", "CheckTiles", shared.ErrEmptyValue, "at least one player is required")
	}
	return nil
}

// SatisfiedTile is one open tile whose requirement a player's snapshot meets.
type SatisfiedTile struct {
	Coord       shared.Coord `json:"coord"`
	Title       string       `json:"title"`
	Requirement string       `json:"requirement"`
	Points      int          `json:"points"`
}

// PlayerCheck is one player's evaluation outcome.
type PlayerCheck struct {
	Player    string          `json:"player"`
	Satisfied []SatisfiedTile `json:"satisfied,omitempty"`

	// Error is set when the player's stats could not be fetched. The other
	// players' results are unaffected.
	Error string `json:"error,omitempty"`
}

// CheckTilesResult contains per-player results in query order.
type CheckTilesResult struct {
	Board   string        `json:"board"`
	Team    string        `json:"team"`
	Players []PlayerCheck `json:"players"`
}

// CheckTilesHandler handles the CheckTilesQuery.
type CheckTilesHandler struct {
	store    board.Store
	provider stats.Provider
	log      *logger.Logger
}

// NewCheckTilesHandler creates a new CheckTilesHandler.
func NewCheckTilesHandler(store board.Store, provider stats.Provider, log *logger.Logger) *CheckTilesHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CheckTilesHandler{
		store:    store,
		provider: provider,
		log:      log.With(logger.Component("query")),
	}
}

// Handle evaluates every open tile of the team against each player's current
// snapshot. Item tiles are skipped: they complete only through drop evidence.
func (h *CheckTilesHandler) Handle(ctx context.Context, q CheckTilesQuery) (*CheckTilesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	b, err := h.store.GetBoard(ctx, shared.BoardName(q.Board))
	if err != nil {
		return nil, err
	}
	team := shared.TeamName(q.Team)
	grid, ok := b.TeamTiles[team]
	if !ok {
		return nil, shared.ErrTeamNotFound
	}

	result := &CheckTilesResult{Board: q.Board, Team: q.Team}
	for _, player := range q.Players {
		check := PlayerCheck{Player: player}

		snap, err := h.provider.FetchSnapshot(ctx, player)
		if err != nil {
			h.log.Warn("fetch snapshot",
				logger.PlayerName(player),
				logger.Err(err))
			check.Error = err.Error()
			result.Players = append(result.Players, check)
			continue
		}

		for r := range b.Grid {
			for c := range b.Grid[r] {
				if grid[r][c].Checked {
					continue
				}
				outcome := rules.Evaluate(b.Grid[r][c].Requirement, snap)
				if outcome.Diagnostic != "" {
					h.log.Warn("requirement evaluation",
						logger.TileCoord(r, c),
						logger.String("diagnostic", outcome.Diagnostic))
				}
				if outcome.Applicable && outcome.Satisfied {
					check.Satisfied = append(check.Satisfied, SatisfiedTile{
						Coord:       shared.Coord{Row: r, Col: c},
						Title:       b.Grid[r][c].Title,
						Requirement: b.Grid[r][c].Requirement.Describe(),
						Points:      b.Grid[r][c].Points,
					})
				}
			}
		}
		result.Players = append(result.Players, check)
	}

	return result, nil
}
