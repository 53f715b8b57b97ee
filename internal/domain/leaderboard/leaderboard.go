// Package leaderboard derives team rankings from board state. The standings
// are a pure projection recomputed on every read; they are never persisted,
// so there is no second source of truth to drift from the tiles.
package leaderboard

import (
	"sort"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// Standing is one team's row in the computed leaderboard.
type Standing struct {
	Team           string          `json:"team"`
	Points         int             `json:"points"`
	CompletedCount int             `json:"completed"`
	Color          shared.HexColor `json:"color"`
}

// Compute derives the standings for a board. Sort order is deterministic:
// points descending, then completed count descending, then team name
// ascending. Determinism matters for stable pagination and tests.
func Compute(b *board.Board) []Standing {
	standings := make([]Standing, 0, len(b.Teams))
	for _, team := range b.Teams {
		s := Standing{Team: team.Name.String(), Color: team.Color.OrDefault()}
		grid := b.TeamTiles[team.Name]
		for r := range grid {
			for c := range grid[r] {
				if grid[r][c].Checked {
					s.CompletedCount++
					s.Points += b.Grid[r][c].Points
				}
			}
		}
		standings = append(standings, s)
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		if standings[i].CompletedCount != standings[j].CompletedCount {
			return standings[i].CompletedCount > standings[j].CompletedCount
		}
		return standings[i].Team < standings[j].Team
	})
	return standings
}

// TeamPoints returns one team's checked-tile point total. Used by the engine
// when a bingo line completes.
func TeamPoints(b *board.Board, team shared.TeamName) int {
	grid, ok := b.TeamTiles[team]
	if !ok {
		return 0
	}
	total := 0
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c].Checked {
				total += b.Grid[r][c].Points
			}
		}
	}
	return total
}
