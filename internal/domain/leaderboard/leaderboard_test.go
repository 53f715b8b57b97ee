package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

func buildBoard(t *testing.T, teams ...string) *board.Board {
	t.Helper()

	grid := make([][]board.TileDefinition, 2)
	for r := range grid {
		grid[r] = make([]board.TileDefinition, 2)
		for c := range grid[r] {
			grid[r][c] = board.TileDefinition{
				Title:       "tile",
				Points:      10,
				Requirement: board.ItemRequirement("item"),
			}
		}
	}

	def := board.Definition{
		Name:            "Test",
		AdminPassword:   "a",
		GeneralPassword: "g",
		Grid:            grid,
	}
	for _, name := range teams {
		def.Teams = append(def.Teams, board.Team{Name: shared.TeamName(name)})
	}

	b, err := board.NewBoard(def, time.Now())
	require.NoError(t, err)
	return b
}

func check(t *testing.T, b *board.Board, team string, row, col int) {
	t.Helper()
	state, err := b.TileState(shared.TeamName(team), shared.Coord{Row: row, Col: col})
	require.NoError(t, err)
	state.Complete("P", "", time.Now())
}

func TestCompute_PointsAndOrdering(t *testing.T) {
	b := buildBoard(t, "Red", "Blue", "Green")

	check(t, b, "Red", 0, 0)
	check(t, b, "Red", 0, 1)
	check(t, b, "Blue", 1, 0)

	standings := Compute(b)
	require.Len(t, standings, 3)

	assert.Equal(t, "Red", standings[0].Team)
	assert.Equal(t, 20, standings[0].Points)
	assert.Equal(t, 2, standings[0].CompletedCount)

	assert.Equal(t, "Blue", standings[1].Team)
	assert.Equal(t, 10, standings[1].Points)

	assert.Equal(t, "Green", standings[2].Team)
	assert.Equal(t, 0, standings[2].Points)
	assert.Equal(t, shared.DefaultTeamColor, standings[2].Color)
}

func TestCompute_FullTieBreaksAlphabetically(t *testing.T) {
	b := buildBoard(t, "Zulu", "Alpha", "Mike")

	for _, team := range []string{"Zulu", "Alpha", "Mike"} {
		check(t, b, team, 0, 0)
	}

	standings := Compute(b)
	assert.Equal(t, []string{"Alpha", "Mike", "Zulu"},
		[]string{standings[0].Team, standings[1].Team, standings[2].Team})

	// Deterministic across repeated computation.
	again := Compute(b)
	assert.Equal(t, standings, again)
}

func TestCompute_PointsReconcileWithTiles(t *testing.T) {
	b := buildBoard(t, "Red")

	check(t, b, "Red", 0, 0)
	check(t, b, "Red", 1, 1)

	want := 0
	grid := b.TeamTiles["Red"]
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c].Checked {
				want += b.Grid[r][c].Points
			}
		}
	}

	standings := Compute(b)
	assert.Equal(t, want, standings[0].Points)
	assert.Equal(t, want, TeamPoints(b, "Red"))
}

func TestLinesThrough(t *testing.T) {
	b := buildBoard(t, "Red")
	grid := b.TeamTiles["Red"]

	// Complete the top row; the final completion at (0,1) finishes it.
	check(t, b, "Red", 0, 0)
	check(t, b, "Red", 0, 1)

	lines := LinesThrough(grid, shared.Coord{Row: 0, Col: 1})
	require.Len(t, lines, 1)
	assert.Equal(t, LineRow, lines[0].Type)
	assert.Equal(t, 0, lines[0].Index)
	assert.Equal(t, "row 1", lines[0].Describe())

	// (1,1) now finishes the right column, the main diagonal, and the board's
	// bottom row once (1,0) is also checked.
	check(t, b, "Red", 1, 0)
	check(t, b, "Red", 1, 1)

	lines = LinesThrough(grid, shared.Coord{Row: 1, Col: 1})
	types := make(map[LineType]int)
	for _, l := range lines {
		types[l.Type]++
	}
	assert.Equal(t, 1, types[LineRow])
	assert.Equal(t, 1, types[LineColumn])
	assert.Equal(t, 1, types[LineDiagonal])
}

func TestLinesThrough_IncompleteLine(t *testing.T) {
	b := buildBoard(t, "Red")
	check(t, b, "Red", 0, 0)

	lines := LinesThrough(b.TeamTiles["Red"], shared.Coord{Row: 0, Col: 0})
	assert.Empty(t, lines)
}
