package leaderboard

import (
	"fmt"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// LineType classifies a completed bingo line.
type LineType string

const (
	LineRow      LineType = "row"
	LineColumn   LineType = "column"
	LineDiagonal LineType = "diagonal"
)

// Line is one fully-checked row, column, or diagonal.
type Line struct {
	Type  LineType
	Index int // row or column index; 0 = main diagonal, 1 = anti-diagonal
}

// Describe returns the line in notification wording ("row 3").
func (l Line) Describe() string {
	if l.Type == LineDiagonal {
		return string(LineDiagonal)
	}
	return fmt.Sprintf("%s %d", l.Type, l.Index+1)
}

// LinesThrough returns the bingo lines that pass through coord and are fully
// checked in grid. The engine calls this right after a tile completion with
// the coordinate that just flipped, so only lines finished by this very
// completion are reported — earlier bingos are not re-announced.
func LinesThrough(grid [][]board.TileState, coord shared.Coord) []Line {
	rows := len(grid)
	if rows == 0 {
		return nil
	}
	cols := len(grid[0])

	var lines []Line

	rowDone := true
	for c := 0; c < cols; c++ {
		if !grid[coord.Row][c].Checked {
			rowDone = false
			break
		}
	}
	if rowDone {
		lines = append(lines, Line{Type: LineRow, Index: coord.Row})
	}

	colDone := true
	for r := 0; r < rows; r++ {
		if !grid[r][coord.Col].Checked {
			colDone = false
			break
		}
	}
	if colDone {
		lines = append(lines, Line{Type: LineColumn, Index: coord.Col})
	}

	// Diagonals only exist on square grids.
	if rows == cols && rows > 1 {
		if coord.Row == coord.Col {
			done := true
			for i := 0; i < rows; i++ {
				if !grid[i][i].Checked {
					done = false
					break
				}
			}
			if done {
				lines = append(lines, Line{Type: LineDiagonal, Index: 0})
			}
		}
		if coord.Row+coord.Col == rows-1 {
			done := true
			for i := 0; i < rows; i++ {
				if !grid[i][rows-1-i].Checked {
					done = false
					break
				}
			}
			if done {
				lines = append(lines, Line{Type: LineDiagonal, Index: 1})
			}
		}
	}

	return lines
}
