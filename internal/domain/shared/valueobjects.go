// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Name Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// BoardName identifies a bingo board. Board names are case-sensitive and
// serve as the primary key for board records.
type BoardName string

var boardNameRegex = regexp.MustCompile(`^[^\s/][^/]{0,63}$`)

// IsValid checks that the name is non-empty, has no leading whitespace,
// contains no slashes (they would break URL routing), and fits in 64 chars.
func (n BoardName) IsValid() bool {
	return boardNameRegex.MatchString(string(n))
}

// String returns the string representation.
func (n BoardName) String() string {
	return string(n)
}

// NewBoardName creates a validated BoardName.
func NewBoardName(name string) (BoardName, error) {
	n := BoardName(strings.TrimSpace(name))
	if !n.IsValid() {
		return "", WrapError("board", "Validate", ErrInvalidFormat, "invalid board name", nil)
	}
	return n, nil
}

// TeamName identifies a team within a board. Unique per board.
type TeamName string

// IsValid checks that the team name is non-empty after trimming.
func (n TeamName) IsValid() bool {
	return strings.TrimSpace(string(n)) != ""
}

// String returns the string representation.
func (n TeamName) String() string {
	return string(n)
}

// PlayerName is an in-game display name. The game allows 1-12 characters of
// letters, digits, spaces, hyphens, and underscores.
type PlayerName string

var playerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]{0,11}$`)

// IsValid checks the in-game username format.
func (n PlayerName) IsValid() bool {
	return playerNameRegex.MatchString(string(n))
}

// String returns the string representation.
func (n PlayerName) String() string {
	return string(n)
}

// Normalize lowercases the name and collapses separators the way the stats
// provider does, so lookups match regardless of how the name was typed.
func (n PlayerName) Normalize() PlayerName {
	s := strings.ToLower(strings.TrimSpace(string(n)))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return PlayerName(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Grid Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Coord addresses a single tile slot inside a board grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the coordinate is valid for a rows×cols grid.
func (c Coord) InBounds(rows, cols int) bool {
	return c.Row >= 0 && c.Row < rows && c.Col >= 0 && c.Col < cols
}

// String returns "row,col" for log output and map keys.
func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// TileKey uniquely identifies a tile's per-team completion state. This is the
// unit of mutual exclusion for concurrent updates: operations on equal keys
// serialize, operations on different keys proceed in parallel.
type TileKey struct {
	Board BoardName
	Team  TeamName
	Coord Coord
}

// String returns a stable representation usable as a lock/storage key.
func (k TileKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", k.Board, k.Team, k.Coord.Row, k.Coord.Col)
}

// ═══════════════════════════════════════════════════════════════════════════
// Display Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// HexColor is a team display color in "#RRGGBB" form.
type HexColor string

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultTeamColor is used when a team is created without a color.
const DefaultTeamColor HexColor = "#000000"

// IsValid checks the "#RRGGBB" format.
func (c HexColor) IsValid() bool {
	return hexColorRegex.MatchString(string(c))
}

// String returns the string representation.
func (c HexColor) String() string {
	return string(c)
}

// OrDefault returns the color, or DefaultTeamColor if it is empty/invalid.
func (c HexColor) OrDefault() HexColor {
	if c.IsValid() {
		return c
	}
	return DefaultTeamColor
}
