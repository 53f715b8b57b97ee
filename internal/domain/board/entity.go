// Package board contains the bingo board aggregate: the grid of tile
// definitions shared by all teams, per-team tile completion state, and the
// password gate for mutations. All state transitions go through the methods
// here; storage implementations only persist what these methods decide.
package board

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// TILES
// ═══════════════════════════════════════════════════════════════════════════

// TileDefinition is the immutable description of one grid cell. Definitions
// are shared by every team on the board and fixed at creation time.
type TileDefinition struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	Points      int         `json:"points"`
	Requirement Requirement `json:"requirement"`
}

// Validate checks a tile definition.
func (d TileDefinition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "tile title cannot be empty")
	}
	if d.Points < 0 {
		return shared.NewDomainError("board", "Validate", shared.ErrNegativeValue, "tile points cannot be negative")
	}
	return d.Requirement.Validate()
}

// TileState is one team's completion state for one tile. The checked flag is
// monotonic: once true it only returns to false through an explicit admin
// reset.
type TileState struct {
	Checked     bool       `json:"checked"`
	ProofURL    string     `json:"proof_url,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Complete marks the tile checked. Idempotent: completing an already-checked
// tile is a no-op that preserves the first completion's metadata
// (first-writer wins). Returns true if the state transitioned.
func (s *TileState) Complete(player, proofURL string, at time.Time) bool {
	if s.Checked {
		return false
	}
	s.Checked = true
	s.CompletedBy = player
	s.ProofURL = proofURL
	s.CompletedAt = &at
	return true
}

// Reset clears the completion state. Only the admin-reset path calls this.
func (s *TileState) Reset() {
	s.Checked = false
	s.ProofURL = ""
	s.CompletedBy = ""
	s.CompletedAt = nil
}

// Mutation describes a requested change to a tile's state. Nil pointer fields
// are left untouched (last-writer-wins on the fields that are set).
type Mutation struct {
	Checked     *bool
	ProofURL    *string
	CompletedBy *string

	// AdminReset requests the audited checked→open transition. It requires
	// admin privilege and takes precedence over the other fields.
	AdminReset bool
}

// UpdateOutcome reports what a mutation actually did to a tile.
type UpdateOutcome struct {
	// Transitioned is true when the tile went open→checked in this update.
	Transitioned bool

	// WasReset is true when an admin reset cleared the tile.
	WasReset bool
}

// Apply runs the tile state machine for a single mutation. privilege gates
// the admin-only reset. A checked=false write against a checked tile is not
// an error: the caller lost the race to a completion and observes the winning
// state (a no-op success, per the monotonic invariant).
func (s *TileState) Apply(m Mutation, privilege Privilege, now time.Time) (UpdateOutcome, error) {
	if m.AdminReset {
		if privilege != PrivilegeAdmin {
			return UpdateOutcome{}, shared.ErrAdminRequired
		}
		if !s.Checked {
			return UpdateOutcome{}, nil
		}
		s.Reset()
		return UpdateOutcome{WasReset: true}, nil
	}

	if m.Checked != nil && *m.Checked && !s.Checked {
		player := ""
		if m.CompletedBy != nil {
			player = *m.CompletedBy
		}
		proof := ""
		if m.ProofURL != nil {
			proof = *m.ProofURL
		}
		s.Complete(player, proof, now)
		return UpdateOutcome{Transitioned: true}, nil
	}

	if s.Checked {
		// Completion metadata is frozen once checked; only proof may be
		// amended (screenshots are often attached after the fact).
		if m.ProofURL != nil && s.ProofURL == "" {
			s.ProofURL = *m.ProofURL
		}
		return UpdateOutcome{}, nil
	}

	if m.ProofURL != nil {
		s.ProofURL = *m.ProofURL
	}
	if m.CompletedBy != nil {
		s.CompletedBy = *m.CompletedBy
	}
	return UpdateOutcome{}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TEAMS
// ═══════════════════════════════════════════════════════════════════════════

// Team is a named group of players competing on a board.
type Team struct {
	Name    shared.TeamName  `json:"name"`
	Color   shared.HexColor  `json:"color"`
	Members []string         `json:"members,omitempty"`
}

// Validate checks the team.
func (t Team) Validate() error {
	if !t.Name.IsValid() {
		return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "team name cannot be empty")
	}
	return nil
}

// HasMember reports whether a player is on the team roster. Comparison is
// case-insensitive; an empty roster accepts anyone.
func (t Team) HasMember(player string) bool {
	if len(t.Members) == 0 {
		return true
	}
	for _, m := range t.Members {
		if strings.EqualFold(m, player) {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// PRIVILEGE
// ═══════════════════════════════════════════════════════════════════════════

// Privilege is the access level granted by a password check.
type Privilege int

const (
	// PrivilegeNone means the password matched neither hash.
	PrivilegeNone Privilege = iota
	// PrivilegeGeneral allows normal tile updates.
	PrivilegeGeneral
	// PrivilegeAdmin additionally allows tile resets and password changes.
	PrivilegeAdmin
)

// String returns the privilege name for logs.
func (p Privilege) String() string {
	switch p {
	case PrivilegeGeneral:
		return "general"
	case PrivilegeAdmin:
		return "admin"
	default:
		return "none"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// BOARD AGGREGATE
// ═══════════════════════════════════════════════════════════════════════════

// Board is the aggregate root: a named grid of tile definitions, the set of
// teams, per-team tile state, and the two password hashes. Grid dimensions
// and point values are fixed at creation.
type Board struct {
	Name shared.BoardName `json:"board_name"`

	// Bcrypt hashes. Plaintext passwords are never stored.
	AdminHash   []byte `json:"-"`
	GeneralHash []byte `json:"-"`

	// Grid is the rows×cols matrix of shared tile definitions.
	Grid [][]TileDefinition `json:"grid"`

	Teams []Team `json:"teams"`

	// TeamTiles holds each team's independent completion state, dimensioned
	// identically to Grid.
	TeamTiles map[shared.TeamName][][]TileState `json:"team_tiles"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Definition is the input for creating a board. Passwords arrive in plaintext
// once, are hashed by NewBoard, and are not retained.
type Definition struct {
	Name            string
	AdminPassword   string
	GeneralPassword string
	Grid            [][]TileDefinition
	Teams           []Team
}

// Validate checks the definition before any hashing work is done.
func (d Definition) Validate() error {
	if _, err := shared.NewBoardName(d.Name); err != nil {
		return err
	}
	if d.AdminPassword == "" || d.GeneralPassword == "" {
		return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "both passwords are required")
	}
	if len(d.Grid) == 0 || len(d.Grid[0]) == 0 {
		return shared.ErrEmptyGrid
	}
	cols := len(d.Grid[0])
	for _, row := range d.Grid {
		if len(row) != cols {
			return shared.ErrRaggedGrid
		}
		for _, tile := range row {
			if err := tile.Validate(); err != nil {
				return err
			}
		}
	}
	if len(d.Teams) == 0 {
		return shared.NewDomainError("board", "Validate", shared.ErrInvalidInput, "at least one team is required")
	}
	seen := make(map[shared.TeamName]struct{}, len(d.Teams))
	for _, team := range d.Teams {
		if err := team.Validate(); err != nil {
			return err
		}
		if _, dup := seen[team.Name]; dup {
			return shared.ErrDuplicateTeam
		}
		seen[team.Name] = struct{}{}
	}
	return nil
}

// NewBoard builds a Board from a definition: validates, hashes both
// passwords, and initializes empty per-team tile state for the full grid.
func NewBoard(def Definition, now time.Time) (*Board, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	adminHash, err := bcrypt.GenerateFromPassword([]byte(def.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.WrapError("board", "Create", shared.ErrInvalidEntity, "hash admin password", err)
	}
	generalHash, err := bcrypt.GenerateFromPassword([]byte(def.GeneralPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.WrapError("board", "Create", shared.ErrInvalidEntity, "hash general password", err)
	}

	teams := make([]Team, len(def.Teams))
	for i, t := range def.Teams {
		teams[i] = Team{Name: t.Name, Color: t.Color.OrDefault(), Members: t.Members}
	}

	b := &Board{
		Name:        shared.BoardName(strings.TrimSpace(def.Name)),
		AdminHash:   adminHash,
		GeneralHash: generalHash,
		Grid:        def.Grid,
		Teams:       teams,
		TeamTiles:   make(map[shared.TeamName][][]TileState, len(teams)),
		CreatedAt:   now,
		LastUpdated: now,
	}
	for _, team := range teams {
		b.TeamTiles[team.Name] = emptyTileGrid(b.Rows(), b.Cols())
	}
	return b, nil
}

func emptyTileGrid(rows, cols int) [][]TileState {
	grid := make([][]TileState, rows)
	for i := range grid {
		grid[i] = make([]TileState, cols)
	}
	return grid
}

// Rows returns the grid row count.
func (b *Board) Rows() int {
	return len(b.Grid)
}

// Cols returns the grid column count.
func (b *Board) Cols() int {
	if len(b.Grid) == 0 {
		return 0
	}
	return len(b.Grid[0])
}

// TeamNames returns the team names in declaration order.
func (b *Board) TeamNames() []string {
	names := make([]string, len(b.Teams))
	for i, t := range b.Teams {
		names[i] = t.Name.String()
	}
	return names
}

// FindTeam returns the team with the given name.
func (b *Board) FindTeam(name shared.TeamName) (Team, error) {
	for _, t := range b.Teams {
		if t.Name == name {
			return t, nil
		}
	}
	return Team{}, shared.ErrTeamNotFound
}

// Definition returns the tile definition at a coordinate.
func (b *Board) Definition(c shared.Coord) (TileDefinition, error) {
	if !c.InBounds(b.Rows(), b.Cols()) {
		return TileDefinition{}, shared.ErrTileOutOfBounds
	}
	return b.Grid[c.Row][c.Col], nil
}

// TileState returns a pointer to the mutable state for (team, coord).
func (b *Board) TileState(team shared.TeamName, c shared.Coord) (*TileState, error) {
	grid, ok := b.TeamTiles[team]
	if !ok {
		return nil, shared.ErrTeamNotFound
	}
	if !c.InBounds(b.Rows(), b.Cols()) {
		return nil, shared.ErrTileOutOfBounds
	}
	return &grid[c.Row][c.Col], nil
}

// Authorize checks a password against both stored hashes and returns the
// granted privilege. Both hashes are always compared so a mismatch costs the
// same regardless of which password was attempted, and the error never
// distinguishes which hash failed.
func (b *Board) Authorize(password string) (Privilege, error) {
	adminErr := bcrypt.CompareHashAndPassword(b.AdminHash, []byte(password))
	generalErr := bcrypt.CompareHashAndPassword(b.GeneralHash, []byte(password))
	switch {
	case adminErr == nil:
		return PrivilegeAdmin, nil
	case generalErr == nil:
		return PrivilegeGeneral, nil
	default:
		return PrivilegeNone, shared.ErrInvalidPassword
	}
}

// FindOpenItemTile locates the first not-yet-checked tile whose requirement
// is an item matching itemName, scanning row-major. This is the only path by
// which item tiles complete (drop-triggered, §submitDrop).
func (b *Board) FindOpenItemTile(team shared.TeamName, itemName string) (shared.Coord, bool) {
	grid, ok := b.TeamTiles[team]
	if !ok {
		return shared.Coord{}, false
	}
	for r := range b.Grid {
		for c := range b.Grid[r] {
			if b.Grid[r][c].Requirement.MatchesItem(itemName) && !grid[r][c].Checked {
				return shared.Coord{Row: r, Col: c}, true
			}
		}
	}
	return shared.Coord{}, false
}

// Touch bumps the last-updated timestamp after an accepted write.
func (b *Board) Touch(now time.Time) {
	b.LastUpdated = now
}

// Clone returns a deep copy safe to hand to readers while the original
// continues to mutate under its store's locks.
func (b *Board) Clone() *Board {
	clone := &Board{
		Name:        b.Name,
		AdminHash:   append([]byte(nil), b.AdminHash...),
		GeneralHash: append([]byte(nil), b.GeneralHash...),
		Grid:        make([][]TileDefinition, len(b.Grid)),
		Teams:       append([]Team(nil), b.Teams...),
		TeamTiles:   make(map[shared.TeamName][][]TileState, len(b.TeamTiles)),
		CreatedAt:   b.CreatedAt,
		LastUpdated: b.LastUpdated,
	}
	for i, row := range b.Grid {
		clone.Grid[i] = append([]TileDefinition(nil), row...)
	}
	for team, grid := range b.TeamTiles {
		copied := make([][]TileState, len(grid))
		for i, row := range grid {
			copied[i] = append([]TileState(nil), row...)
		}
		clone.TeamTiles[team] = copied
	}
	return clone
}
