package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

func testDefinition() Definition {
	return Definition{
		Name:            "Fall Event",
		AdminPassword:   "admin-secret",
		GeneralPassword: "team-secret",
		Grid: [][]TileDefinition{
			{
				{Title: "Maxed melee", Points: 10, Requirement: SkillRequirement("attack", 99)},
				{Title: "DWH drop", Points: 25, Requirement: ItemRequirement("Dragon warhammer")},
			},
		},
		Teams: []Team{
			{Name: "Red", Color: "#ff0000"},
			{Name: "Blue", Color: "#0000ff"},
		},
	}
}

func TestNewBoard(t *testing.T) {
	b, err := NewBoard(testDefinition(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, shared.BoardName("Fall Event"), b.Name)
	assert.Equal(t, 1, b.Rows())
	assert.Equal(t, 2, b.Cols())
	assert.Len(t, b.Teams, 2)

	// Passwords are hashed, never stored in plaintext.
	assert.NotContains(t, string(b.AdminHash), "admin-secret")
	assert.NotContains(t, string(b.GeneralHash), "team-secret")

	// Each team starts with a full grid of open tiles.
	for _, team := range b.Teams {
		grid := b.TeamTiles[team.Name]
		require.Len(t, grid, 1)
		require.Len(t, grid[0], 2)
		assert.False(t, grid[0][0].Checked)
		assert.False(t, grid[0][1].Checked)
	}
}

func TestNewBoard_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		want   error
	}{
		{"empty grid", func(d *Definition) { d.Grid = nil }, shared.ErrEmptyGrid},
		{"ragged grid", func(d *Definition) {
			d.Grid = append(d.Grid, []TileDefinition{
				{Title: "extra", Points: 1, Requirement: ItemRequirement("x")},
			})
		}, shared.ErrRaggedGrid},
		{"duplicate team", func(d *Definition) { d.Teams = append(d.Teams, Team{Name: "Red"}) }, shared.ErrDuplicateTeam},
		{"missing password", func(d *Definition) { d.GeneralPassword = "" }, shared.ErrEmptyValue},
		{"negative points", func(d *Definition) { d.Grid[0][0].Points = -1 }, shared.ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.mutate(&def)
			_, err := NewBoard(def, time.Now())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBoard_Authorize(t *testing.T) {
	b, err := NewBoard(testDefinition(), time.Now())
	require.NoError(t, err)

	priv, err := b.Authorize("admin-secret")
	require.NoError(t, err)
	assert.Equal(t, PrivilegeAdmin, priv)

	priv, err = b.Authorize("team-secret")
	require.NoError(t, err)
	assert.Equal(t, PrivilegeGeneral, priv)

	_, err = b.Authorize("wrong")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTileState_CompleteIsFirstWriterWins(t *testing.T) {
	var s TileState
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, s.Complete("P1", "https://img/1.png", first))
	assert.False(t, s.Complete("P2", "https://img/2.png", first.Add(time.Minute)))

	assert.True(t, s.Checked)
	assert.Equal(t, "P1", s.CompletedBy)
	assert.Equal(t, "https://img/1.png", s.ProofURL)
	assert.Equal(t, first, *s.CompletedAt)
}

func TestTileState_ApplyMonotonicChecked(t *testing.T) {
	now := time.Now()
	checked := true
	unchecked := false
	player := "P1"

	var s TileState
	outcome, err := s.Apply(Mutation{Checked: &checked, CompletedBy: &player}, PrivilegeGeneral, now)
	require.NoError(t, err)
	assert.True(t, outcome.Transitioned)
	require.True(t, s.Checked)

	// A checked=false write against a checked tile is a no-op success, not an
	// error: the caller observes the winning state.
	outcome, err = s.Apply(Mutation{Checked: &unchecked}, PrivilegeGeneral, now)
	require.NoError(t, err)
	assert.False(t, outcome.Transitioned)
	assert.False(t, outcome.WasReset)
	assert.True(t, s.Checked)
	assert.Equal(t, "P1", s.CompletedBy)

	// Re-submitting an identical checked=true leaves metadata unchanged.
	other := "P2"
	completedAt := *s.CompletedAt
	_, err = s.Apply(Mutation{Checked: &checked, CompletedBy: &other}, PrivilegeGeneral, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "P1", s.CompletedBy)
	assert.Equal(t, completedAt, *s.CompletedAt)
}

func TestTileState_AdminReset(t *testing.T) {
	now := time.Now()
	var s TileState
	s.Complete("P1", "proof", now)

	// General privilege cannot reset.
	_, err := s.Apply(Mutation{AdminReset: true}, PrivilegeGeneral, now)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.True(t, s.Checked)

	outcome, err := s.Apply(Mutation{AdminReset: true}, PrivilegeAdmin, now)
	require.NoError(t, err)
	assert.True(t, outcome.WasReset)
	assert.False(t, s.Checked)
	assert.Empty(t, s.CompletedBy)
	assert.Empty(t, s.ProofURL)
	assert.Nil(t, s.CompletedAt)

	// Resetting an open tile is a no-op.
	outcome, err = s.Apply(Mutation{AdminReset: true}, PrivilegeAdmin, now)
	require.NoError(t, err)
	assert.False(t, outcome.WasReset)
}

func TestBoard_FindOpenItemTile(t *testing.T) {
	b, err := NewBoard(testDefinition(), time.Now())
	require.NoError(t, err)

	coord, found := b.FindOpenItemTile("Red", "dragon WARHAMMER")
	require.True(t, found, "item match is case-insensitive")
	assert.Equal(t, shared.Coord{Row: 0, Col: 1}, coord)

	// Skill tiles never match the item path.
	_, found = b.FindOpenItemTile("Red", "Maxed melee")
	assert.False(t, found)

	// Once checked for Red, the tile no longer matches for Red but still
	// matches for Blue.
	state, err := b.TileState("Red", coord)
	require.NoError(t, err)
	state.Complete("P1", "", time.Now())

	_, found = b.FindOpenItemTile("Red", "Dragon warhammer")
	assert.False(t, found)
	_, found = b.FindOpenItemTile("Blue", "Dragon warhammer")
	assert.True(t, found)
}

func TestRequirement_Validate(t *testing.T) {
	assert.NoError(t, SkillRequirement("attack", 99).Validate())
	assert.NoError(t, BossRequirement("zulrah", 50).Validate())
	assert.NoError(t, ExperienceRequirement("mining", 13_034_431).Validate())
	assert.NoError(t, AchievementRequirement("inferno_cape").Validate())
	assert.NoError(t, ItemRequirement("Twisted bow").Validate())

	assert.Error(t, SkillRequirement("attack", 100).Validate())
	assert.Error(t, SkillRequirement("", 99).Validate())
	assert.Error(t, BossRequirement("zulrah", 0).Validate())
	assert.Error(t, ItemRequirement("  ").Validate())
	assert.Error(t, Requirement{Type: "mystery"}.Validate())
}
