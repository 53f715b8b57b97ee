package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func seedSkillBoard(t *testing.T, env *testEnv) {
	t.Helper()
	env.createBoard(t, "Fall Event", [][]board.TileDefinition{
		{
			{Title: "Base 70 attack", Points: 10, Requirement: board.SkillRequirement("attack", 70)},
			{Title: "100 Zulrah", Points: 20, Requirement: board.BossRequirement("zulrah", 100)},
		},
		{
			{Title: "Fire cape", Points: 30, Requirement: board.AchievementRequirement("Fire Cape")},
			{Title: "13m attack xp", Points: 40, Requirement: board.ExperienceRequirement("attack", 13_034_431)},
		},
	})
}

func TestUpdateTile_Completes(t *testing.T) {
	env := newTestEnv(t)
	seedSkillBoard(t, env)

	handler := NewUpdateTileHandler(env.store, env.publisher, nil, nil)
	result, err := handler.Handle(context.Background(), UpdateTileCommand{
		Board:       "Fall Event",
		Team:        "Red",
		Row:         0,
		Col:         1,
		Password:    "team-secret",
		Checked:     boolPtr(true),
		CompletedBy: strPtr("Zezima"),
		ProofURL:    strPtr("https://img.example/zulrah.png"),
	})
	require.NoError(t, err)

	assert.True(t, result.Outcome.Transitioned)
	assert.Equal(t, "Zezima", result.State.CompletedBy)
	assert.Empty(t, result.BingoLines)

	completions := env.publisher.ofType(shared.EventTileCompleted)
	require.Len(t, completions, 1)
	event := completions[0].(shared.TileCompletedEvent)
	assert.Equal(t, "100 Zulrah", event.TileTitle)
	assert.Equal(t, 20, event.Points)
	assert.Equal(t, "https://img.example/zulrah.png", event.ProofURL)
}

func TestUpdateTile_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedSkillBoard(t, env)

	handler := NewUpdateTileHandler(env.store, env.publisher, nil, nil)
	_, err := handler.Handle(context.Background(), UpdateTileCommand{
		Board:    "Fall Event",
		Team:     "Red",
		Password: "wrong",
		Checked:  boolPtr(true),
	})
	assert.True(t, shared.IsForbidden(err))
	assert.Empty(t, env.publisher.ofType(shared.EventTileCompleted))
}

func TestUpdateTile_ResetRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	seedSkillBoard(t, env)

	handler := NewUpdateTileHandler(env.store, env.publisher, nil, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret",
		Checked: boolPtr(true), CompletedBy: strPtr("Zezima"),
	})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret", AdminReset: true,
	})
	assert.ErrorIs(t, err, shared.ErrAdminRequired)

	result, err := handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "admin-secret", AdminReset: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Outcome.WasReset)
	assert.False(t, result.State.Checked)

	resets := env.publisher.ofType(shared.EventTileReset)
	require.Len(t, resets, 1)
	assert.Equal(t, "Zezima", resets[0].(shared.TileResetEvent).CompletedBy)
}

func TestUpdateTile_CheckedIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	seedSkillBoard(t, env)

	handler := NewUpdateTileHandler(env.store, env.publisher, nil, nil)
	ctx := context.Background()

	first, err := handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret",
		Checked: boolPtr(true), CompletedBy: strPtr("First"),
	})
	require.NoError(t, err)
	assert.True(t, first.Outcome.Transitioned)

	// A checked=false write against a checked tile is a lost race, not an
	// error; the first completion's metadata survives.
	second, err := handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret",
		Checked: boolPtr(false), CompletedBy: strPtr("Second"),
	})
	require.NoError(t, err)
	assert.False(t, second.Outcome.Transitioned)
	assert.True(t, second.State.Checked)
	assert.Equal(t, "First", second.State.CompletedBy)

	assert.Len(t, env.publisher.ofType(shared.EventTileCompleted), 1)
}

func TestUpdateTile_BingoOnLastTile(t *testing.T) {
	env := newTestEnv(t)
	env.createBoard(t, "Tiny", [][]board.TileDefinition{
		{{Title: "A", Points: 5, Requirement: board.SkillRequirement("attack", 70)}},
	})

	handler := NewUpdateTileHandler(env.store, env.publisher, nil, nil)
	result, err := handler.Handle(context.Background(), UpdateTileCommand{
		Board: "Tiny", Team: "Blue", Password: "team-secret",
		Checked: boolPtr(true), CompletedBy: strPtr("P1"),
	})
	require.NoError(t, err)

	// A 1×1 board completes its row and column at once.
	require.Len(t, result.BingoLines, 2)
	assert.Len(t, env.publisher.ofType(shared.EventBingoAchieved), 2)
}

func TestUpdateTile_InvalidatesStandings(t *testing.T) {
	env := newTestEnv(t)
	seedSkillBoard(t, env)

	var invalidated []shared.BoardName
	invalidator := invalidateFunc(func(_ context.Context, name shared.BoardName) error {
		invalidated = append(invalidated, name)
		return nil
	})

	handler := NewUpdateTileHandler(env.store, env.publisher, invalidator, nil)
	ctx := context.Background()

	// A metadata-only write does not invalidate.
	_, err := handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret",
		ProofURL: strPtr("https://img.example/p.png"),
	})
	require.NoError(t, err)
	assert.Empty(t, invalidated)

	_, err = handler.Handle(ctx, UpdateTileCommand{
		Board: "Fall Event", Team: "Red", Password: "team-secret",
		Checked: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, []shared.BoardName{"Fall Event"}, invalidated)
}

type invalidateFunc func(ctx context.Context, name shared.BoardName) error

func (f invalidateFunc) Invalidate(ctx context.Context, name shared.BoardName) error {
	return f(ctx, name)
}
