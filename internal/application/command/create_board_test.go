package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

func TestCreateBoard(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCreateBoardHandler(env.store, env.publisher, nil)

	cmd := CreateBoardCommand{
		Name:            "Fall Event",
		AdminPassword:   "admin-secret",
		GeneralPassword: "team-secret",
		Grid: [][]board.TileDefinition{
			{itemTile("DWH", "Dragon warhammer", 25), itemTile("Tbow", "Twisted bow", 50)},
		},
		Teams: []board.Team{{Name: "Red"}, {Name: "Blue"}},
	}

	result, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, shared.BoardName("Fall Event"), result.Name)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 2, result.Cols)
	assert.Equal(t, []string{"Red", "Blue"}, result.Teams)

	created := env.publisher.ofType(shared.EventBoardCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "Fall Event", created[0].(shared.BoardCreatedEvent).BoardName)

	// Names are unique.
	_, err = handler.Handle(context.Background(), cmd)
	assert.True(t, shared.IsAlreadyExists(err))

	// The stored board authorizes with the hashed passwords, never plaintext.
	b, err := env.store.GetBoard(context.Background(), "Fall Event")
	require.NoError(t, err)
	privilege, err := b.Authorize("admin-secret")
	require.NoError(t, err)
	assert.Equal(t, board.PrivilegeAdmin, privilege)
}

func TestCreateBoard_RejectsInvalidDefinitions(t *testing.T) {
	env := newTestEnv(t)
	handler := NewCreateBoardHandler(env.store, env.publisher, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, CreateBoardCommand{
		Name:  "No Passwords",
		Grid:  [][]board.TileDefinition{{itemTile("A", "Coal", 1)}},
		Teams: []board.Team{{Name: "Red"}},
	})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, CreateBoardCommand{
		Name:            "Ragged",
		AdminPassword:   "a",
		GeneralPassword: "g",
		Grid: [][]board.TileDefinition{
			{itemTile("A", "Coal", 1), itemTile("B", "Iron ore", 1)},
			{itemTile("C", "Gold ore", 1)},
		},
		Teams: []board.Team{{Name: "Red"}},
	})
	assert.ErrorIs(t, err, shared.ErrRaggedGrid)
}
