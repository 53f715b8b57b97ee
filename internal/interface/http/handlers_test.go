package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/application/command"
	"github.com/gielinor-events/bingo-hub/internal/application/query"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/persistence/memory"
)

type fakeNotifier struct {
	categories []shared.Category
	messages   []string
	err        error
}

func (f *fakeNotifier) Test(_ context.Context, category shared.Category, content string) error {
	f.categories = append(f.categories, category)
	f.messages = append(f.messages, content)
	return f.err
}

type fakeStats struct {
	snapshots map[string]*stats.PlayerSnapshot
	refreshed []string
}

func (f *fakeStats) FetchSnapshot(_ context.Context, player string) (*stats.PlayerSnapshot, error) {
	snap, ok := f.snapshots[player]
	if !ok {
		return nil, shared.ErrPlayerNotFound
	}
	return snap, nil
}

func (f *fakeStats) RequestUpdate(_ context.Context, player string) error {
	f.refreshed = append(f.refreshed, player)
	return nil
}

type testServer struct {
	*Server
	store    *memory.Store
	drops    *memory.DropLog
	notifier *fakeNotifier
	stats    *fakeStats
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	drops := memory.NewDropLog()
	notifier := &fakeNotifier{}
	provider := &fakeStats{snapshots: make(map[string]*stats.PlayerSnapshot)}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	server := NewServer(config, Dependencies{
		CreateBoard: command.NewCreateBoardHandler(store, nil, nil),
		UpdateTile:  command.NewUpdateTileHandler(store, nil, nil, nil),
		SubmitDrop:  command.NewSubmitDropHandler(drops, store, nil, nil, nil, nil),
		GetBoard:    query.NewGetBoardHandler(store),
		ListBoards:  query.NewListBoardsHandler(store),
		Leaderboard: query.NewGetLeaderboardHandler(store, nil, nil),
		RecentDrops: query.NewRecentDropsHandler(drops, nil, nil),
		CheckTiles:  query.NewCheckTilesHandler(store, provider, nil),
		Stats:       provider,
		Notifier:    notifier,
	})

	return &testServer{Server: server, store: store, drops: drops, notifier: notifier, stats: provider}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func fallEventBody() map[string]any {
	tile := func(title string, points int, req map[string]any) map[string]any {
		return map[string]any{"title": title, "points": points, "requirement": req}
	}
	return map[string]any{
		"name":             "Fall Event",
		"admin_password":   "admin-secret",
		"general_password": "team-secret",
		"grid": [][]map[string]any{
			{
				tile("DWH", 10, map[string]any{"type": "item", "item_name": "Dragon warhammer"}),
				tile("Base 70 attack", 20, map[string]any{"type": "skill", "skill": "attack", "level": 70}),
			},
			{
				tile("100 Zulrah", 30, map[string]any{"type": "boss", "boss": "zulrah", "kill_count": 100}),
				tile("Fire cape", 40, map[string]any{"type": "achievement", "achievement": "Fire Cape"}),
			},
		},
		"teams": []map[string]any{{"name": "Red"}, {"name": "Blue"}},
	}
}

const boardPath = "/api/boards/Fall%20Event"

func TestCreateAndGetBoard(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/boards", fallEventBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Name  string   `json:"name"`
		Rows  int      `json:"rows"`
		Cols  int      `json:"cols"`
		Teams []string `json:"teams"`
	}
	decodeData(t, rec, &created)
	assert.Equal(t, "Fall Event", created.Name)
	assert.Equal(t, 2, created.Rows)
	assert.Equal(t, []string{"Red", "Blue"}, created.Teams)

	rec = ts.do(t, http.MethodGet, boardPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "admin", "password material must never serialize")
	assert.NotContains(t, rec.Body.String(), "hash")

	var fetched struct {
		Name      string                       `json:"board_name"`
		TeamTiles map[string][]json.RawMessage `json:"team_tiles"`
	}
	decodeData(t, rec, &fetched)
	assert.Equal(t, "Fall Event", fetched.Name)
	assert.Len(t, fetched.TeamTiles, 2)

	rec = ts.do(t, http.MethodGet, "/api/boards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Boards []string `json:"boards"`
	}
	decodeData(t, rec, &listed)
	assert.Equal(t, []string{"Fall Event"}, listed.Boards)
}

func TestCreateBoard_Conflicts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/boards", fallEventBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/boards", fallEventBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", errorCode(t, rec))

	invalid := fallEventBody()
	invalid["grid"] = [][]map[string]any{}
	invalid["name"] = "Empty"
	rec = ts.do(t, http.MethodPost, "/api/boards", invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/boards", fallEventBody()).Code)

	tilePath := boardPath + "/teams/Red/tiles/0/1"

	rec := ts.do(t, http.MethodPut, tilePath, map[string]any{
		"password": "wrong",
		"checked":  true,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))

	rec = ts.do(t, http.MethodPut, tilePath, map[string]any{
		"password":     "team-secret",
		"checked":      true,
		"completed_by": "Zezima",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated tileUpdateResponse
	decodeData(t, rec, &updated)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Base 70 attack", updated.Title)
	assert.Equal(t, 20, updated.Points)
	assert.Equal(t, "Zezima", updated.State.CompletedBy)

	rec = ts.do(t, http.MethodPut, boardPath+"/teams/Red/tiles/9/9", map[string]any{
		"password": "team-secret",
		"checked":  true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/boards/Missing/teams/Red/tiles/0/0", map[string]any{
		"password": "team-secret",
		"checked":  true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTileEndpoint_BingoLine(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/boards", fallEventBody()).Code)

	for _, coords := range [][2]int{{0, 0}, {0, 1}} {
		rec := ts.do(t, http.MethodPut,
			fmt.Sprintf("%s/teams/Blue/tiles/%d/%d", boardPath, coords[0], coords[1]),
			map[string]any{"password": "team-secret", "checked": true})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated tileUpdateResponse
		decodeData(t, rec, &updated)
		if coords == [2]int{0, 1} {
			assert.Equal(t, []string{"row 1"}, updated.BingoLines)
		} else {
			assert.Empty(t, updated.BingoLines)
		}
	}
}

func TestSubmitDropEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/boards", fallEventBody()).Code)

	rec := ts.do(t, http.MethodPost, "/api/drops", map[string]any{
		"player_name": "Zezima",
		"item_name":   "dragon warhammer",
		"quantity":    1,
		"board":       "Fall Event",
		"team":        "Red",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var submitted submitDropResponse
	decodeData(t, rec, &submitted)
	assert.NotEmpty(t, submitted.DropID)
	require.True(t, submitted.TileCompleted, "item name matches case-insensitively")
	require.NotNil(t, submitted.Coord)
	assert.Equal(t, shared.Coord{Row: 0, Col: 0}, *submitted.Coord)
	assert.Equal(t, "DWH", submitted.Title)

	// No board target: the drop is still recorded.
	rec = ts.do(t, http.MethodPost, "/api/drops", map[string]any{
		"player_name": "Woox",
		"item_name":   "Twisted bow",
		"quantity":    1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeData(t, rec, &submitted)
	assert.False(t, submitted.TileCompleted)

	rec = ts.do(t, http.MethodPost, "/api/drops", map[string]any{
		"player_name": "Woox",
		"quantity":    1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty item name is rejected")
}

func TestRecentDropsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for _, item := range []string{"Coal", "Twisted bow"} {
		rec := ts.do(t, http.MethodPost, "/api/drops", map[string]any{
			"player_name": "Zezima",
			"item_name":   item,
			"quantity":    1,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/drops/recent?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Drops []struct {
			ItemName string `json:"item_name"`
		} `json:"drops"`
		Stats struct {
			TotalDrops    int `json:"total_drops"`
			UniquePlayers int `json:"unique_players"`
		} `json:"stats"`
	}
	decodeData(t, rec, &result)
	require.Len(t, result.Drops, 1)
	assert.Equal(t, "Twisted bow", result.Drops[0].ItemName, "newest first")
	assert.Equal(t, 2, result.Stats.TotalDrops)
	assert.Equal(t, 1, result.Stats.UniquePlayers)

	rec = ts.do(t, http.MethodGet, "/api/drops/recent?limit=oops", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/boards", fallEventBody()).Code)

	rec := ts.do(t, http.MethodPut, boardPath+"/teams/Red/tiles/1/1", map[string]any{
		"password": "team-secret",
		"checked":  true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, boardPath+"/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Standings []struct {
			Team   string `json:"team"`
			Points int    `json:"points"`
		} `json:"standings"`
	}
	decodeData(t, rec, &result)
	require.Len(t, result.Standings, 2)
	assert.Equal(t, "Red", result.Standings[0].Team)
	assert.Equal(t, 40, result.Standings[0].Points)
}

func TestCheckTilesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/boards", fallEventBody()).Code)

	snap := &stats.PlayerSnapshot{Player: "Zezima"}
	snap.SetSkill("attack", stats.SkillStat{Level: 85})
	ts.stats.snapshots["Zezima"] = snap

	rec := ts.do(t, http.MethodPost, boardPath+"/teams/Red/check", map[string]any{
		"players": []string{"Zezima"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result query.CheckTilesResult
	decodeData(t, rec, &result)
	require.Len(t, result.Players, 1)
	require.Len(t, result.Players[0].Satisfied, 1)
	assert.Equal(t, shared.Coord{Row: 0, Col: 1}, result.Players[0].Satisfied[0].Coord)

	rec = ts.do(t, http.MethodPost, boardPath+"/teams/Green/check", map[string]any{
		"players": []string{"Zezima"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayerEndpoints(t *testing.T) {
	ts := newTestServer(t)

	snap := &stats.PlayerSnapshot{Player: "Zezima"}
	snap.SetBossKills("zulrah", 250)
	ts.stats.snapshots["Zezima"] = snap

	rec := ts.do(t, http.MethodGet, "/api/players/Zezima", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched stats.PlayerSnapshot
	decodeData(t, rec, &fetched)
	assert.Equal(t, 250, fetched.BossKillCount("zulrah"))

	rec = ts.do(t, http.MethodGet, "/api/players/"+url.PathEscape("No Body"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/players/Zezima/refresh", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"Zezima"}, ts.stats.refreshed)
}

func TestWebhookTestEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/webhooks/test", map[string]any{
		"category": "drops",
		"message":  "ping",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []shared.Category{shared.CategoryDrops}, ts.notifier.categories)
	assert.Equal(t, []string{"ping"}, ts.notifier.messages)

	rec = ts.do(t, http.MethodPost, "/api/webhooks/test", map[string]any{
		"category": "everything",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.notifier.err = shared.ErrWebhookNotConfigured
	rec = ts.do(t, http.MethodPost, "/api/webhooks/test", map[string]any{
		"category": "main",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.deps.HealthChecks = map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	}

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	decodeData(t, rec, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Services["postgres"])

	ts.deps.HealthChecks["redis"] = func(context.Context) error { return shared.ErrServiceUnavailable }
	rec = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decodeData(t, rec, &health)
	assert.Equal(t, "degraded", health.Status)
}

func TestRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 2

	store := memory.NewStore()
	server := NewServer(config, Dependencies{ListBoards: query.NewListBoardsHandler(store)})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// A different client is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDEcho(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)
}
