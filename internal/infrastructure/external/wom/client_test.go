package wom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

const playerJSON = `{
	"id": 1,
	"username": "zezima",
	"displayName": "Zezima",
	"latestSnapshot": {
		"createdAt": "2026-03-01T12:00:00Z",
		"data": {
			"skills": {
				"attack": {"metric": "attack", "experience": 13034431, "level": 99, "rank": 100},
				"mining": {"metric": "mining", "experience": 737627, "level": 70, "rank": 5000}
			},
			"bosses": {
				"zulrah": {"metric": "zulrah", "kills": 120, "rank": 900},
				"vorkath": {"metric": "vorkath", "kills": -1, "rank": -1}
			}
		}
	}
}`

const achievementsJSON = `[
	{"name": "99 Attack", "metric": "attack", "threshold": 13034431, "createdAt": "2026-02-01T00:00:00Z"}
]`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 2 * time.Second
	cfg.RateLimiterConfig = RateLimiterConfig{RequestsPerMinute: 6000, Burst: 100}
	return NewClient(cfg)
}

func TestFetchSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/zezima", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playerJSON))
	})
	mux.HandleFunc("/players/zezima/achievements", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(achievementsJSON))
	})

	client := testClient(t, mux)
	snap, err := client.FetchSnapshot(context.Background(), "zezima")
	require.NoError(t, err)

	assert.Equal(t, "Zezima", snap.Player)
	assert.Equal(t, 99, snap.Skill("attack").Level)
	assert.Equal(t, int64(13_034_431), snap.Skill("attack").Experience)
	assert.Equal(t, 120, snap.BossKillCount("zulrah"))
	assert.Equal(t, 0, snap.BossKillCount("vorkath"), "unranked bosses are dropped")
	assert.True(t, snap.HasAchievement("99 attack"))
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), snap.TakenAt)
}

func TestFetchSnapshot_AchievementsFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/zezima", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playerJSON))
	})
	mux.HandleFunc("/players/zezima/achievements", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "nope"}`))
	})

	client := testClient(t, mux)
	snap, err := client.FetchSnapshot(context.Background(), "zezima")
	require.NoError(t, err)
	assert.Empty(t, snap.Achievements)
	assert.Equal(t, 99, snap.Skill("attack").Level)
}

func TestFetchSnapshot_PlayerNotFound(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/players/ghost", func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Player not found."}`))
	})

	client := testClient(t, mux)
	_, err := client.FetchSnapshot(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 1, requests, "not-found is permanent, no retries")
}

func TestFetchSnapshot_ServerErrorRetries(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/players/zezima", func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(playerJSON))
	})
	mux.HandleFunc("/players/zezima/achievements", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(achievementsJSON))
	})

	client := testClient(t, mux)
	snap, err := client.FetchSnapshot(context.Background(), "zezima")
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
	assert.Equal(t, 99, snap.Skill("attack").Level)
}

func TestRequestUpdate(t *testing.T) {
	var gotMethod string
	mux := http.NewServeMux()
	mux.HandleFunc("/players/zezima", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(playerJSON))
	})

	client := testClient(t, mux)
	require.NoError(t, client.RequestUpdate(context.Background(), "zezima"))
	assert.Equal(t, http.MethodPost, gotMethod)
}
