package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/gielinor-events/bingo-hub/internal/application/command"
	"github.com/gielinor-events/bingo-hub/internal/application/query"
	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/leaderboard"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// HealthCheck probes one backing service. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Notifier sends a test message to every webhook of a category.
type Notifier interface {
	Test(ctx context.Context, category shared.Category, content string) error
}

// Dependencies wires the application layer into the server. Nil optional
// fields disable their endpoint with 404s rather than panicking.
type Dependencies struct {
	CreateBoard *command.CreateBoardHandler
	UpdateTile  *command.UpdateTileHandler
	SubmitDrop  *command.SubmitDropHandler

	GetBoard    *query.GetBoardHandler
	ListBoards  *query.ListBoardsHandler
	Leaderboard *query.GetLeaderboardHandler
	RecentDrops *query.RecentDropsHandler
	CheckTiles  *query.CheckTilesHandler

	// Stats backs the player snapshot endpoints. Optional.
	Stats stats.Provider

	// Notifier backs the webhook test endpoint. Optional.
	Notifier Notifier

	// HealthChecks are probed by the health endpoint, keyed by service name.
	HealthChecks map[string]HealthCheck

	Logger *logger.Logger
}

// ─────────────────────────────────────────────────────────────────────────────
// Routes
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/boards", s.handleCreateBoard).Methods(http.MethodPost)
	api.HandleFunc("/boards", s.handleListBoards).Methods(http.MethodGet)
	api.HandleFunc("/boards/{name}", s.handleGetBoard).Methods(http.MethodGet)
	api.HandleFunc("/boards/{name}/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/boards/{name}/teams/{team}/tiles/{row:[0-9]+}/{col:[0-9]+}",
		s.handleUpdateTile).Methods(http.MethodPut)
	api.HandleFunc("/boards/{name}/teams/{team}/check", s.handleCheckTiles).Methods(http.MethodPost)

	api.HandleFunc("/drops", s.handleSubmitDrop).Methods(http.MethodPost)
	api.HandleFunc("/drops/recent", s.handleRecentDrops).Methods(http.MethodGet)

	if s.deps.Stats != nil {
		api.HandleFunc("/players/{player}", s.handlePlayerStats).Methods(http.MethodGet)
		api.HandleFunc("/players/{player}/refresh", s.handlePlayerRefresh).Methods(http.MethodPost)
	}
	if s.deps.Notifier != nil {
		api.HandleFunc("/webhooks/test", s.handleWebhookTest).Methods(http.MethodPost)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status        string            `json:"status"`
		UptimeSeconds int64             `json:"uptime_seconds"`
		Services      map[string]string `json:"services,omitempty"`
	}

	resp := health{Status: "ok", UptimeSeconds: int64(s.Uptime().Seconds())}
	status := http.StatusOK

	if len(s.deps.HealthChecks) > 0 {
		resp.Services = make(map[string]string, len(s.deps.HealthChecks))
		for name, check := range s.deps.HealthChecks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check(ctx)
			cancel()
			if err != nil {
				resp.Services[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				resp.Services[name] = "ok"
			}
		}
	}

	s.writeJSON(w, r, status, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// BOARDS
// ══════════════════════════════════════════════════════════════════════════════

type createBoardRequest struct {
	Name            string                   `json:"name"`
	AdminPassword   string                   `json:"admin_password"`
	GeneralPassword string                   `json:"general_password"`
	Grid            [][]board.TileDefinition `json:"grid"`
	Teams           []board.Team             `json:"teams"`
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.CreateBoard.Handle(r.Context(), command.CreateBoardCommand{
		Name:            req.Name,
		AdminPassword:   req.AdminPassword,
		GeneralPassword: req.GeneralPassword,
		Grid:            req.Grid,
		Teams:           req.Teams,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"name":       result.Name,
		"rows":       result.Rows,
		"cols":       result.Cols,
		"teams":      result.Teams,
		"created_at": result.CreatedAt,
	})
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	names, err := s.deps.ListBoards.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"boards": names})
}

// handleGetBoard returns the full board. Password hashes never serialize.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.GetBoard.Handle(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, b)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := s.deps.Leaderboard.Handle(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"standings": standings})
}

// ══════════════════════════════════════════════════════════════════════════════
// TILES
// ══════════════════════════════════════════════════════════════════════════════

type updateTileRequest struct {
	Password    string  `json:"password"`
	Checked     *bool   `json:"checked,omitempty"`
	ProofURL    *string `json:"proof_url,omitempty"`
	CompletedBy *string `json:"completed_by,omitempty"`
	AdminReset  bool    `json:"admin_reset,omitempty"`
}

type tileUpdateResponse struct {
	Coord      shared.Coord    `json:"coord"`
	Title      string          `json:"title"`
	Points     int             `json:"points"`
	State      board.TileState `json:"state"`
	Completed  bool            `json:"completed"`
	Reset      bool            `json:"reset,omitempty"`
	BingoLines []string        `json:"bingo_lines,omitempty"`
}

func (s *Server) handleUpdateTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, _ := strconv.Atoi(vars["row"])
	col, _ := strconv.Atoi(vars["col"])

	var req updateTileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.UpdateTile.Handle(r.Context(), command.UpdateTileCommand{
		Board:       vars["name"],
		Team:        vars["team"],
		Row:         row,
		Col:         col,
		Password:    req.Password,
		Checked:     req.Checked,
		ProofURL:    req.ProofURL,
		CompletedBy: req.CompletedBy,
		AdminReset:  req.AdminReset,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, tileUpdateResponse{
		Coord:      result.Coord,
		Title:      result.Definition.Title,
		Points:     result.Definition.Points,
		State:      result.State,
		Completed:  result.Outcome.Transitioned,
		Reset:      result.Outcome.WasReset,
		BingoLines: describeLines(result.BingoLines),
	})
}

type checkTilesRequest struct {
	Players []string `json:"players"`
}

func (s *Server) handleCheckTiles(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req checkTilesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.CheckTiles.Handle(r.Context(), query.CheckTilesQuery{
		Board:   vars["name"],
		Team:    vars["team"],
		Players: req.Players,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// DROPS
// ══════════════════════════════════════════════════════════════════════════════

type submitDropRequest struct {
	PlayerName    string `json:"player_name"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	Rarity        string `json:"rarity,omitempty"`
	Value         int64  `json:"value,omitempty"`
	ScreenshotURL string `json:"screenshot,omitempty"`
	Board         string `json:"board,omitempty"`
	Team          string `json:"team,omitempty"`
}

type submitDropResponse struct {
	DropID        string        `json:"drop_id"`
	TileCompleted bool          `json:"tile_completed"`
	Coord         *shared.Coord `json:"coord,omitempty"`
	Title         string        `json:"title,omitempty"`
	BingoLines    []string      `json:"bingo_lines,omitempty"`
}

func (s *Server) handleSubmitDrop(w http.ResponseWriter, r *http.Request) {
	var req submitDropRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.SubmitDrop.Handle(r.Context(), command.SubmitDropCommand{
		PlayerName:    req.PlayerName,
		ItemName:      req.ItemName,
		Quantity:      req.Quantity,
		Rarity:        req.Rarity,
		Value:         req.Value,
		ScreenshotURL: req.ScreenshotURL,
		Board:         req.Board,
		Team:          req.Team,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := submitDropResponse{
		DropID:        result.Drop.ID,
		TileCompleted: result.TileCompleted,
		BingoLines:    describeLines(result.BingoLines),
	}
	if result.TileCompleted {
		coord := result.Coord
		resp.Coord = &coord
		resp.Title = result.Definition.Title
	}
	s.writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleRecentDrops(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	result, err := s.deps.RecentDrops.Handle(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Stats.FetchSnapshot(r.Context(), mux.Vars(r)["player"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handlePlayerRefresh(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	if err := s.deps.Stats.RequestUpdate(r.Context(), player); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, map[string]any{"player": player, "refresh": "requested"})
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOKS
// ══════════════════════════════════════════════════════════════════════════════

type webhookTestRequest struct {
	Category string `json:"category"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleWebhookTest(w http.ResponseWriter, r *http.Request) {
	var req webhookTestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	category := shared.Category(req.Category)
	switch category {
	case shared.CategoryMain, shared.CategoryDrops, shared.CategoryBingo:
	default:
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "unknown webhook category")
		return
	}

	message := req.Message
	if message == "" {
		message = "Webhook test from bingo hub"
	}
	if err := s.deps.Notifier.Test(r.Context(), category, message); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"category": category, "delivered": true})
}

func describeLines(lines []leaderboard.Line) []string {
	if len(lines) == 0 {
		return nil
	}
	described := make([]string, len(lines))
	for i, line := range lines {
		described[i] = line.Describe()
	}
	return described
}
