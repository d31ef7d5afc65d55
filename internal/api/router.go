package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pongduel-go/internal/api/handler"
	"github.com/mcoot/pongduel-go/internal/api/middleware"
	"github.com/mcoot/pongduel-go/internal/api/response"
	"github.com/mcoot/pongduel-go/internal/realtime"
	"github.com/mcoot/pongduel-go/internal/services/auth"
	"github.com/mcoot/pongduel-go/internal/services/history"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	HistoryService *history.Service
	Orchestrator   *realtime.Orchestrator
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	matchHandler := handler.NewMatchHandler(cfg.HistoryService)
	wsHandler := realtime.NewHandler(cfg.AuthService, cfg.Orchestrator, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me/matches", matchHandler.ListMine).Methods(http.MethodGet)

	// Match history routes (require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("/{match_id}", matchHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Orchestrator)).Methods(http.MethodGet)

	// The realtime entry point; auth happens inside the handler so the
	// token query parameter fallback works for browser clients
	r.Handle("/ws", wsHandler).Methods(http.MethodGet)

	return r
}

type healthResponse struct {
	Status         string `json:"status"`
	OnlinePlayers  int    `json:"online_players"`
	QueuedPlayers  int    `json:"queued_players"`
	ActiveMatches  int    `json:"active_matches"`
	PendingInvites int    `json:"pending_invites"`
}

func healthHandler(orch *realtime.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := orch.Stats()
		response.JSON(w, http.StatusOK, healthResponse{
			Status:         "ok",
			OnlinePlayers:  stats.OnlinePlayers,
			QueuedPlayers:  stats.QueuedPlayers,
			ActiveMatches:  stats.ActiveMatches,
			PendingInvites: stats.PendingInvites,
		})
	}
}
