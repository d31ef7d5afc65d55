package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pongduel-go/internal/api/middleware"
	"github.com/mcoot/pongduel-go/internal/api/response"
	"github.com/mcoot/pongduel-go/internal/model"
	"github.com/mcoot/pongduel-go/internal/services/history"
)

// MatchHandler handles match history endpoints
type MatchHandler struct {
	historyService *history.Service
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(historyService *history.Service) *MatchHandler {
	return &MatchHandler{
		historyService: historyService,
	}
}

// Get handles GET /api/v1/matches/{match_id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID := model.MatchID(mux.Vars(r)["match_id"])

	rec, err := h.historyService.GetMatch(r.Context(), matchID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchRecordFromModel(rec))
}

// ListMine handles GET /api/v1/players/me/matches
func (h *MatchHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	records, err := h.historyService.ListForPlayer(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModels(records))
}
