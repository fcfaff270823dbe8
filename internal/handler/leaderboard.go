package handler

import (
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/service"
)

// LeaderboardHandler serves the public ranking.
type LeaderboardHandler struct {
	players *service.PlayerService
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(players *service.PlayerService) *LeaderboardHandler {
	return &LeaderboardHandler{players: players}
}

// GetLeaderboard handles GET /api/leaderboard?limit=.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 0)
	if err != nil {
		RespondError(w, err)
		return
	}

	rows, err := h.players.Leaderboard(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.LeaderboardRow{}
	}

	RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "leaderboard": rows})
}
