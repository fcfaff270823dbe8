package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/handler"
	"github.com/dosdraw/platform/internal/service"
)

// PlayerHandler handles admin player management.
type PlayerHandler struct {
	players *service.PlayerService
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(players *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// Adjust handles POST /api/admin/player/{id}/adjust.
func (h *PlayerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("player id must be a UUID"))
		return
	}
	var input service.AdjustInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	player, err := h.players.AdminAdjust(r.Context(), playerID, input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "player": player})
}

type statusRequest struct {
	Status domain.PlayerStatus `json:"status"`
}

// SetStatus handles PATCH /api/admin/player/{id}/status.
func (h *PlayerHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("player id must be a UUID"))
		return
	}
	var req statusRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	player, err := h.players.AdminSetStatus(r.Context(), playerID, req.Status)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "player": player})
}
