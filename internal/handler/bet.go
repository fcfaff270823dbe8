package handler

import (
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/service"
)

// BetHandler handles bet placement.
type BetHandler struct {
	bets *service.BetService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(bets *service.BetService) *BetHandler {
	return &BetHandler{bets: bets}
}

// PlaceBet handles POST /api/bet.
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var input service.PlaceBetInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.bets.PlaceBet(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"bet":     result.Bet,
		"balance": result.Balance,
	})
}
