package handler

import (
	"net/http"

	"github.com/dosdraw/platform/internal/rounds"
)

// RoundHandler serves the public round window.
type RoundHandler struct {
	clock *rounds.Clock
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(clock *rounds.Clock) *RoundHandler {
	return &RoundHandler{clock: clock}
}

// GetRound handles GET /api/round — the current window plus the active
// timing parameters, computed from one snapshot.
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	params := h.clock.Params()
	info := rounds.InfoAt(h.clock.NowMs(), params)

	RespondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"round":  info,
		"params": params,
	})
}
