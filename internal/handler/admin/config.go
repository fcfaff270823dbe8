package admin

import (
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/handler"
	"github.com/dosdraw/platform/internal/rounds"
)

// ConfigHandler manages the round timing parameters.
type ConfigHandler struct {
	clock *rounds.Clock
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(clock *rounds.Clock) *ConfigHandler {
	return &ConfigHandler{clock: clock}
}

// GetConfig handles GET /api/admin/config.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	handler.RespondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"params": h.clock.Params(),
	})
}

// UpdateConfig handles PUT /api/admin/config. The change is partial; out
// of range values are clamped, never rejected. The response carries the
// parameters actually applied.
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var upd rounds.ParamsUpdate
	if err := handler.DecodeJSON(r, &upd); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	applied := h.clock.Update(upd)

	handler.RespondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"params": applied,
	})
}
