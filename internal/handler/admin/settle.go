package admin

import (
	"errors"
	"io"
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/handler"
	"github.com/dosdraw/platform/internal/settlement"
)

// SettleHandler triggers settlements on demand.
type SettleHandler struct {
	engine *settlement.Engine
}

// NewSettleHandler creates a SettleHandler.
func NewSettleHandler(engine *settlement.Engine) *SettleHandler {
	return &SettleHandler{engine: engine}
}

type settleRequest struct {
	RoundID *int64 `json:"roundId"`
}

// Settle handles POST /api/admin/settle. Omitting roundId settles the most
// recently finished round; re-settling a round returns the recorded result
// with alreadySettled set.
func (h *SettleHandler) Settle(w http.ResponseWriter, r *http.Request) {
	// An absent or empty body means "settle the most recent finished round";
	// chunked requests report ContentLength -1, so decode and treat EOF as empty.
	var req settleRequest
	if err := handler.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.engine.Settle(r.Context(), req.RoundID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"alreadySettled": result.AlreadySettled,
		"round":          result.Round,
	})
}
