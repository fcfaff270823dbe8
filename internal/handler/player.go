package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/guard"
	"github.com/dosdraw/platform/internal/metrics"
	"github.com/dosdraw/platform/internal/service"
)

// PlayerHandler handles signup, gift-code redemption and ledger reads.
type PlayerHandler struct {
	players *service.PlayerService
	codes   *service.GiftCodeService
	limiter *guard.RateLimiter
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(players *service.PlayerService, codes *service.GiftCodeService, limiter *guard.RateLimiter) *PlayerHandler {
	return &PlayerHandler{players: players, codes: codes, limiter: limiter}
}

// Signup handles POST /api/player/signup.
func (h *PlayerHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	player, err := h.players.Signup(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{"ok": true, "player": player})
}

// Redeem handles POST /api/player/redeem. Every attempt from an address
// counts against its window, malformed requests included.
func (h *PlayerHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	if d := h.limiter.Check(r.Context(), ClientIP(r)); !d.Allowed {
		metrics.Game().ObserveRedeem("rate_limited")
		RespondError(w, domain.ErrTooManyRequests(d.RetryAfterSec))
		return
	}

	var input service.RedeemInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.codes.Redeem(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"value":   result.Value,
		"balance": result.Balance,
	})
}

// Ledger handles GET /api/player/{id}/ledger?limit=.
func (h *PlayerHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("player id must be a UUID"))
		return
	}
	limit, err := parseLimit(r, 0)
	if err != nil {
		RespondError(w, err)
		return
	}

	entries, err := h.players.Ledger(r.Context(), playerID, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": entries})
}

// parseLimit reads the optional ?limit= query parameter; zero means "use
// the endpoint default".
func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, domain.ErrValidation("limit must be a positive integer")
	}
	return limit, nil
}
