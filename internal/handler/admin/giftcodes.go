package admin

import (
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/handler"
	"github.com/dosdraw/platform/internal/service"
)

// GiftCodeHandler handles admin gift-code generation.
type GiftCodeHandler struct {
	codes *service.GiftCodeService
}

// NewGiftCodeHandler creates a GiftCodeHandler.
func NewGiftCodeHandler(codes *service.GiftCodeService) *GiftCodeHandler {
	return &GiftCodeHandler{codes: codes}
}

// Generate handles POST /api/admin/gift-codes. The plaintext codes appear
// in this response and nowhere else.
func (h *GiftCodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input service.GenerateInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	codes, err := h.codes.Generate(r.Context(), input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, map[string]any{
		"ok":    true,
		"value": input.Value,
		"codes": codes,
	})
}
