package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dosdraw/platform/internal/domain"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// 500-code generation request, far below 1 MiB.
const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes the error contract body: {"error": message} with any
// diagnostic details flattened alongside. Internal errors are masked to a
// generic message; rate limits also set the Retry-After header.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		RespondJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}

	msg := appErr.Message
	if appErr.Code == "INTERNAL_ERROR" {
		msg = "internal server error"
	}

	body := map[string]any{"error": msg}
	for k, v := range appErr.Details {
		body[k] = v
	}
	if appErr.Status == http.StatusTooManyRequests {
		if sec, ok := appErr.Details["retryAfterSec"]; ok {
			w.Header().Set("Retry-After", fmt.Sprint(sec))
		}
	}

	RespondJSON(w, appErr.Status, body)
}

// DecodeJSON reads a JSON request body into dst, capping the body size.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}
