package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosdraw/platform/internal/domain"
)

// --- Respond Tests ---

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]any{"ok": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRespondError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, domain.ErrConflict("username already taken"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"username already taken"}`, rec.Body.String())
}

func TestRespondError_FlattensDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, domain.ErrInsufficientBalance(30, 100))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"insufficient balance","balance":30,"required":100}`, rec.Body.String())
}

func TestRespondError_BetsClosedShape(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, domain.ErrConflict("bets closed").WithDetails(map[string]any{
		"roundId":    int64(77),
		"secToClose": int64(0),
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"bets closed","roundId":77,"secToClose":0}`, rec.Body.String())
}

func TestRespondError_RateLimitSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, domain.ErrTooManyRequests(42))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many attempts","retryAfterSec":42}`, rec.Body.String())
}

func TestRespondError_MasksInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, domain.ErrInternal("begin tx", errors.New("connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRespondError_UnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("something exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRespondError_UnwrapsWrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := fmt.Errorf("credit winner: %w", domain.ErrNotFound("player", "abc"))
	RespondError(rec, wrapped)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"alice"}`))
		var dst struct {
			Username string `json:"username"`
		}
		require.NoError(t, DecodeJSON(req, &dst))
		assert.Equal(t, "alice", dst.Username)
	})

	t.Run("malformed body errors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":`))
		var dst map[string]any
		assert.Error(t, DecodeJSON(req, &dst))
	})

	t.Run("oversized body errors", func(t *testing.T) {
		huge := `{"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
		var dst map[string]any
		assert.Error(t, DecodeJSON(req, &dst))
	})
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"absent uses fallback", "", 0, false},
		{"valid value", "limit=25", 25, false},
		{"not a number", "limit=abc", 0, true},
		{"zero rejected", "limit=0", 0, true},
		{"negative rejected", "limit=-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := parseLimit(req, 0)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- Middleware Tests ---

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsIncomingID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRecovery_CatchesPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := CORS([]string{"*"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://game.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin echoed", func(t *testing.T) {
		h := CORS([]string{"https://game.example"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://game.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "https://game.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		h := CORS([]string{"https://game.example"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		h := CORS([]string{"*"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestJSONContentType(t *testing.T) {
	h := JSONContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestClientIP(t *testing.T) {
	t.Run("remote addr without port", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "203.0.113.9:54321"
		assert.Equal(t, "203.0.113.9", ClientIP(req))
	})

	t.Run("first forwarded hop wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		assert.Equal(t, "198.51.100.7", ClientIP(req))
	})

	t.Run("single forwarded hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.7")
		assert.Equal(t, "198.51.100.7", ClientIP(req))
	})
}
