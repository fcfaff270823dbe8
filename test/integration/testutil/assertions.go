//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks the response HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// ErrorMessage decodes the error body and returns its message.
func ErrorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	DecodeJSON(t, resp, &body)
	return body.Error
}

// PlayerBalance reads a player's stored balance.
func PlayerBalance(t *testing.T, env *TestEnv, playerID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var num pgtype.Numeric
	if err := env.Pool.QueryRow(ctx,
		"SELECT balance FROM players WHERE id = $1", playerID).Scan(&num); err != nil {
		t.Fatalf("PlayerBalance: %v", err)
	}
	bal, err := infra.NumericToInt64(num)
	if err != nil {
		t.Fatalf("PlayerBalance: %v", err)
	}
	return bal
}

// LedgerSum returns Σ dos_ledger.amount for a player. For a consistent
// database it equals the stored balance.
func LedgerSum(t *testing.T, env *TestEnv, playerID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var num pgtype.Numeric
	if err := env.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM dos_ledger WHERE player_id = $1", playerID).Scan(&num); err != nil {
		t.Fatalf("LedgerSum: %v", err)
	}
	sum, err := infra.NumericToInt64(num)
	if err != nil {
		t.Fatalf("LedgerSum: %v", err)
	}
	return sum
}

// CountLedger counts a player's ledger entries of one kind.
func CountLedger(t *testing.T, env *TestEnv, playerID uuid.UUID, kind domain.LedgerKind) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	if err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM dos_ledger WHERE player_id = $1 AND kind = $2",
		playerID, kind).Scan(&count); err != nil {
		t.Fatalf("CountLedger: %v", err)
	}
	return count
}

// CountOutbox counts outbox events of one type.
func CountOutbox(t *testing.T, env *TestEnv, eventType domain.EventType) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	if err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE event_type = $1", string(eventType)).Scan(&count); err != nil {
		t.Fatalf("CountOutbox: %v", err)
	}
	return count
}

// BankState reads the game bank row.
func BankState(t *testing.T, env *TestEnv) (carry, adminTake int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var carryNum, takeNum pgtype.Numeric
	if err := env.Pool.QueryRow(ctx,
		"SELECT carry, admin_take FROM game_bank WHERE id = 1").Scan(&carryNum, &takeNum); err != nil {
		t.Fatalf("BankState: %v", err)
	}
	var err error
	if carry, err = infra.NumericToInt64(carryNum); err != nil {
		t.Fatalf("BankState: carry: %v", err)
	}
	if adminTake, err = infra.NumericToInt64(takeNum); err != nil {
		t.Fatalf("BankState: admin_take: %v", err)
	}
	return carry, adminTake
}
