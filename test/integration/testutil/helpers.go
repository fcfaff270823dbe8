//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dosdraw/platform/internal/domain"
)

func (env *TestEnv) do(method, path string, body any, headers map[string]string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// GET performs a GET request.
func (env *TestEnv) GET(path string) *http.Response {
	return env.do(http.MethodGet, path, nil, nil)
}

// POST performs a POST request with a JSON body.
func (env *TestEnv) POST(path string, body any) *http.Response {
	return env.do(http.MethodPost, path, body, nil)
}

// AdminGET performs a GET request with the admin key header.
func (env *TestEnv) AdminGET(path string) *http.Response {
	return env.do(http.MethodGet, path, nil, map[string]string{"x-admin-key": TestAdminKey})
}

// AdminPOST performs a POST request with the admin key header.
func (env *TestEnv) AdminPOST(path string, body any) *http.Response {
	return env.do(http.MethodPost, path, body, map[string]string{"x-admin-key": TestAdminKey})
}

// AdminPUT performs a PUT request with the admin key header.
func (env *TestEnv) AdminPUT(path string, body any) *http.Response {
	return env.do(http.MethodPut, path, body, map[string]string{"x-admin-key": TestAdminKey})
}

// AdminPATCH performs a PATCH request with the admin key header.
func (env *TestEnv) AdminPATCH(path string, body any) *http.Response {
	return env.do(http.MethodPatch, path, body, map[string]string{"x-admin-key": TestAdminKey})
}

// POSTWithHeaders performs a POST request with extra headers.
func (env *TestEnv) POSTWithHeaders(path string, body any, headers map[string]string) *http.Response {
	return env.do(http.MethodPost, path, body, headers)
}

// Signup creates a player through the API and returns it. Fails the test on
// any non-201 response.
func (env *TestEnv) Signup(username string) domain.Player {
	env.t.Helper()
	resp := env.POST("/api/player/signup", map[string]string{"username": username})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("Signup %s: expected 201, got %d", username, resp.StatusCode)
	}

	var result struct {
		OK     bool          `json:"ok"`
		Player domain.Player `json:"player"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Signup %s: decode: %v", username, err)
	}
	return result.Player
}

// PlaceBet submits a bet through the API.
func (env *TestEnv) PlaceBet(playerID uuid.UUID, nums []int32, chance int32, amount int64) *http.Response {
	env.t.Helper()
	return env.POST("/api/bet", map[string]any{
		"playerId": playerID.String(),
		"nums":     nums,
		"chance":   chance,
		"amount":   amount,
	})
}

// GenerateCodes creates gift codes through the admin API and returns the
// plaintext codes.
func (env *TestEnv) GenerateCodes(count int, value int64) []string {
	env.t.Helper()
	resp := env.AdminPOST("/api/admin/gift-codes", map[string]any{"count": count, "value": value})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("GenerateCodes: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Codes []string `json:"codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("GenerateCodes: decode: %v", err)
	}
	return result.Codes
}

// Redeem submits a redemption through the API.
func (env *TestEnv) Redeem(playerID uuid.UUID, code string) *http.Response {
	env.t.Helper()
	return env.POST("/api/player/redeem", map[string]string{
		"playerId": playerID.String(),
		"code":     code,
	})
}

// CreditPlayer adds DOS through the admin adjust API, so the credit posts a
// ledger entry and the balance invariant keeps holding.
func (env *TestEnv) CreditPlayer(playerID uuid.UUID, amount int64) {
	env.t.Helper()
	resp := env.AdminPOST("/api/admin/player/"+playerID.String()+"/adjust", map[string]any{
		"mode":   "add",
		"amount": amount,
		"reason": "test credit",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("CreditPlayer: expected 200, got %d", resp.StatusCode)
	}
}

// PastRoundID returns the id of a finished round, offset rounds before the
// most recently finished one (offset 0 = last finished round).
func (env *TestEnv) PastRoundID(offset int64) int64 {
	return env.Clock.CurrentRoundID() - 1 - offset
}

// SeedBet writes a bet directly into the database, debiting the stake and
// posting the matching ledger entry in one transaction. It exists so tests
// can place bets into already-finished rounds, which the API refuses.
func (env *TestEnv) SeedBet(playerID uuid.UUID, roundID int64, nums []int32, chance int32, amount int64) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := env.Pool.Begin(ctx)
	if err != nil {
		env.t.Fatalf("SeedBet: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT id FROM players WHERE id = $1 FOR UPDATE", playerID); err != nil {
		env.t.Fatalf("SeedBet: lock player: %v", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE players SET balance = balance - $2 WHERE id = $1", playerID, amount); err != nil {
		env.t.Fatalf("SeedBet: debit stake: %v", err)
	}

	var betID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO bets (player_id, round_id, nums, chance, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		playerID, roundID, nums, chance, amount).Scan(&betID)
	if err != nil {
		env.t.Fatalf("SeedBet: insert bet: %v", err)
	}

	meta, _ := json.Marshal(map[string]any{
		"betId":   betID,
		"roundId": roundID,
		"choice":  domain.FormatChoice(nums, chance),
	})
	if _, err := tx.Exec(ctx, `
		INSERT INTO dos_ledger (player_id, kind, amount, meta)
		VALUES ($1, $2, $3, $4)`,
		playerID, domain.LedgerBet, -amount, meta); err != nil {
		env.t.Fatalf("SeedBet: insert ledger entry: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		env.t.Fatalf("SeedBet: commit: %v", err)
	}
	return betID
}
