//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates all tables in reverse-dependency order and resets the
// game bank row. The bank is a fixed single row, so it is reset rather than
// truncated.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"event_outbox",
		"admin_ledger",
		"round_results",
		"bets",
		"gift_codes",
		"dos_ledger",
		"players",
	}
	for _, table := range tables {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}

	_, _ = env.Pool.Exec(ctx, "UPDATE game_bank SET carry = 0, admin_take = 0 WHERE id = 1")
}
