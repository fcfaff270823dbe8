package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/infra"
)

// Auditor rebuilds player balances from the ledger and compares them with
// the stored balance column. Every balance mutation posts a ledger entry in
// the same transaction, so balance == Σ dos_ledger.amount must hold for
// every player; a mismatch means a write path bypassed the ledger engine.
type Auditor struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditor creates a balance auditor over the given pool.
func NewAuditor(pool *pgxpool.Pool, logger *slog.Logger) *Auditor {
	return &Auditor{pool: pool, logger: logger}
}

// Mismatch reports one player whose stored balance disagrees with the sum
// of their ledger entries.
type Mismatch struct {
	PlayerID uuid.UUID `json:"playerId"`
	Stored   int64     `json:"stored"`
	Rebuilt  int64     `json:"rebuilt"`
}

// Rebuild recomputes per-player balances from the ledger alone. Players with
// no ledger entries are absent from the result (their rebuilt balance is 0).
func (a *Auditor) Rebuild(ctx context.Context) (map[uuid.UUID]int64, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT player_id, COALESCE(SUM(amount), 0)
		FROM dos_ledger
		WHERE player_id IS NOT NULL
		GROUP BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("rebuild balances: %w", err)
	}
	defer rows.Close()

	rebuilt := make(map[uuid.UUID]int64)
	for rows.Next() {
		var playerID uuid.UUID
		var sum pgtype.Numeric
		if err := rows.Scan(&playerID, &sum); err != nil {
			return nil, fmt.Errorf("scan rebuilt balance: %w", err)
		}
		v, err := infra.NumericToInt64(sum)
		if err != nil {
			return nil, fmt.Errorf("rebuilt balance for %s: %w", playerID, err)
		}
		rebuilt[playerID] = v
	}
	return rebuilt, rows.Err()
}

// StoredBalances reads the balance column for all players.
func (a *Auditor) StoredBalances(ctx context.Context) (map[uuid.UUID]int64, error) {
	rows, err := a.pool.Query(ctx, `SELECT id, balance FROM players`)
	if err != nil {
		return nil, fmt.Errorf("load stored balances: %w", err)
	}
	defer rows.Close()

	stored := make(map[uuid.UUID]int64)
	for rows.Next() {
		var playerID uuid.UUID
		var bal pgtype.Numeric
		if err := rows.Scan(&playerID, &bal); err != nil {
			return nil, fmt.Errorf("scan stored balance: %w", err)
		}
		v, err := infra.NumericToInt64(bal)
		if err != nil {
			return nil, fmt.Errorf("stored balance for %s: %w", playerID, err)
		}
		stored[playerID] = v
	}
	return stored, rows.Err()
}

// Audit returns every player whose stored balance differs from the ledger
// sum, ordered by player id for stable logging. An empty slice means the
// invariant holds across the whole table.
func (a *Auditor) Audit(ctx context.Context) ([]Mismatch, error) {
	stored, err := a.StoredBalances(ctx)
	if err != nil {
		return nil, err
	}
	rebuilt, err := a.Rebuild(ctx)
	if err != nil {
		return nil, err
	}

	mismatches := Diff(stored, rebuilt)
	for _, m := range mismatches {
		a.logger.Error("balance mismatch",
			"player_id", m.PlayerID,
			"stored", m.Stored,
			"rebuilt", m.Rebuilt,
		)
	}
	return mismatches, nil
}

// Diff compares stored balances against rebuilt ones. A player missing from
// rebuilt counts as rebuilt 0; a ledger total for an unknown player is also
// reported (stored 0 never matches a non-zero total).
func Diff(stored, rebuilt map[uuid.UUID]int64) []Mismatch {
	var mismatches []Mismatch
	for playerID, bal := range stored {
		if sum := rebuilt[playerID]; sum != bal {
			mismatches = append(mismatches, Mismatch{PlayerID: playerID, Stored: bal, Rebuilt: sum})
		}
	}
	for playerID, sum := range rebuilt {
		if _, ok := stored[playerID]; !ok && sum != 0 {
			mismatches = append(mismatches, Mismatch{PlayerID: playerID, Stored: 0, Rebuilt: sum})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].PlayerID.String() < mismatches[j].PlayerID.String()
	})
	return mismatches
}
