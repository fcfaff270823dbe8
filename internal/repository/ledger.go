package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

type ledgerRepo struct{}

// NewLedgerRepository returns a pgx-backed LedgerRepository.
func NewLedgerRepository() LedgerRepository {
	return &ledgerRepo{}
}

func (r *ledgerRepo) Insert(ctx context.Context, db DBTX, entry *domain.LedgerEntry) error {
	row := db.QueryRow(ctx, `
		INSERT INTO dos_ledger (player_id, kind, amount, meta)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		entry.PlayerID,
		entry.Kind,
		infra.Int64ToNumeric(entry.Amount),
		normalizeMeta(entry.Meta),
	)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepo) ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, player_id, kind, amount, meta, created_at
		FROM dos_ledger
		WHERE player_id = $1
		ORDER BY id DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var e domain.LedgerEntry
		var amtNum pgtype.Numeric
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Kind, &amtNum, &e.Meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if e.Amount, err = infra.NumericToInt64(amtNum); err != nil {
			return nil, fmt.Errorf("convert amount: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// normalizeMeta guarantees valid jsonb for the meta column.
func normalizeMeta(meta json.RawMessage) json.RawMessage {
	if len(meta) == 0 {
		return json.RawMessage(`{}`)
	}
	return meta
}
