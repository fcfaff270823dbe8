package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

type bankRepo struct{}

// NewBankRepository returns a pgx-backed BankRepository.
func NewBankRepository() BankRepository {
	return &bankRepo{}
}

// Lock takes the game_bank row lock. Settlement acquires it first, so only
// one settlement is in flight at a time; waiters observe the winner's
// committed state.
func (r *bankRepo) Lock(ctx context.Context, tx pgx.Tx) (*domain.Bank, error) {
	row := tx.QueryRow(ctx, `
		SELECT carry, admin_take, updated_at
		FROM game_bank WHERE id = 1
		FOR UPDATE`)
	return scanBank(row)
}

func (r *bankRepo) Get(ctx context.Context, db DBTX) (*domain.Bank, error) {
	row := db.QueryRow(ctx, `
		SELECT carry, admin_take, updated_at
		FROM game_bank WHERE id = 1`)
	return scanBank(row)
}

func (r *bankRepo) Settle(ctx context.Context, tx pgx.Tx, carry, adminTakeDelta int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE game_bank
		SET carry = $1, admin_take = admin_take + $2, updated_at = now()
		WHERE id = 1`,
		infra.Int64ToNumeric(carry), infra.Int64ToNumeric(adminTakeDelta))
	if err != nil {
		return fmt.Errorf("update game bank: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update game bank: seed row missing")
	}
	return nil
}

func (r *bankRepo) InsertEntry(ctx context.Context, tx pgx.Tx, entry *domain.BankEntry) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO admin_ledger (kind, amount, meta)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		entry.Kind,
		infra.Int64ToNumeric(entry.Amount),
		normalizeMeta(entry.Meta),
	)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert admin ledger entry: %w", err)
	}
	return nil
}

func scanBank(row pgx.Row) (*domain.Bank, error) {
	var b domain.Bank
	var carryNum, takeNum pgtype.Numeric
	err := row.Scan(&carryNum, &takeNum, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("game_bank seed row missing")
		}
		return nil, fmt.Errorf("scan game bank: %w", err)
	}

	if b.Carry, err = infra.NumericToInt64(carryNum); err != nil {
		return nil, fmt.Errorf("convert carry: %w", err)
	}
	if b.AdminTake, err = infra.NumericToInt64(takeNum); err != nil {
		return nil, fmt.Errorf("convert admin take: %w", err)
	}
	return &b, nil
}
