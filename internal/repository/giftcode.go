package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

type giftCodeRepo struct{}

// NewGiftCodeRepository returns a pgx-backed GiftCodeRepository.
func NewGiftCodeRepository() GiftCodeRepository {
	return &giftCodeRepo{}
}

func (r *giftCodeRepo) Insert(ctx context.Context, db DBTX, code *domain.GiftCode) error {
	err := db.QueryRow(ctx, `
		INSERT INTO gift_codes (id, code_hash, value, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		code.ID,
		code.CodeHash,
		infra.Int64ToNumeric(code.Value),
		code.Status,
		code.ExpiresAt,
	).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert gift code: %w", err)
	}
	return nil
}

func (r *giftCodeRepo) LockByHash(ctx context.Context, tx pgx.Tx, codeHash string) (*domain.GiftCode, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, code_hash, value, status, expires_at, redeemed_by, redeemed_at, created_at
		FROM gift_codes
		WHERE code_hash = $1
		FOR UPDATE`, codeHash)

	var g domain.GiftCode
	var valNum pgtype.Numeric
	err := row.Scan(&g.ID, &g.CodeHash, &valNum, &g.Status, &g.ExpiresAt, &g.RedeemedBy, &g.RedeemedAt, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan gift code: %w", err)
	}

	if g.Value, err = infra.NumericToInt64(valNum); err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}
	return &g, nil
}

func (r *giftCodeRepo) MarkRedeemed(ctx context.Context, tx pgx.Tx, codeID, playerID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE gift_codes
		SET status = $1, redeemed_by = $2, redeemed_at = now()
		WHERE id = $3 AND status = $4`,
		domain.GiftCodeRedeemed, playerID, codeID, domain.GiftCodeActive)
	if err != nil {
		return fmt.Errorf("mark redeemed: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("mark redeemed: code %s not active", codeID)
	}
	return nil
}
