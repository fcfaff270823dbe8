package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

func (r *betRepo) Insert(ctx context.Context, db DBTX, bet *domain.Bet) error {
	row := db.QueryRow(ctx, `
		INSERT INTO bets (player_id, round_id, nums, chance, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		bet.PlayerID,
		bet.RoundID,
		bet.Nums,
		bet.Chance,
		infra.Int64ToNumeric(bet.Amount),
	)
	if err := row.Scan(&bet.ID, &bet.CreatedAt); err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// LockUnsettledByRound orders by id so concurrent settles (already
// serialized by the bank lock) and any manual tooling take row locks in a
// stable order.
func (r *betRepo) LockUnsettledByRound(ctx context.Context, tx pgx.Tx, roundID int64) ([]domain.Bet, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, player_id, round_id, nums, chance, amount, payout, category, settled, created_at
		FROM bets
		WHERE round_id = $1 AND settled = false
		ORDER BY id ASC
		FOR UPDATE`, roundID)
	if err != nil {
		return nil, fmt.Errorf("lock bets: %w", err)
	}
	defer rows.Close()

	var out []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *betRepo) MarkWinner(ctx context.Context, tx pgx.Tx, betID int64, payout int64, category domain.Category) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bets SET settled = true, payout = $1, category = $2
		WHERE id = $3`,
		infra.Int64ToNumeric(payout), category, betID)
	if err != nil {
		return fmt.Errorf("mark winner: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("mark winner: bet %d not found", betID)
	}
	return nil
}

func (r *betRepo) UnsettledRoundIDs(ctx context.Context, db DBTX, before int64, limit int64) ([]int64, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT round_id
		FROM bets
		WHERE settled = false AND round_id < $1
		ORDER BY round_id ASC
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsettled rounds: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan round id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *betRepo) SettleRemaining(ctx context.Context, tx pgx.Tx, roundID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE bets SET settled = true
		WHERE round_id = $1 AND settled = false`, roundID)
	if err != nil {
		return 0, fmt.Errorf("settle remaining bets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	var amtNum, payoutNum pgtype.Numeric
	err := row.Scan(&b.ID, &b.PlayerID, &b.RoundID, &b.Nums, &b.Chance, &amtNum, &payoutNum, &b.Category, &b.Settled, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bet: %w", err)
	}

	if b.Amount, err = infra.NumericToInt64(amtNum); err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}
	if b.Payout, err = infra.NumericToInt64(payoutNum); err != nil {
		return nil, fmt.Errorf("convert payout: %w", err)
	}
	return &b, nil
}
