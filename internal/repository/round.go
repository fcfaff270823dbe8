package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

type roundRepo struct{}

// NewRoundRepository returns a pgx-backed RoundRepository.
func NewRoundRepository() RoundRepository {
	return &roundRepo{}
}

const roundResultColumns = `round_id, outcome, pot, admin_take, carry_in, carry_out, win_pool, winners, payout_total, settled_at`

func (r *roundRepo) LockResult(ctx context.Context, tx pgx.Tx, roundID int64) (*domain.RoundResult, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+roundResultColumns+`
		FROM round_results WHERE round_id = $1
		FOR UPDATE`, roundID)
	return scanRoundResult(row)
}

func (r *roundRepo) GetResult(ctx context.Context, db DBTX, roundID int64) (*domain.RoundResult, error) {
	row := db.QueryRow(ctx, `
		SELECT `+roundResultColumns+`
		FROM round_results WHERE round_id = $1`, roundID)
	return scanRoundResult(row)
}

func (r *roundRepo) InsertResult(ctx context.Context, tx pgx.Tx, result *domain.RoundResult) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO round_results (round_id, outcome, pot, admin_take, carry_in, carry_out, win_pool, winners, payout_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING settled_at`,
		result.RoundID,
		result.OutcomeJSON(),
		infra.Int64ToNumeric(result.Pot),
		infra.Int64ToNumeric(result.AdminTake),
		infra.Int64ToNumeric(result.CarryIn),
		infra.Int64ToNumeric(result.CarryOut),
		infra.Int64ToNumeric(result.WinPool),
		result.Winners,
		infra.Int64ToNumeric(result.PayoutTotal),
	)
	if err := row.Scan(&result.SettledAt); err != nil {
		return fmt.Errorf("insert round result: %w", err)
	}
	return nil
}

func (r *roundRepo) LatestSettledRoundID(ctx context.Context, db DBTX) (int64, bool, error) {
	// max() over an empty table returns NULL.
	var roundID *int64
	if err := db.QueryRow(ctx, `SELECT max(round_id) FROM round_results`).Scan(&roundID); err != nil {
		return 0, false, fmt.Errorf("query latest settled round: %w", err)
	}
	if roundID == nil {
		return 0, false, nil
	}
	return *roundID, true, nil
}

func scanRoundResult(row pgx.Row) (*domain.RoundResult, error) {
	var res domain.RoundResult
	var outcomeRaw json.RawMessage
	var pot, adminTake, carryIn, carryOut, winPool, payoutTotal pgtype.Numeric

	err := row.Scan(&res.RoundID, &outcomeRaw, &pot, &adminTake, &carryIn, &carryOut, &winPool, &res.Winners, &payoutTotal, &res.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan round result: %w", err)
	}

	if err := json.Unmarshal(outcomeRaw, &res.Outcome); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}

	conv := []struct {
		dst *int64
		src pgtype.Numeric
	}{
		{&res.Pot, pot},
		{&res.AdminTake, adminTake},
		{&res.CarryIn, carryIn},
		{&res.CarryOut, carryOut},
		{&res.WinPool, winPool},
		{&res.PayoutTotal, payoutTotal},
	}
	for _, c := range conv {
		v, err := infra.NumericToInt64(c.src)
		if err != nil {
			return nil, fmt.Errorf("convert round amount: %w", err)
		}
		*c.dst = v
	}
	return &res, nil
}
