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

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

const playerColumns = `id, username, balance, status, created_at`

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE username = $1`, username)
	return scanPlayer(row)
}

func (r *playerRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE id = $1 FOR UPDATE`, id)
	return scanPlayer(row)
}

func (r *playerRepo) Create(ctx context.Context, db DBTX, player *domain.Player) error {
	err := db.QueryRow(ctx, `
		INSERT INTO players (id, username, balance, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		player.ID,
		player.Username,
		infra.Int64ToNumeric(player.Balance),
		player.Status,
	).Scan(&player.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// ApplyBalanceDelta uses server-side arithmetic so concurrent settlements
// and bets never clobber each other's reads.
func (r *playerRepo) ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta int64) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `
		UPDATE players SET balance = balance + $1
		WHERE id = $2
		RETURNING `+playerColumns, infra.Int64ToNumeric(delta), playerID)
	return scanPlayer(row)
}

func (r *playerRepo) SetStatus(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, status domain.PlayerStatus) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `
		UPDATE players SET status = $1
		WHERE id = $2
		RETURNING `+playerColumns, status, playerID)
	return scanPlayer(row)
}

func (r *playerRepo) Leaderboard(ctx context.Context, db DBTX, limit int) ([]domain.LeaderboardRow, error) {
	rows, err := db.Query(ctx, `
		SELECT id, username, balance
		FROM players
		WHERE status = 'ACTIVE'
		ORDER BY balance DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LeaderboardRow, 0, limit)
	for rows.Next() {
		var lr domain.LeaderboardRow
		var balNum pgtype.Numeric
		if err := rows.Scan(&lr.ID, &lr.Username, &balNum); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if lr.Balance, err = infra.NumericToInt64(balNum); err != nil {
			return nil, fmt.Errorf("convert balance: %w", err)
		}
		lr.Rank = len(out) + 1
		out = append(out, lr)
	}
	return out, rows.Err()
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	var balNum pgtype.Numeric
	err := row.Scan(&p.ID, &p.Username, &balNum, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}

	if p.Balance, err = infra.NumericToInt64(balNum); err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}
	return &p, nil
}
