package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dosdraw/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (duplicate username, replayed settlement insert).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// PlayerRepository provides access to players.
type PlayerRepository interface {
	// FindByID returns a player by ID, or (nil, nil) when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error)

	// FindByUsername returns a player by exact username, or (nil, nil).
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Player, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the player.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error)

	// Create inserts a new player. Unique username violations surface as-is
	// for the caller to classify.
	Create(ctx context.Context, db DBTX, player *domain.Player) error

	// ApplyBalanceDelta adds delta to the balance with server-side
	// arithmetic and returns the updated row.
	ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta int64) (*domain.Player, error)

	// SetStatus updates the account status and returns the updated row.
	SetStatus(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, status domain.PlayerStatus) (*domain.Player, error)

	// Leaderboard returns ACTIVE players ordered by balance descending,
	// id ascending as tiebreak.
	Leaderboard(ctx context.Context, db DBTX, limit int) ([]domain.LeaderboardRow, error)
}

// LedgerRepository provides access to dos_ledger (append-only).
type LedgerRepository interface {
	// Insert appends a ledger entry and fills in ID and CreatedAt.
	Insert(ctx context.Context, db DBTX, entry *domain.LedgerEntry) error

	// ListByPlayer returns entries for a player, newest first.
	ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

// BetRepository provides access to bets.
type BetRepository interface {
	// Insert creates an unsettled bet and fills in ID and CreatedAt.
	Insert(ctx context.Context, db DBTX, bet *domain.Bet) error

	// LockUnsettledByRound locks all unsettled bets of a round in id order.
	LockUnsettledByRound(ctx context.Context, tx pgx.Tx, roundID int64) ([]domain.Bet, error)

	// UnsettledRoundIDs returns the distinct round ids below before that
	// still have unsettled bets, ascending, bounded by limit.
	UnsettledRoundIDs(ctx context.Context, db DBTX, before int64, limit int64) ([]int64, error)

	// MarkWinner stamps a settled winning bet with payout and category.
	MarkWinner(ctx context.Context, tx pgx.Tx, betID int64, payout int64, category domain.Category) error

	// SettleRemaining marks every still-unsettled bet of the round as
	// settled with zero payout. Returns the number of rows touched.
	SettleRemaining(ctx context.Context, tx pgx.Tx, roundID int64) (int64, error)
}

// GiftCodeRepository provides access to gift_codes.
type GiftCodeRepository interface {
	// Insert stores a new code (hash only).
	Insert(ctx context.Context, db DBTX, code *domain.GiftCode) error

	// LockByHash locks a code row by its hash, or (nil, nil) when absent.
	LockByHash(ctx context.Context, tx pgx.Tx, codeHash string) (*domain.GiftCode, error)

	// MarkRedeemed flips an ACTIVE code to REDEEMED.
	MarkRedeemed(ctx context.Context, tx pgx.Tx, codeID, playerID uuid.UUID) error
}

// RoundRepository provides access to round_results.
type RoundRepository interface {
	// LockResult returns the settled result under FOR UPDATE, or (nil, nil)
	// when the round is not settled yet.
	LockResult(ctx context.Context, tx pgx.Tx, roundID int64) (*domain.RoundResult, error)

	// GetResult is the non-locking read.
	GetResult(ctx context.Context, db DBTX, roundID int64) (*domain.RoundResult, error)

	// InsertResult writes the exactly-once settlement row.
	InsertResult(ctx context.Context, tx pgx.Tx, result *domain.RoundResult) error

	// LatestSettledRoundID returns the highest settled round id, or
	// (0, false) when nothing is settled yet.
	LatestSettledRoundID(ctx context.Context, db DBTX) (int64, bool, error)
}

// BankRepository provides access to game_bank and admin_ledger.
type BankRepository interface {
	// Lock locks the single bank row and returns it. This lock serializes
	// settlements.
	Lock(ctx context.Context, tx pgx.Tx) (*domain.Bank, error)

	// Get is the non-locking read.
	Get(ctx context.Context, db DBTX) (*domain.Bank, error)

	// Settle writes the new carry and accumulates the admin take.
	Settle(ctx context.Context, tx pgx.Tx, carry, adminTakeDelta int64) error

	// InsertEntry appends an admin_ledger audit row.
	InsertEntry(ctx context.Context, tx pgx.Tx, entry *domain.BankEntry) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
