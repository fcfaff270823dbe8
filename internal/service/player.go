package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/repository"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 200

	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// PlayerService handles signup, ledger reads, the leaderboard and the
// admin-side balance and status adjustments.
type PlayerService struct {
	pool        *pgxpool.Pool
	players     repository.PlayerRepository
	entries     repository.LedgerRepository
	outbox      repository.OutboxRepository
	engine      *ledger.Engine
	signupBonus int64
	logger      *slog.Logger
}

// NewPlayerService creates a PlayerService.
func NewPlayerService(
	pool *pgxpool.Pool,
	players repository.PlayerRepository,
	entries repository.LedgerRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	signupBonus int64,
	logger *slog.Logger,
) *PlayerService {
	return &PlayerService{
		pool:        pool,
		players:     players,
		entries:     entries,
		outbox:      outbox,
		engine:      engine,
		signupBonus: signupBonus,
		logger:      logger,
	}
}

// SignupInput holds the signup request fields.
type SignupInput struct {
	Username string `json:"username"`
}

// Signup creates a player and credits the signup bonus within a single
// transaction: both land or neither does.
func (s *PlayerService) Signup(ctx context.Context, input SignupInput) (*domain.Player, error) {
	username, err := domain.ValidateUsername(input.Username)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// Taken usernames are rejected before opening a transaction; the
	// unique constraint still decides concurrent signups.
	if existing, err := s.players.FindByUsername(ctx, s.pool, username); err != nil {
		return nil, domain.ErrInternal("find player", err)
	} else if existing != nil {
		return nil, domain.ErrConflict("username already taken")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	player := &domain.Player{
		ID:       uuid.New(),
		Username: username,
		Status:   domain.PlayerActive,
	}
	if err := s.players.Create(ctx, tx, player); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("username already taken")
		}
		return nil, domain.ErrInternal("create player", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewPlayerSignedUpEvent(player)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if s.signupBonus > 0 {
		// The row was inserted in this transaction; no separate lock needed.
		_, updated, err := s.engine.PostEntry(ctx, tx, player.ID, domain.LedgerBonusSignup, s.signupBonus, map[string]any{
			"reason": "signup bonus",
		})
		if err != nil {
			return nil, err
		}
		player = updated
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("player signed up", "player_id", player.ID, "username", username, "bonus", s.signupBonus)
	return player, nil
}

// Ledger returns a player's entries, newest first. limit is clamped to
// 1..200 with 50 as the default.
func (s *PlayerService) Ledger(ctx context.Context, playerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}

	player, err := s.players.FindByID(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("find player", err)
	}
	if player == nil {
		return nil, domain.ErrNotFound("player", playerID.String())
	}

	entries, err := s.entries.ListByPlayer(ctx, s.pool, playerID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list ledger", err)
	}
	return entries, nil
}

// Leaderboard returns the top ACTIVE players by balance, id as tiebreak.
// limit is clamped to 1..100 with 20 as the default.
func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	rows, err := s.players.Leaderboard(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrInternal("load leaderboard", err)
	}
	return rows, nil
}

// AdjustInput holds an admin balance adjustment: mode "add" applies a
// signed delta, mode "set" moves the balance to an absolute target.
type AdjustInput struct {
	Mode   string `json:"mode"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// AdminAdjust mutates a player balance on behalf of an operator. The
// matching ADMIN_ADD/ADMIN_SET ledger entry carries the delta actually
// applied, so balance == Σ ledger still holds after a "set".
func (s *PlayerService) AdminAdjust(ctx context.Context, playerID uuid.UUID, input AdjustInput) (*domain.Player, error) {
	if input.Mode != "add" && input.Mode != "set" {
		return nil, domain.ErrValidation("mode must be \"add\" or \"set\"")
	}
	if input.Mode == "set" && input.Amount < 0 {
		return nil, domain.ErrValidation("target balance must be >= 0")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	player, err := s.engine.LockPlayerForUpdate(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}

	var (
		delta int64
		kind  domain.LedgerKind
		meta  map[string]any
	)
	switch input.Mode {
	case "add":
		delta = input.Amount
		kind = domain.LedgerAdminAdd
		meta = map[string]any{}
		if player.Balance+delta < 0 {
			return nil, domain.ErrInsufficientBalance(player.Balance, -delta)
		}
	case "set":
		delta = input.Amount - player.Balance
		kind = domain.LedgerAdminSet
		meta = map[string]any{"mode": "set", "target": input.Amount}
	}
	if input.Reason != "" {
		meta["reason"] = input.Reason
	}

	_, updated, err := s.engine.PostEntry(ctx, tx, playerID, kind, delta, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("balance adjusted",
		"player_id", playerID, "mode", input.Mode, "delta", delta, "balance", updated.Balance)
	return updated, nil
}

// AdminSetStatus flips a player between ACTIVE and SUSPENDED and records
// a zero-amount ADMIN_STATUS audit entry. Setting the current status is a
// no-op.
func (s *PlayerService) AdminSetStatus(ctx context.Context, playerID uuid.UUID, status domain.PlayerStatus) (*domain.Player, error) {
	if !domain.ValidPlayerStatus(status) {
		return nil, domain.ErrValidation("status must be ACTIVE or SUSPENDED")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	player, err := s.engine.LockPlayerForUpdate(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	if player.Status == status {
		return player, nil
	}

	updated, err := s.players.SetStatus(ctx, tx, playerID, status)
	if err != nil {
		return nil, domain.ErrInternal("set status", err)
	}
	if _, _, err := s.engine.PostEntry(ctx, tx, playerID, domain.LedgerAdminStatus, 0, map[string]any{
		"from": player.Status,
		"to":   status,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("player status changed", "player_id", playerID, "from", player.Status, "to", status)
	return updated, nil
}
