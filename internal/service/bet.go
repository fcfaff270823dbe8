package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/metrics"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
)

// BetService validates and places bets against the current round.
type BetService struct {
	pool   *pgxpool.Pool
	clock  *rounds.Clock
	bets   repository.BetRepository
	outbox repository.OutboxRepository
	engine *ledger.Engine
	logger *slog.Logger
}

// NewBetService creates a BetService.
func NewBetService(
	pool *pgxpool.Pool,
	clock *rounds.Clock,
	bets repository.BetRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		pool:   pool,
		clock:  clock,
		bets:   bets,
		outbox: outbox,
		engine: engine,
		logger: logger,
	}
}

// PlaceBetInput holds the bet request fields.
type PlaceBetInput struct {
	PlayerID string  `json:"playerId"`
	Nums     []int32 `json:"nums"`
	Chance   int32   `json:"chance"`
	Amount   int64   `json:"amount"`
}

// PlaceBetResult is the accepted bet plus the balance after the debit.
type PlaceBetResult struct {
	Bet     *domain.Bet `json:"bet"`
	Balance int64       `json:"balance"`
}

// PlaceBet runs the full pipeline: validate, gate on the betting window,
// then debit and insert within one transaction. The bet is stamped with
// the round id current at validation time.
func (s *BetService) PlaceBet(ctx context.Context, input PlaceBetInput) (*PlaceBetResult, error) {
	playerID, err := uuid.Parse(input.PlayerID)
	if err != nil {
		metrics.Game().ObserveBetRejected("validation")
		return nil, domain.ErrValidation("playerId must be a UUID")
	}
	nums, err := domain.NormalizeBetNums(input.Nums)
	if err != nil {
		metrics.Game().ObserveBetRejected("validation")
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateChance(input.Chance); err != nil {
		metrics.Game().ObserveBetRejected("validation")
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateStake(input.Amount); err != nil {
		metrics.Game().ObserveBetRejected("validation")
		return nil, domain.ErrValidation(err.Error())
	}

	info := s.clock.Current()
	if !info.BetsOpen {
		metrics.Game().ObserveBetRejected("bets_closed")
		return nil, domain.ErrConflict("bets closed").WithDetails(map[string]any{
			"roundId":    info.RoundID,
			"secToClose": info.SecondsToClose,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	player, err := s.engine.LockPlayerForUpdate(ctx, tx, playerID)
	if err != nil {
		metrics.Game().ObserveBetRejected("player_not_found")
		return nil, err
	}
	if player.Status != domain.PlayerActive {
		metrics.Game().ObserveBetRejected("suspended")
		return nil, domain.ErrForbidden("player is suspended")
	}
	if player.Balance < input.Amount {
		metrics.Game().ObserveBetRejected("insufficient_balance")
		return nil, domain.ErrInsufficientBalance(player.Balance, input.Amount)
	}

	bet := &domain.Bet{
		PlayerID: playerID,
		RoundID:  info.RoundID,
		Nums:     nums,
		Chance:   input.Chance,
		Amount:   input.Amount,
	}
	if err := s.bets.Insert(ctx, tx, bet); err != nil {
		return nil, domain.ErrInternal("insert bet", err)
	}

	_, updated, err := s.engine.PostEntry(ctx, tx, playerID, domain.LedgerBet, -input.Amount, map[string]any{
		"betId":   bet.ID,
		"roundId": info.RoundID,
		"choice":  domain.FormatChoice(nums, input.Chance),
	})
	if err != nil {
		return nil, err
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewBetPlacedEvent(bet)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	metrics.Game().ObserveBetPlaced()
	s.logger.Info("bet placed",
		"bet_id", bet.ID,
		"player_id", playerID,
		"round_id", info.RoundID,
		"amount", input.Amount,
		"choice", domain.FormatChoice(nums, input.Chance),
	)

	return &PlaceBetResult{Bet: bet, Balance: updated.Balance}, nil
}
