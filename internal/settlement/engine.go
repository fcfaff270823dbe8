package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/metrics"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
)

// Engine settles rounds: it draws the outcome, classifies the round's
// bets, distributes the pot and writes the exactly-once result row. The
// FOR UPDATE lock on the single game_bank row serializes concurrent
// settlements; whoever waits on it finds the result row already written
// and returns it unchanged.
type Engine struct {
	pool    *pgxpool.Pool
	clock   *rounds.Clock
	seed    string
	bets    repository.BetRepository
	results repository.RoundRepository
	bank    repository.BankRepository
	posting *ledger.Engine
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewEngine creates a settlement engine.
func NewEngine(
	pool *pgxpool.Pool,
	clock *rounds.Clock,
	seed string,
	bets repository.BetRepository,
	results repository.RoundRepository,
	bank repository.BankRepository,
	posting *ledger.Engine,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		pool:    pool,
		clock:   clock,
		seed:    seed,
		bets:    bets,
		results: results,
		bank:    bank,
		posting: posting,
		outbox:  outbox,
		logger:  logger,
	}
}

// Result is the settlement response: the freshly written round result, or
// the previously written one when the round was already settled.
type Result struct {
	AlreadySettled bool                `json:"alreadySettled"`
	Round          *domain.RoundResult `json:"round"`
}

// Settle settles roundID, defaulting to the most recently finished round
// when nil. Calling it again for a settled round is a no-op that returns
// the recorded result.
func (e *Engine) Settle(ctx context.Context, roundID *int64) (*Result, error) {
	target := e.clock.CurrentRoundID() - 1
	if roundID != nil {
		target = *roundID
	}
	if target < 0 {
		return nil, domain.ErrValidation("roundId must be >= 0")
	}

	info := e.clock.ByID(target)
	if e.clock.NowMs() < info.EndMs {
		return nil, domain.ErrConflict("round not finished").WithDetails(map[string]any{
			"roundId":     target,
			"secondsLeft": info.SecondsLeft,
		})
	}
	if err := rounds.ValidateSeed(e.seed); err != nil {
		return nil, err
	}
	outcome, err := rounds.Draw(e.seed, target)
	if err != nil {
		return nil, err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	bankRow, err := e.bank.Lock(ctx, tx)
	if err != nil {
		return nil, domain.ErrInternal("lock bank", err)
	}
	carryIn := bankRow.Carry

	existing, err := e.results.LockResult(ctx, tx, target)
	if err != nil {
		return nil, domain.ErrInternal("lock round result", err)
	}
	if existing != nil {
		metrics.Game().ObserveSettlement("already_settled")
		return &Result{AlreadySettled: true, Round: existing}, nil
	}

	roundBets, err := e.bets.LockUnsettledByRound(ctx, tx, target)
	if err != nil {
		return nil, domain.ErrInternal("lock round bets", err)
	}

	plan := BuildPlan(roundBets, outcome, carryIn)

	if err := e.creditWinners(ctx, tx, target, plan.Wins); err != nil {
		return nil, err
	}
	for _, w := range plan.Wins {
		if err := e.bets.MarkWinner(ctx, tx, w.Bet.ID, w.Payout, w.Category); err != nil {
			return nil, domain.ErrInternal("mark winning bet", err)
		}
	}
	if _, err := e.bets.SettleRemaining(ctx, tx, target); err != nil {
		return nil, domain.ErrInternal("settle losing bets", err)
	}

	if err := e.bank.Settle(ctx, tx, plan.CarryOut, plan.Split.AdminTake); err != nil {
		return nil, domain.ErrInternal("update bank", err)
	}
	roundMeta, _ := json.Marshal(map[string]int64{"roundId": target})
	if err := e.bank.InsertEntry(ctx, tx, &domain.BankEntry{
		Kind: domain.BankCarry, Amount: plan.CarryOut, Meta: roundMeta,
	}); err != nil {
		return nil, domain.ErrInternal("insert carry audit entry", err)
	}
	if err := e.bank.InsertEntry(ctx, tx, &domain.BankEntry{
		Kind: domain.BankAdminTake, Amount: plan.Split.AdminTake, Meta: roundMeta,
	}); err != nil {
		return nil, domain.ErrInternal("insert admin take audit entry", err)
	}

	result := &domain.RoundResult{
		RoundID:     target,
		Outcome:     outcome,
		Pot:         plan.Split.Pot,
		AdminTake:   plan.Split.AdminTake,
		CarryIn:     carryIn,
		CarryOut:    plan.CarryOut,
		WinPool:     plan.Split.WinPool,
		Winners:     int32(len(plan.Wins)),
		PayoutTotal: plan.PayoutTotal,
	}
	if err := e.results.InsertResult(ctx, tx, result); err != nil {
		if repository.IsUniqueViolation(err) {
			return e.reloadSettled(ctx, tx, target)
		}
		return nil, domain.ErrInternal("insert round result", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewRoundSettledEvent(result)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	metrics.Game().ObserveSettlement("settled")
	metrics.Game().SetPot(plan.Split.Pot)
	metrics.Game().SetCarry(plan.CarryOut)

	e.logger.Info("round settled",
		"round_id", target,
		"pot", plan.Split.Pot,
		"bets", len(roundBets),
		"winners", len(plan.Wins),
		"payout_total", plan.PayoutTotal,
		"carry_in", carryIn,
		"carry_out", plan.CarryOut,
		"admin_take", plan.Split.AdminTake,
	)

	return &Result{Round: result}, nil
}

// creditWinners posts one aggregated WIN entry per winning player, in
// player id order so two settlements can never lock rows in opposite
// order.
func (e *Engine) creditWinners(ctx context.Context, tx pgx.Tx, roundID int64, wins []Win) error {
	type playerWins struct {
		total int64
		items []map[string]any
	}
	byPlayer := make(map[uuid.UUID]*playerWins)
	order := make([]uuid.UUID, 0)
	for _, w := range wins {
		pw, ok := byPlayer[w.Bet.PlayerID]
		if !ok {
			pw = &playerWins{}
			byPlayer[w.Bet.PlayerID] = pw
			order = append(order, w.Bet.PlayerID)
		}
		pw.total += w.Payout
		pw.items = append(pw.items, map[string]any{
			"betId":    w.Bet.ID,
			"category": w.Category,
			"payout":   w.Payout,
		})
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].String() < order[j].String()
	})

	for _, pid := range order {
		pw := byPlayer[pid]
		if _, err := e.posting.LockPlayerForUpdate(ctx, tx, pid); err != nil {
			return fmt.Errorf("lock winner %s: %w", pid, err)
		}
		meta := map[string]any{"roundId": roundID, "wins": pw.items}
		if _, _, err := e.posting.PostEntry(ctx, tx, pid, domain.LedgerWin, pw.total, meta); err != nil {
			return fmt.Errorf("credit winner %s: %w", pid, err)
		}
	}
	return nil
}

// reloadSettled handles the insert race lost outside the bank lock: drop
// the transaction and surface the winner's row.
func (e *Engine) reloadSettled(ctx context.Context, tx pgx.Tx, roundID int64) (*Result, error) {
	tx.Rollback(ctx)
	existing, err := e.results.GetResult(ctx, e.pool, roundID)
	if err != nil || existing == nil {
		return nil, domain.ErrInternal("reload settled round", err)
	}
	metrics.Game().ObserveSettlement("already_settled")
	return &Result{AlreadySettled: true, Round: existing}, nil
}
