package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
)

// defaultCatchUpLimit bounds how many rounds a single tick settles, so a
// scheduler coming back from a long outage drains the backlog over
// several ticks instead of holding the bank lock for minutes.
const defaultCatchUpLimit = 32

// Scheduler drives automatic settlement: every tick it settles the
// finished rounds that have no result row yet, resuming from the last
// recorded result.
type Scheduler struct {
	engine       *Engine
	clock        *rounds.Clock
	results      repository.RoundRepository
	bets         repository.BetRepository
	pool         *pgxpool.Pool
	interval     time.Duration
	catchUpLimit int64
	logger       *slog.Logger
}

// NewScheduler creates a settlement scheduler ticking at interval.
func NewScheduler(
	engine *Engine,
	clock *rounds.Clock,
	results repository.RoundRepository,
	bets repository.BetRepository,
	pool *pgxpool.Pool,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		engine:       engine,
		clock:        clock,
		results:      results,
		bets:         bets,
		pool:         pool,
		interval:     interval,
		catchUpLimit: defaultCatchUpLimit,
		logger:       logger,
	}
}

// Start runs the settle loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("settlement scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlement scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("settlement tick failed", "error", err)
			}
		}
	}
}

// RunOnce settles pending rounds up to the catch-up bound and returns how
// many rounds it settled. On a fresh database it starts at the most
// recently finished round; there is no history to re-settle. Rounds below
// the high-water mark that still hold unsettled stakes (a manual settle of
// a later round leaves them behind) are swept first.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	last := s.clock.CurrentRoundID() - 1
	if last < 0 {
		return 0, nil
	}

	from := last
	latest, ok, err := s.results.LatestSettledRoundID(ctx, s.pool)
	if err != nil {
		return 0, err
	}
	if ok {
		from = latest + 1
	}

	budget := s.catchUpLimit
	settled := 0

	stranded, err := s.bets.UnsettledRoundIDs(ctx, s.pool, from, budget)
	if err != nil {
		return 0, err
	}
	for _, r := range stranded {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		res, err := s.engine.Settle(ctx, &r)
		if err != nil {
			return settled, err
		}
		if !res.AlreadySettled {
			s.logger.Warn("settled stranded round", "round_id", r)
			settled++
		}
	}
	budget -= int64(len(stranded))

	if from > last || budget <= 0 {
		return settled, nil
	}
	to := last
	if to-from+1 > budget {
		to = from + budget - 1
	}

	for r := from; r <= to; r++ {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		res, err := s.engine.Settle(ctx, &r)
		if err != nil {
			return settled, err
		}
		if !res.AlreadySettled {
			settled++
		}
	}
	return settled, nil
}
