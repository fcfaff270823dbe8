// Command settler runs round settlement as a standalone daemon: it catches
// up on unsettled finished rounds, then settles each round as it closes. It
// also audits the balance invariant on a timer (BALANCE_AUDIT_INTERVAL,
// default 10m, 0 disables). Run it instead of AUTO_SETTLE=true on the api
// when settlement should survive api deploys.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dosdraw/platform/internal/infra"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/projection"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
	"github.com/dosdraw/platform/internal/settlement"
)

const defaultAuditInterval = 10 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("settler failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.SecretSeed == "" {
		return fmt.Errorf("SECRET_SEED is not set; settlement cannot draw outcomes")
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("settler connected to postgres")

	clock := rounds.NewClock(cfg.RoundParams())

	playerRepo := repository.NewPlayerRepository()
	ledgerRepo := repository.NewLedgerRepository()
	betRepo := repository.NewBetRepository()
	roundRepo := repository.NewRoundRepository()
	bankRepo := repository.NewBankRepository()
	outboxRepo := repository.NewOutboxRepository()

	posting := ledger.NewEngine(playerRepo, ledgerRepo, outboxRepo)
	engine := settlement.NewEngine(pool, clock, cfg.SecretSeed, betRepo, roundRepo, bankRepo, posting, outboxRepo, logger)
	scheduler := settlement.NewScheduler(engine, clock, roundRepo, betRepo, pool, cfg.SettlePollInterval, logger)

	go scheduler.Start(ctx)

	auditInterval := defaultAuditInterval
	if s := os.Getenv("BALANCE_AUDIT_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse BALANCE_AUDIT_INTERVAL: %w", err)
		}
		auditInterval = d
	}

	if auditInterval > 0 {
		auditor := projection.NewAuditor(pool, logger)
		go func() {
			ticker := time.NewTicker(auditInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					mismatches, err := auditor.Audit(ctx)
					if err != nil {
						logger.Error("balance audit failed", "error", err)
						continue
					}
					if len(mismatches) == 0 {
						logger.Info("balance audit clean")
					}
				}
			}
		}()
	}

	<-ctx.Done()
	logger.Info("settler stopped")
	return nil
}
