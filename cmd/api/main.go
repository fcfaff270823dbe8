package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dosdraw/platform/internal/app"
	"github.com/dosdraw/platform/internal/guard"
	"github.com/dosdraw/platform/internal/infra"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
	"github.com/dosdraw/platform/internal/settlement"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
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
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	clock := rounds.NewClock(cfg.RoundParams())

	redeemLimiter := guard.NewRateLimiter(cfg.RedeemMaxAttempts, time.Duration(cfg.RedeemWindowSeconds)*time.Second)
	go redeemLimiter.Start(ctx)

	// Outbox relay: rows are written transactionally by the services and
	// drained here. With Kafka disabled the poller is a no-op.
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	poller := infra.NewOutboxPoller(pool, producer, cfg.OutboxPollInterval, logger)
	poller.Start(ctx)

	if cfg.AutoSettle {
		betRepo := repository.NewBetRepository()
		roundRepo := repository.NewRoundRepository()
		bankRepo := repository.NewBankRepository()
		outboxRepo := repository.NewOutboxRepository()
		posting := ledger.NewEngine(repository.NewPlayerRepository(), repository.NewLedgerRepository(), outboxRepo)
		engine := settlement.NewEngine(pool, clock, cfg.SecretSeed, betRepo, roundRepo, bankRepo, posting, outboxRepo, logger)
		scheduler := settlement.NewScheduler(engine, clock, roundRepo, betRepo, pool, cfg.SettlePollInterval, logger)
		go scheduler.Start(ctx)
	}

	router := app.NewRouter(app.RouterDeps{
		Pool:        pool,
		Logger:      logger,
		Clock:       clock,
		Limiter:     redeemLimiter,
		AdminKey:    cfg.AdminKey,
		SecretSeed:  cfg.SecretSeed,
		SignupBonus: cfg.SignupBonusDOS,
		CORSOrigins: cfg.CORSOrigins(),
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
