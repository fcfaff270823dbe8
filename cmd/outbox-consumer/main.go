// Command outbox-consumer relays event_outbox rows to Kafka on its own
// schedule. Run it when the api's in-process poller is not enough (multiple
// api instances, or draining a backlog). With KAFKA_CONSUME_SETTLED=true it
// also tails the round-settled topic and logs each settlement, which is a
// cheap way to watch a cluster converge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
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

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox-consumer connected to postgres")

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	poller := infra.NewOutboxPoller(pool, producer, cfg.OutboxPollInterval, logger)
	poller.Start(ctx)

	if os.Getenv("KAFKA_CONSUME_SETTLED") == "true" && producer.Enabled() {
		consumer := infra.NewKafkaConsumer(
			cfg.KafkaBrokers,
			string(domain.EventRoundSettled),
			"ddj-outbox-consumer",
			cfg.KafkaEnabled,
			logger,
		)
		defer consumer.Close()

		go func() {
			for {
				msg, err := consumer.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Error("consume settled event", "error", err)
					continue
				}
				logger.Info("round settled event consumed",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"key", string(msg.Key),
				)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("outbox-consumer shutting down")
	return nil
}
