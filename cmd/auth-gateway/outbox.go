package main

import (
	"context"

	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	"github.com/NordCoder/Placement/internal/obs/retry"
	"github.com/NordCoder/Placement/internal/outbox"
	"github.com/NordCoder/Placement/internal/repository/kafka"
	pg "github.com/NordCoder/Placement/internal/repository/postgres"
	"go.uber.org/zap"
)

type relay struct {
	cancel   context.CancelFunc
	runner   *outbox.Runner
	producer *kafka.Producer
}

// stop is safe on a relay that never started.
func (r *relay) stop() {
	if r.runner == nil {
		return
	}
	r.cancel()
	r.runner.Wait()
	_ = r.producer.Close()
}

// startOutbox relays account_registered rows to Kafka when the outbox is enabled.
func startOutbox(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *pg.DB) (*relay, error) {
	if !cfg.Outbox.Enable {
		logger.Info("outbox relay disabled")
		return &relay{}, nil
	}

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{
		Name:          cfg.Kafka.Topic,
		NumPartitions: cfg.Kafka.Partitions,
	}, logger); err != nil {
		return nil, err
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	dispatch := outbox.MakeGlobalOutboxHandler(kafka.NewAccountEventsKafka(producer), retry.DefaultKafkaPolicy(logger))

	runner := outbox.NewOutboxRunner(logger, pg.NewOutboxRepo(db), dispatch,
		cfg.Outbox.Workers, cfg.Outbox.BatchSize, cfg.Outbox.Wait, cfg.Outbox.InProgressTTL)

	rctx, cancel := context.WithCancel(ctx)
	runner.Start(rctx)
	logger.Info("outbox relay started", zap.Int("workers", cfg.Outbox.Workers), zap.String("topic", cfg.Kafka.Topic))

	return &relay{cancel: cancel, runner: runner, producer: producer}, nil
}
