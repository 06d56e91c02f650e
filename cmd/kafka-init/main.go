package main

import (
	"context"
	"os"
	"time"

	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	"github.com/NordCoder/Placement/internal/obs"
	"github.com/NordCoder/Placement/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init creates the account events topic ahead of the gateway, for deployments
// where the gateway itself may not create topics.
func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "../config/auth-gateway.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{
		Name:          cfg.Kafka.Topic,
		NumPartitions: cfg.Kafka.Partitions,
		MaxWait:       30 * time.Second,
	}, log); err != nil {
		log.Fatal("ensure topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}
	log.Info("kafka-init ok", zap.String("topic", cfg.Kafka.Topic))
}
