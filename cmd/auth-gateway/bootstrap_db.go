package main

import (
	"context"

	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	pg "github.com/NordCoder/Placement/internal/repository/postgres"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected", zap.Duration("query_timeout", cfg.DB.QueryTimeout))
	return db, nil
}
