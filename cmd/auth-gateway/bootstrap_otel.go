package main

import (
	"context"

	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	"github.com/NordCoder/Placement/internal/obs"
	"go.uber.org/zap"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("otel exporter enabled", zap.String("endpoint", cfg.OTEL.OTLPEndpoint))
	}
	return o.Shutdown, nil
}
