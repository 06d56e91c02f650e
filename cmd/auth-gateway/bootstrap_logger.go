package main

import (
	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	"github.com/NordCoder/Placement/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}
