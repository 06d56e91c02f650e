package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	"github.com/NordCoder/Placement/internal/obs"
	"go.uber.org/zap"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "../config/auth-gateway.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting auth-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	metricsSrv := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, logger)

	outboxRelay, err := startOutbox(rootCtx, cfg, logger, db)
	if err != nil {
		logger.Fatal("outbox init", zap.Error(err))
	}

	httpSrv := buildHTTPServer(cfg, logger, db)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
		stop()
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	_ = metricsSrv.Shutdown(shCtx)
	outboxRelay.stop()

	logger.Info("bye")
}
