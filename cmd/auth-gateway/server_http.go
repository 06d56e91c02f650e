package main

import (
	"net/http"
	"time"

	authcore "github.com/NordCoder/Placement/internal/auth"
	config "github.com/NordCoder/Placement/internal/config/auth-gateway"
	pg "github.com/NordCoder/Placement/internal/repository/postgres"
	authsvc "github.com/NordCoder/Placement/internal/services/auth-gateway/auth"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB) *http.Server {
	tx := pg.NewTransactor(db, logger)
	now := func() time.Time { return time.Now().UTC() }

	uc := authsvc.NewUseCase(authsvc.Deps{
		Principals: pg.NewPrincipalRepo(db),
		Hasher:     authcore.NewBcryptHasher(cfg.Auth.BcryptCost),
		Issuer: authcore.NewTokenIssuer([]byte(cfg.Auth.JWTSecret),
			authcore.WithIssuer(cfg.Auth.Issuer),
			authcore.WithAccessTTL(cfg.Auth.AccessTTL),
		),
		Ledger:     authcore.NewLedger(pg.NewRefreshTokenRepo(db), tx, cfg.Auth.RefreshTTL, now),
		Transactor: tx,
		Outbox:     pg.NewOutboxRepo(db),
		Logger:     logger,
	}, authsvc.Config{AccessTTL: cfg.Auth.AccessTTL, Now: now})

	mux := http.NewServeMux()
	authsvc.NewServer(uc, logger).Routes(mux)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           authsvc.AccessLog(logger, mux),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
