package main

import (
	"os"

	"github.com/NordCoder/Placement/internal/obs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	log, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "migrator"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.Up(db, dir); err != nil {
		log.Fatal("migrate up", zap.String("dir", dir), zap.Error(err))
	}
	version, err := goose.GetDBVersion(db)
	if err != nil {
		log.Warn("read schema version", zap.Error(err))
	}
	log.Info("migrations applied", zap.String("dir", dir), zap.Int64("version", version))
}
