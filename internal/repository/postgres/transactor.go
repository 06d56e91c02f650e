package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

var _ Transactor = (*transactorImpl)(nil)

type transactorImpl struct {
	db     *DB
	logger *zap.Logger
}

func NewTransactor(db *DB, logger *zap.Logger) *transactorImpl {
	return &transactorImpl{
		db:     db,
		logger: logger,
	}
}

// WithTx commits when function returns nil and rolls back otherwise, panics included.
// A call nested inside another WithTx joins the outer transaction and leaves the
// commit to it.
func (t *transactorImpl) WithTx(ctx context.Context, function func(ctx context.Context) error) (txErr error) {
	if _, err := extractTx(ctx); err == nil {
		return function(ctx)
	}

	tx, err := t.db.Pool.Begin(ctx)
	if err != nil {
		return classify("begin tx", err)
	}
	ctxWithTx := context.WithValue(ctx, txInjector{}, tx)

	defer func() {
		if p := recover(); p != nil {
			t.rollback(tx)
			panic(p)
		}
		if txErr != nil {
			t.rollback(tx)
			return
		}
		if err := tx.Commit(ctx); err != nil {
			t.logger.Error("commit", zap.Error(err))
			txErr = classify("commit tx", err)
		}
	}()

	return function(ctxWithTx)
}

// rollback runs on a detached context so a cancelled request still releases its locks.
func (t *transactorImpl) rollback(tx pgx.Tx) {
	if err := tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		t.logger.Error("rollback", zap.Error(err))
	}
}

type txInjector struct{}

var ErrTxNotFound = errors.New("tx not found in context")

func extractTx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txInjector{}).(pgx.Tx)

	if !ok {
		return nil, ErrTxNotFound
	}

	return tx, nil
}

// InTx reports whether ctx carries a transaction opened by WithTx.
func InTx(ctx context.Context) bool {
	_, err := extractTx(ctx)
	return err == nil
}

type execQueryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (db *DB) execQueryer(ctx context.Context) execQueryer {
	if tx, err := extractTx(ctx); err == nil && tx != nil {
		return tx
	}
	return db.Pool
}

func requireTx(ctx context.Context, op string) error {
	if !InTx(ctx) {
		return fmt.Errorf("%s: %w", op, ErrTxNotFound)
	}
	return nil
}
