package postgres

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository errors are the domain sentinels so callers never import this package to classify.
var (
	ErrNotFound    = domainauth.ErrNotFound
	ErrConflict    = domainauth.ErrConflict
	ErrUnavailable = domainauth.ErrStoreUnavailable
)

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrConflict, pgErr.ConstraintName)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.QueryCanceled:
			return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
