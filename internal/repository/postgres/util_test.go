package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: domainauth.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: domainauth.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: domainauth.ErrConflict},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: domainauth.ErrStoreUnavailable},
		{name: "too many connections", err: &pgconn.PgError{Code: pgerrcode.TooManyConnections}, want: domainauth.ErrStoreUnavailable},
		{name: "admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, want: domainauth.ErrStoreUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: domainauth.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}

	t.Run("other errors pass through wrapped", func(t *testing.T) {
		base := errors.New("boom")
		err := classify("op", base)
		assert.ErrorIs(t, err, base)
		assert.Equal(t, domainauth.KindInternal, domainauth.KindOf(err))
	})

	t.Run("check violation is not a conflict", func(t *testing.T) {
		err := classify("op", &pgconn.PgError{Code: pgerrcode.CheckViolation})
		assert.NotErrorIs(t, err, domainauth.ErrConflict)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classify("op", nil))
	})
}
