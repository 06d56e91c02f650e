package postgres

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rtColumns = []string{
	"id", "token_hash", "principal_id", "role", "issued_at", "expires_at", "revoked", "revoke_reason", "revoked_at",
}

func TestRefreshTokenRepo_Create(t *testing.T) {
	mock, db := newMockDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := &domainauth.RefreshToken{
		TokenHash: "h1", PrincipalID: 42, Role: principal.RoleStudent,
		IssuedAt: now, ExpiresAt: now.Add(720 * time.Hour),
	}

	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WithArgs("h1", int64(42), "student", now, now.Add(720*time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))

	require.NoError(t, NewRefreshTokenRepo(db).Create(context.Background(), tok))
	assert.Equal(t, int64(5), tok.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepo_ConsumeActive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active token is spent", func(t *testing.T) {
		mock, db := newMockDB(t)
		reason := "rotated"
		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("h1", now).
			WillReturnRows(pgxmock.NewRows(rtColumns).
				AddRow(int64(5), "h1", int64(42), "student", now.Add(-time.Hour), now.Add(time.Hour), true, &reason, &now))

		got, err := NewRefreshTokenRepo(db).ConsumeActive(ctx, "h1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.PrincipalID)
		assert.Equal(t, principal.RoleStudent, got.Role)
		assert.Equal(t, domainauth.StateRotated, got.State(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("spent, revoked or expired token yields not found", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("h1", now).
			WillReturnRows(pgxmock.NewRows(rtColumns))

		_, err := NewRefreshTokenRepo(db).ConsumeActive(ctx, "h1", now)
		assert.ErrorIs(t, err, domainauth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRefreshTokenRepo_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("known", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectExec("UPDATE refresh_tokens").WithArgs("h1", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, NewRefreshTokenRepo(db).Revoke(ctx, "h1", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectExec("UPDATE refresh_tokens").WithArgs("nope", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, NewRefreshTokenRepo(db).Revoke(ctx, "nope", now), domainauth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second revoke of the same token", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectExec(`WHERE token_hash = \$1 AND revoked = FALSE`).WithArgs("h1", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`WHERE token_hash = \$1 AND revoked = FALSE`).WithArgs("h1", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewRefreshTokenRepo(db)
		require.NoError(t, repo.Revoke(ctx, "h1", now))
		assert.ErrorIs(t, repo.Revoke(ctx, "h1", now), domainauth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRefreshTokenRepo_GetRejectsUnknownRole(t *testing.T) {
	mock, db := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, token_hash").WithArgs("h1").
		WillReturnRows(pgxmock.NewRows(rtColumns).
			AddRow(int64(1), "h1", int64(42), "alumni", now, now, false, (*string)(nil), (*time.Time)(nil)))

	_, err := NewRefreshTokenRepo(db).Get(context.Background(), "h1")
	assert.ErrorIs(t, err, principal.ErrUnsupportedRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}
