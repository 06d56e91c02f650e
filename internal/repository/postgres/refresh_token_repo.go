package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
)

var _ auth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTCreate = `
INSERT INTO refresh_tokens (token_hash, principal_id, role, issued_at, expires_at, revoked)
VALUES ($1, $2, $3, $4, $5, FALSE)
RETURNING id;`

	// Only one of two concurrent consumers can flip revoked; the other gets no row.
	qRTConsume = `
UPDATE refresh_tokens
SET revoked = TRUE, revoke_reason = 'rotated', revoked_at = $2
WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
RETURNING id, token_hash, principal_id, role, issued_at, expires_at, revoked, revoke_reason, revoked_at;`

	// A rotated or already revoked row matches nothing and reads as not found.
	qRTRevoke = `
UPDATE refresh_tokens
SET revoked = TRUE, revoke_reason = 'logout', revoked_at = $2
WHERE token_hash = $1 AND revoked = FALSE;`

	qRTGet = `
SELECT id, token_hash, principal_id, role, issued_at, expires_at, revoked, revoke_reason, revoked_at
FROM refresh_tokens
WHERE token_hash = $1;`
)

type refreshTokenRow struct {
	ID           int64      `db:"id"`
	TokenHash    string     `db:"token_hash"`
	PrincipalID  int64      `db:"principal_id"`
	Role         string     `db:"role"`
	IssuedAt     time.Time  `db:"issued_at"`
	ExpiresAt    time.Time  `db:"expires_at"`
	Revoked      bool       `db:"revoked"`
	RevokeReason *string    `db:"revoke_reason"`
	RevokedAt    *time.Time `db:"revoked_at"`
}

func (r refreshTokenRow) toDomain() (*auth.RefreshToken, error) {
	role, err := principal.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("refresh token %d: %w", r.ID, err)
	}
	t := &auth.RefreshToken{
		ID:          r.ID,
		TokenHash:   r.TokenHash,
		PrincipalID: r.PrincipalID,
		Role:        role,
		IssuedAt:    r.IssuedAt,
		ExpiresAt:   r.ExpiresAt,
		Revoked:     r.Revoked,
		RevokedAt:   r.RevokedAt,
	}
	if r.RevokeReason != nil {
		t.RevokeReason = auth.RevokeReason(*r.RevokeReason)
	}
	return t, nil
}

func (r *RefreshTokenRepo) Create(ctx context.Context, t *auth.RefreshToken) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).
		QueryRow(ctx, qRTCreate, t.TokenHash, t.PrincipalID, t.Role.String(), t.IssuedAt, t.ExpiresAt).
		Scan(&t.ID)
	if err != nil {
		return classify("refresh create", err)
	}
	return nil
}

func (r *RefreshTokenRepo) ConsumeActive(ctx context.Context, tokenHash string, at time.Time) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row, err := queryOne[refreshTokenRow](ctx, r.db.execQueryer(ctx), qRTConsume, tokenHash, at)
	if err != nil {
		return nil, classify("refresh consume", err)
	}
	return row.toDomain()
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTRevoke, tokenHash, at)
	if err != nil {
		return classify("refresh revoke", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RefreshTokenRepo) Get(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row, err := queryOne[refreshTokenRow](ctx, r.db.execQueryer(ctx), qRTGet, tokenHash)
	if err != nil {
		return nil, classify("refresh get", err)
	}
	return row.toDomain()
}
