package auth

import (
	"context"
	"time"
)

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error
	// ConsumeActive revokes the row as rotated only if it is still active at the given time
	// and returns it. ErrNotFound means the token is unknown, already used, revoked or expired.
	ConsumeActive(ctx context.Context, tokenHash string, at time.Time) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	Get(ctx context.Context, tokenHash string) (*RefreshToken, error)
}
