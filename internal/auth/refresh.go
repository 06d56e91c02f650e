package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
)

const (
	DefaultRefreshTTL = 30 * 24 * time.Hour
	refreshTokenBytes = 32
)

func GenerateRawToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

// Ledger owns the refresh token lifecycle: issue, single use rotation and logout.
type Ledger struct {
	repo domainauth.RefreshTokenRepo
	tx   Transactor
	ttl  time.Duration
	now  func() time.Time
}

func NewLedger(repo domainauth.RefreshTokenRepo, tx Transactor, ttl time.Duration, now func() time.Time) *Ledger {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ledger{repo: repo, tx: tx, ttl: ttl, now: now}
}

func (l *Ledger) Issue(ctx context.Context, principalID int64, role principal.Role) (string, error) {
	raw, _, err := l.issue(ctx, principalID, role, l.now())
	return raw, err
}

func (l *Ledger) issue(ctx context.Context, principalID int64, role principal.Role, now time.Time) (string, *domainauth.RefreshToken, error) {
	raw, err := GenerateRawToken(refreshTokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("gen refresh: %w", err)
	}
	rec := &domainauth.RefreshToken{
		TokenHash:   HashToken(raw),
		PrincipalID: principalID,
		Role:        role,
		IssuedAt:    now,
		ExpiresAt:   now.Add(l.ttl),
	}
	if err := l.repo.Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("save refresh: %w", err)
	}
	return raw, rec, nil
}

// Rotate spends the presented token and issues its successor in one transaction.
// Of two concurrent rotations of the same token exactly one succeeds.
func (l *Ledger) Rotate(ctx context.Context, raw string) (string, *domainauth.RefreshToken, error) {
	if raw == "" {
		return "", nil, domainauth.ErrInvalidRefreshToken
	}
	now := l.now()

	var (
		next string
		rec  *domainauth.RefreshToken
	)
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		prev, err := l.repo.ConsumeActive(ctx, HashToken(raw), now)
		if errors.Is(err, domainauth.ErrNotFound) {
			return domainauth.ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}
		next, rec, err = l.issue(ctx, prev.PrincipalID, prev.Role, now)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return next, rec, nil
}

// Revoke ends an active token. Unknown, rotated and already revoked tokens report ErrNotFound.
func (l *Ledger) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return domainauth.ErrNotFound
	}
	return l.repo.Revoke(ctx, HashToken(raw), l.now())
}

// Inspect reports the lifecycle state of a token without changing it.
func (l *Ledger) Inspect(ctx context.Context, raw string) (domainauth.TokenState, error) {
	rec, err := l.repo.Get(ctx, HashToken(raw))
	if err != nil {
		return 0, err
	}
	return rec.State(l.now()), nil
}
