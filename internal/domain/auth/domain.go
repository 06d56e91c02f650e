package auth

import (
	"time"

	"github.com/NordCoder/Placement/internal/domain/principal"
)

type AccessClaims struct {
	SubjectID int64
	Role      principal.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type RevokeReason string

const (
	ReasonRotated RevokeReason = "rotated"
	ReasonLogout  RevokeReason = "logout"
)

type TokenState int

const (
	StateActive TokenState = iota
	StateRotated
	StateRevoked
	StateExpired
)

func (s TokenState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRotated:
		return "rotated"
	case StateRevoked:
		return "revoked"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// RefreshToken is a ledger row. Only the sha256 of the raw token is ever stored.
type RefreshToken struct {
	ID           int64
	TokenHash    string
	PrincipalID  int64
	Role         principal.Role
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Revoked      bool
	RevokeReason RevokeReason
	RevokedAt    *time.Time
}

// State is evaluated lazily; expiry needs no sweeper.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.Revoked && t.RevokeReason == ReasonRotated:
		return StateRotated
	case t.Revoked:
		return StateRevoked
	case !now.Before(t.ExpiresAt):
		return StateExpired
	default:
		return StateActive
	}
}

// TokenPair is handed back to clients after login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	PrincipalID  int64
	Role         principal.Role
}
