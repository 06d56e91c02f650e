package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultAccessTTL = 30 * time.Minute

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and checks HS256 access tokens. It depends only on the secret and the clock.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type IssuerOption func(*TokenIssuer)

func WithIssuer(iss string) IssuerOption { return func(t *TokenIssuer) { t.issuer = iss } }

func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTokenIssuer(secret []byte, opts ...IssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		secret: secret,
		ttl:    DefaultAccessTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Mint signs a token for the subject. A non-positive ttl falls back to the issuer default.
func (t *TokenIssuer) Mint(subjectID int64, role principal.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.ttl
	}
	now := t.now()
	claims := accessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) Verify(token string) (*domainauth.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims accessClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domainauth.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, domainauth.ErrTokenInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", domainauth.ErrTokenMalformed, err)
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sub <= 0 {
		return nil, fmt.Errorf("%w: bad subject", domainauth.ErrTokenMalformed)
	}
	role, err := principal.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: bad role", domainauth.ErrTokenMalformed)
	}

	out := &domainauth.AccessClaims{SubjectID: sub, Role: role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return out, nil
}
