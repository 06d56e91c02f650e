package auth

import (
	"strings"
	"testing"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTokenIssuer_MintVerify(t *testing.T) {
	clock := newClock()
	iss := NewTokenIssuer([]byte("k"), WithIssuer("placement"), WithClock(clock.Now))

	tok, err := iss.Mint(42, principal.RoleStudent, 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.SubjectID)
	assert.Equal(t, principal.RoleStudent, claims.Role)
	assert.True(t, clock.Now().Equal(claims.IssuedAt))
	assert.True(t, clock.Now().Add(DefaultAccessTTL).Equal(claims.ExpiresAt))
}

func TestTokenIssuer_Expiry(t *testing.T) {
	clock := newClock()
	iss := NewTokenIssuer([]byte("k"), WithClock(clock.Now))

	tok, err := iss.Mint(42, principal.RoleStudent, 30*time.Minute)
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	_, err = iss.Verify(tok)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, domainauth.ErrTokenExpired)
	assert.Equal(t, domainauth.KindTokenExpired, domainauth.KindOf(err))
}

func TestTokenIssuer_InvalidSignature(t *testing.T) {
	clock := newClock()
	a := NewTokenIssuer([]byte("k1"), WithClock(clock.Now))
	b := NewTokenIssuer([]byte("k2"), WithClock(clock.Now))

	tok, err := a.Mint(7, principal.RoleAdmin, 0)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalidSignature)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	clock := newClock()
	iss := NewTokenIssuer([]byte("k"), WithClock(clock.Now))

	claims := accessClaims{
		Role: "student",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalidSignature)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	clock := newClock()
	iss := NewTokenIssuer([]byte("k"), WithClock(clock.Now))

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "garbage", token: func() string { return "not-a-jwt" }},
		{name: "empty", token: func() string { return "" }},
		{name: "bad role", token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
				Role: "alumni",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "42",
					ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
				},
			}).SignedString([]byte("k"))
			return s
		}},
		{name: "no expiry", token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
				Role:             "student",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
			}).SignedString([]byte("k"))
			return s
		}},
		{name: "non numeric subject", token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
				Role: "student",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
				},
			}).SignedString([]byte("k"))
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token())
			assert.ErrorIs(t, err, domainauth.ErrTokenMalformed)
		})
	}
}

func TestTokenIssuer_IssuerMismatch(t *testing.T) {
	clock := newClock()
	a := NewTokenIssuer([]byte("k"), WithIssuer("a"), WithClock(clock.Now))
	b := NewTokenIssuer([]byte("k"), WithIssuer("b"), WithClock(clock.Now))

	tok, err := a.Mint(1, principal.RoleCompany, 0)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, domainauth.ErrTokenMalformed)
}
