package jwtinfra

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sing4u/song-request-api/internal/config"
	"github.com/sing4u/song-request-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTAccessSecret:  strings.Repeat("a", 32),
		JWTRefreshSecret: strings.Repeat("r", 32),
		JWTAccessTTL:     time.Hour,
		JWTRefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RejectsWeakConfig(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTAccessSecret: "short", JWTRefreshSecret: strings.Repeat("r", 32)})
	assert.Error(t, err)

	same := strings.Repeat("s", 32)
	_, err = NewProvider(&config.Config{JWTAccessSecret: same, JWTRefreshSecret: same})
	assert.Error(t, err)
}

func TestSignAndVerifyAccess(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.SignAccess("u1", "")
	require.NoError(t, err)

	claims, err := p.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Empty(t, claims.Role)
}

func TestVerify_PurposeSeparation(t *testing.T) {
	p := newTestProvider(t)

	access, err := p.SignAccess("u1", "")
	require.NoError(t, err)
	refresh, err := p.SignRefresh("u1")
	require.NoError(t, err)

	// A refresh token never passes access verification and vice versa.
	_, err = p.VerifyAccess(refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = p.VerifyRefresh(access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_ExpiredLooksLikeTampered(t *testing.T) {
	p := newTestProvider(t)

	expired := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(strings.Repeat("a", 32)))
	require.NoError(t, err)

	_, expiredErr := p.VerifyAccess(tok)
	_, forgedErr := p.VerifyAccess(tok + "x")
	assert.ErrorIs(t, expiredErr, domain.ErrUnauthorized)
	assert.ErrorIs(t, forgedErr, domain.ErrUnauthorized)
	// Same sentinel either way; no information leaks about which check failed.
	assert.True(t, errors.Is(expiredErr, domain.ErrUnauthorized) && errors.Is(forgedErr, domain.ErrUnauthorized))
}

func TestVerify_TamperedPayload(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.SignAccess("u1", "")
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1][:len(parts[1])-2] + "xx"

	_, err = p.VerifyAccess(strings.Join(parts, "."))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
