package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sing4u/song-request-api/internal/config"
	"github.com/sing4u/song-request-api/internal/domain"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs for two purposes: short-lived
// access tokens and long-lived refresh tokens. Each purpose has its own
// secret, so a leaked access secret can never forge refresh tokens and
// vice versa.
type Provider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if len(cfg.JWTAccessSecret) < 32 || len(cfg.JWTRefreshSecret) < 32 {
		return nil, errors.New("JWT secrets must be at least 32 bytes")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &Provider{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.JWTAccessTTL,
		refreshTTL:    cfg.JWTRefreshTTL,
	}, nil
}

// SignAccess mints an access token. Role is empty for regular users.
func (p *Provider) SignAccess(userID, role string) (string, error) {
	return sign(p.accessSecret, userID, role, p.accessTTL)
}

// SignRefresh mints a refresh token.
func (p *Provider) SignRefresh(userID string) (string, error) {
	return sign(p.refreshSecret, userID, "", p.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (p *Provider) VerifyAccess(tokenStr string) (*Claims, error) {
	return verify(p.accessSecret, tokenStr)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (p *Provider) VerifyRefresh(tokenStr string) (*Claims, error) {
	return verify(p.refreshSecret, tokenStr)
}

func sign(secret []byte, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verify collapses every failure mode (tampered signature, expiry, wrong
// purpose) into a single unauthorized error. Callers must not be able to
// tell an expired token from a forged one.
func verify(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}
