package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/sing4u/song-request-api/internal/infrastructure/jwt"
)

type contextKey string

const (
	ClaimsKey       contextKey = "claims"
	RefreshTokenKey contextKey = "refreshToken"
)

type accessVerifier interface {
	VerifyAccess(token string) (*jwtinfra.Claims, error)
}

type refreshVerifier interface {
	VerifyRefresh(token string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer access token and injects
// its claims into the request context.
func Auth(provider accessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.VerifyAccess(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RefreshAuth validates the Bearer refresh token. The raw token string is
// kept in the context alongside the claims: rotation compares it against the
// stored one, so the handler needs the exact bytes the client presented.
func RefreshAuth(provider refreshVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.VerifyRefresh(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, RefreshTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}

// RefreshTokenFromContext extracts the raw refresh token stored by RefreshAuth.
func RefreshTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(RefreshTokenKey).(string)
	return t, ok
}
