package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sing4u/song-request-api/internal/domain"
	"github.com/sing4u/song-request-api/internal/infrastructure/dynamo"
	"github.com/sing4u/song-request-api/internal/infrastructure/google"
	"github.com/sing4u/song-request-api/internal/infrastructure/smtp"
	"github.com/sing4u/song-request-api/internal/pkg/code"
	"github.com/sing4u/song-request-api/internal/pkg/id"
)

const (
	emailCodeLength   = 6
	emailCodeValidity = 10 * time.Minute
	// How long a code row survives in storage before the TTL reaper takes
	// it. Longer than the validity window on purpose: expiry is enforced at
	// read time, the TTL is only cleanup.
	emailCodeRetention = time.Hour

	emailCodeSubject = "sing4u verification code"
)

// TokenPair is an access token plus the refresh token that can renew it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service interface {
	RegisterEmail(ctx context.Context, req domain.RegisterEmailRequest) (*TokenPair, error)
	LoginEmail(ctx context.Context, email, password string) (*TokenPair, error)
	LoginSocial(ctx context.Context, req domain.SocialLoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, userID, presentedToken string) (*TokenPair, error)
	SendEmailCode(ctx context.Context, email string) error
	VerifyEmailCode(ctx context.Context, email, codeValue string) (accessToken string, err error)
	ChangePasswordByCode(ctx context.Context, userID, newPassword string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User, claims []string) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.EmailCode) error
	Get(ctx context.Context, email string) (*domain.EmailCode, error)
}

type tokenProvider interface {
	SignAccess(userID, role string) (string, error)
	SignRefresh(userID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

type ServiceDeps struct {
	Users  userStore
	Codes  codeStore
	Tokens tokenProvider
	Google googleVerifier
	Hasher passwordHasher
	Mailer smtp.Mailer
}

type service struct {
	users  userStore
	codes  codeStore
	tokens tokenProvider
	google googleVerifier
	hasher passwordHasher
	mailer smtp.Mailer
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.Users,
		codes:  deps.Codes,
		tokens: deps.Tokens,
		google: deps.Google,
		hasher: deps.Hasher,
		mailer: deps.Mailer,
	}
}

func (s *service) RegisterEmail(ctx context.Context, req domain.RegisterEmailRequest) (*TokenPair, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Provider:     domain.ProviderEmail,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Status:       domain.StatusClosed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// No existence pre-check: the claim item's condition expression is the
	// only duplicate signal, so two racing registrations can't both win.
	if err := s.users.Create(ctx, u, []string{dynamo.EmailClaim(req.Email)}); err != nil {
		return nil, err
	}
	return s.mintPair(ctx, u.UserID)
}

func (s *service) LoginEmail(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Provider != domain.ProviderEmail {
		return nil, fmt.Errorf("no email account for %s: %w", email, domain.ErrNotFound)
	}
	ok, err := s.hasher.Verify(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("wrong password: %w", domain.ErrUnauthorized)
	}
	return s.mintPair(ctx, u.UserID)
}

func (s *service) LoginSocial(ctx context.Context, req domain.SocialLoginRequest) (*TokenPair, error) {
	payload, err := s.google.Verify(ctx, req.ProviderAccessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByProvider(ctx, domain.ProviderGoogle, payload.Sub)
	switch {
	case err == nil:
		// returning social user
	case errors.Is(err, domain.ErrNotFound):
		// First social login creates the account. An email already claimed
		// by a different-method account is a conflict, never a merge.
		if payload.Email == "" {
			// Without an email the uniqueness claim would degenerate to a
			// single shared marker for every email-less Google account.
			return nil, fmt.Errorf("google token carries no email: %w", domain.ErrUnauthorized)
		}
		now := time.Now().UTC()
		u = &domain.User{
			UserID:     id.New(),
			Provider:   domain.ProviderGoogle,
			ProviderID: payload.Sub,
			Email:      payload.Email,
			Name:       payload.Name,
			Status:     domain.StatusClosed,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		claims := []string{
			dynamo.EmailClaim(payload.Email),
			dynamo.ProviderClaim(domain.ProviderGoogle, payload.Sub),
		}
		if err := s.users.Create(ctx, u, claims); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.mintPair(ctx, u.UserID)
}

// Refresh rotates the token pair. The presented token must equal the
// stored one byte for byte: an old token that was already rotated away is
// rejected even though its signature and expiry are still valid. That is
// what makes sessions single-instance per user.
func (s *service) Refresh(ctx context.Context, userID, presentedToken string) (*TokenPair, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.RefreshToken == "" || u.RefreshToken != presentedToken {
		return nil, fmt.Errorf("refresh token superseded: %w", domain.ErrUnauthorized)
	}
	return s.mintPair(ctx, userID)
}

func (s *service) SendEmailCode(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Provider != domain.ProviderEmail {
		// A code proves email ownership for password recovery; social
		// accounts have no password to recover.
		return fmt.Errorf("account uses %s login: %w", u.Provider, domain.ErrForbidden)
	}

	codeValue, err := code.New(emailCodeLength)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c := &domain.EmailCode{
		Email:     email,
		Code:      codeValue,
		CreatedAt: now,
		ExpiresAt: now.Add(emailCodeRetention).Unix(),
	}
	if err := s.codes.Put(ctx, c); err != nil {
		return err
	}

	return s.mailer.SendEmail(email, emailCodeSubject, "Your verification code: "+codeValue)
}

// VerifyEmailCode exchanges a valid code for a standalone access token used
// to reset the password. No refresh token is issued: this credential is for
// one follow-up action, not a session. Wrong code and expired code are the
// same error on purpose.
func (s *service) VerifyEmailCode(ctx context.Context, email, codeValue string) (string, error) {
	c, err := s.codes.Get(ctx, email)
	if err != nil {
		// Only an absent code joins the uniform rejection; a storage fault
		// is not an authentication verdict and propagates unchanged.
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("verification code expired or invalid: %w", domain.ErrUnauthorized)
		}
		return "", err
	}
	if c.Code != codeValue || time.Since(c.CreatedAt) > emailCodeValidity {
		return "", fmt.Errorf("verification code expired or invalid: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.tokens.SignAccess(u.UserID, "")
}

func (s *service) ChangePasswordByCode(ctx context.Context, userID, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": hash})
}

// mintPair signs a fresh access+refresh pair and overwrites the stored
// refresh token, invalidating whatever was there before.
func (s *service) mintPair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.tokens.SignAccess(userID, "")
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.SignRefresh(userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"refresh_token": refresh}); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
