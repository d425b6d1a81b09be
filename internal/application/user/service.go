package user

import (
	"context"
	"fmt"

	"github.com/sing4u/song-request-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName         = "name"
	fieldImage        = "image"
	fieldPasswordHash = "password_hash"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetForm(ctx context.Context, userID string) (*domain.RequestForm, error)
	UpdateName(ctx context.Context, userID, name string) error
	UpdateEmail(ctx context.Context, userID string, req domain.UpdateEmailRequest) error
	UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) error
	UpdateImage(ctx context.Context, userID string, data []byte, contentType string) (imageURL string, err error)
	DeleteImage(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	UpdateEmail(ctx context.Context, userID, oldEmail, newEmail string) error
	Delete(ctx context.Context, u *domain.User) error
}

type songListStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.SongList, error)
	Delete(ctx context.Context, songListID string) error
}

type songStore interface {
	DeleteByList(ctx context.Context, songListID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

type ServiceDeps struct {
	Users  userStore
	Lists  songListStore
	Songs  songStore
	Images objectStore
	Hasher passwordHasher
}

type service struct {
	users  userStore
	lists  songListStore
	songs  songStore
	images objectStore
	hasher passwordHasher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.Users,
		lists:  deps.Lists,
		songs:  deps.Songs,
		images: deps.Images,
		hasher: deps.Hasher,
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// GetForm is the public view a submitter loads before requesting a song.
func (s *service) GetForm(ctx context.Context, userID string) (*domain.RequestForm, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.RequestForm{
		UserID: u.UserID,
		Name:   u.Name,
		Image:  u.Image,
		Status: u.Status,
	}, nil
}

func (s *service) UpdateName(ctx context.Context, userID, name string) error {
	return s.users.Update(ctx, userID, map[string]interface{}{fieldName: name})
}

// UpdateEmail is password-gated and swaps the email uniqueness claim
// atomically; a taken email surfaces as ErrConflict.
func (s *service) UpdateEmail(ctx context.Context, userID string, req domain.UpdateEmailRequest) error {
	u, err := s.verifyPassword(ctx, userID, req.Password)
	if err != nil {
		return err
	}
	return s.users.UpdateEmail(ctx, userID, u.Email, req.Email)
}

func (s *service) UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) error {
	if _, err := s.verifyPassword(ctx, userID, req.OldPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: hash})
}

// UpdateImage stores the picture under a per-user key and records its URL.
// The key is stable per user, so re-uploading replaces the old object.
func (s *service) UpdateImage(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return "", err
	}
	key := imageKey(userID)
	if err := s.images.Upload(ctx, key, data, contentType); err != nil {
		return "", err
	}
	url := s.images.URL(key)
	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldImage: url}); err != nil {
		return "", err
	}
	return url, nil
}

func (s *service) DeleteImage(ctx context.Context, userID string) error {
	if err := s.images.Delete(ctx, imageKey(userID)); err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{fieldImage: nil})
}

// Delete removes the account and everything it owns: every song list, its
// submissions, the profile image, and the uniqueness claims.
func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	lists, err := s.lists.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, sl := range lists {
		if err := s.songs.DeleteByList(ctx, sl.SongListID); err != nil {
			return err
		}
		if err := s.lists.Delete(ctx, sl.SongListID); err != nil {
			return err
		}
	}

	if u.Image != nil {
		if err := s.images.Delete(ctx, imageKey(userID)); err != nil {
			return err
		}
	}

	return s.users.Delete(ctx, u)
}

func (s *service) verifyPassword(ctx context.Context, userID, plaintext string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Provider != domain.ProviderEmail {
		return nil, fmt.Errorf("account uses %s login: %w", u.Provider, domain.ErrForbidden)
	}
	ok, err := s.hasher.Verify(u.PasswordHash, plaintext)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("wrong password: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

func imageKey(userID string) string {
	return fmt.Sprintf("users/%s", userID)
}
