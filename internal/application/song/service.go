package song

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sing4u/song-request-api/internal/domain"
	"github.com/sing4u/song-request-api/internal/pkg/id"
)

type Service interface {
	Open(ctx context.Context, userID string) error
	Close(ctx context.Context, userID, songListID string) error
	Submit(ctx context.Context, req domain.SubmitSongRequest) error
	MyLists(ctx context.Context, userID string) ([]domain.SongListView, error)
	ListDetail(ctx context.Context, songListID string) ([]domain.SongCount, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type songListStore interface {
	OpenWindow(ctx context.Context, sl *domain.SongList) error
	CloseWindow(ctx context.Context, userID, songListID string, endDate time.Time) error
	Get(ctx context.Context, songListID string) (*domain.SongList, error)
	FindOpenByUser(ctx context.Context, userID string) (*domain.SongList, error)
	ListByUser(ctx context.Context, userID string) ([]domain.SongList, error)
	Delete(ctx context.Context, songListID string) error
}

type songStore interface {
	Put(ctx context.Context, s *domain.Song) error
	ListByList(ctx context.Context, songListID string) ([]domain.Song, error)
	CountByList(ctx context.Context, songListID string) (int, error)
}

type service struct {
	users userStore
	lists songListStore
	songs songStore
}

func NewService(users userStore, lists songListStore, songs songStore) Service {
	return &service{users: users, lists: lists, songs: songs}
}

// Open starts a new request window. Opening while one is already open is a
// conflict, not a no-op: the caller asked for a new window and did not get
// one. The repo's transaction condition catches the race this status read
// cannot.
func (s *service) Open(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Status == domain.StatusOpened {
		return fmt.Errorf("request window already open: %w", domain.ErrConflict)
	}

	sl := &domain.SongList{
		SongListID: id.New(),
		UserID:     userID,
		StartDate:  time.Now().UTC(),
	}
	return s.lists.OpenWindow(ctx, sl)
}

// Close ends the window and prunes it if nothing was submitted: a window
// that closed empty carries no information worth keeping.
func (s *service) Close(ctx context.Context, userID, songListID string) error {
	if err := s.lists.CloseWindow(ctx, userID, songListID, time.Now().UTC()); err != nil {
		return err
	}

	n, err := s.songs.CountByList(ctx, songListID)
	if err != nil {
		return err
	}
	if n == 0 {
		return s.lists.Delete(ctx, songListID)
	}
	return nil
}

// Submit adds a request to the target user's currently open window.
// Admission keys on submitter plus song: the same song from a different
// email counts again, the same song from the same email is rejected.
func (s *service) Submit(ctx context.Context, req domain.SubmitSongRequest) error {
	sl, err := s.lists.FindOpenByUser(ctx, req.UserID)
	if err != nil {
		return err
	}
	return s.songs.Put(ctx, &domain.Song{
		SongListID:    sl.SongListID,
		SubmissionKey: submissionKey(req.Email, req.Artist, req.Title),
		Email:         req.Email,
		Artist:        req.Artist,
		Title:         req.Title,
		CreatedAt:     time.Now().UTC(),
	})
}

func (s *service) MyLists(ctx context.Context, userID string) ([]domain.SongListView, error) {
	lists, err := s.lists.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Most recent window first.
	sort.Slice(lists, func(i, j int) bool { return lists[i].StartDate.After(lists[j].StartDate) })

	views := make([]domain.SongListView, 0, len(lists))
	for _, sl := range lists {
		songs, err := s.songs.ListByList(ctx, sl.SongListID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.SongListView{
			SongListID: sl.SongListID,
			StartDate:  sl.StartDate,
			EndDate:    sl.EndDate,
			Songs:      aggregate(songs),
		})
	}
	return views, nil
}

func (s *service) ListDetail(ctx context.Context, songListID string) ([]domain.SongCount, error) {
	if _, err := s.lists.Get(ctx, songListID); err != nil {
		return nil, err
	}
	songs, err := s.songs.ListByList(ctx, songListID)
	if err != nil {
		return nil, err
	}
	return aggregate(songs), nil
}

// submissionKey joins the identifying tuple into the songs table sort key.
// Artist and title are free text, so the delimiter is escaped inside each
// part: without that, ("X#Y","Z") and ("X","Y#Z") would collide and the
// second, different song would be rejected as a duplicate.
func submissionKey(email, artist, title string) string {
	return escapeKeyPart(email) + "#" + escapeKeyPart(artist) + "#" + escapeKeyPart(title)
}

func escapeKeyPart(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "#", `\#`)
}

// aggregate folds submissions into per-song counts, most requested first.
// Ties keep the order in which the song was first submitted.
func aggregate(songs []domain.Song) []domain.SongCount {
	sort.Slice(songs, func(i, j int) bool { return songs[i].CreatedAt.Before(songs[j].CreatedAt) })

	type slot struct {
		index int
		count int
	}
	seen := make(map[string]*slot)
	var order []domain.SongCount
	for _, s := range songs {
		key := s.Artist + "\x00" + s.Title
		if sl, ok := seen[key]; ok {
			sl.count++
			order[sl.index].Count = sl.count
			continue
		}
		seen[key] = &slot{index: len(order), count: 1}
		order = append(order, domain.SongCount{Artist: s.Artist, Title: s.Title, Count: 1})
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].Count > order[j].Count })
	return order
}
