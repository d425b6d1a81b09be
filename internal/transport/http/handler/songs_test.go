package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sing4u/song-request-api/internal/domain"
	jwtinfra "github.com/sing4u/song-request-api/internal/infrastructure/jwt"
	"github.com/sing4u/song-request-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockSongSvc struct{ mock.Mock }

func (m *mockSongSvc) Open(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockSongSvc) Close(ctx context.Context, userID, songListID string) error {
	return m.Called(ctx, userID, songListID).Error(0)
}
func (m *mockSongSvc) Submit(ctx context.Context, req domain.SubmitSongRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockSongSvc) MyLists(ctx context.Context, userID string) ([]domain.SongListView, error) {
	args := m.Called(ctx, userID)
	if v, _ := args.Get(0).([]domain.SongListView); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSongSvc) ListDetail(ctx context.Context, songListID string) ([]domain.SongCount, error) {
	args := m.Called(ctx, songListID)
	if v, _ := args.Get(0).([]domain.SongCount); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.ClaimsKey, &jwtinfra.Claims{UserID: userID})
	return req.WithContext(ctx)
}

// --- Open ---

func TestOpen_ReturnsCreated(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("Open", mock.Anything, "u1").Return(nil)

	rr := httptest.NewRecorder()
	NewSongHandler(svc).Open(rr, authedRequest(http.MethodPost, "/v1/songs/open", nil, "u1"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestOpen_AlreadyOpen_Returns409(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("Open", mock.Anything, "u1").Return(domain.ErrConflict)

	rr := httptest.NewRecorder()
	NewSongHandler(svc).Open(rr, authedRequest(http.MethodPost, "/v1/songs/open", nil, "u1"))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestOpen_NoClaims_Returns401(t *testing.T) {
	svc := &mockSongSvc{}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/songs/open", nil)
	NewSongHandler(svc).Open(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

// --- Close ---

func TestClose_ReturnsOK(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("Close", mock.Anything, "u1", "sl1").Return(nil)

	body, _ := json.Marshal(domain.CloseRequest{SongListID: "sl1"})
	rr := httptest.NewRecorder()
	NewSongHandler(svc).Close(rr, authedRequest(http.MethodPost, "/v1/songs/close", body, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestClose_MissingSongListID_Returns400(t *testing.T) {
	svc := &mockSongSvc{}

	rr := httptest.NewRecorder()
	NewSongHandler(svc).Close(rr, authedRequest(http.MethodPost, "/v1/songs/close", []byte(`{}`), "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestClose_NoOpenWindow_Returns404(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("Close", mock.Anything, "u1", "sl1").Return(domain.ErrNotFound)

	body, _ := json.Marshal(domain.CloseRequest{SongListID: "sl1"})
	rr := httptest.NewRecorder()
	NewSongHandler(svc).Close(rr, authedRequest(http.MethodPost, "/v1/songs/close", body, "u1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Submit ---

func TestSubmit_ReturnsCreated(t *testing.T) {
	svc := &mockSongSvc{}
	want := domain.SubmitSongRequest{
		UserID: "u1", Email: "fan@x.com", Artist: "IU", Title: "Lilac",
	}
	svc.On("Submit", mock.Anything, want).Return(nil)

	body, _ := json.Marshal(want)
	rr := httptest.NewRecorder()
	NewSongHandler(svc).Submit(rr, httptest.NewRequest(http.MethodPost, "/v1/songs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestSubmit_InvalidEmail_Returns400(t *testing.T) {
	svc := &mockSongSvc{}

	body, _ := json.Marshal(domain.SubmitSongRequest{
		UserID: "u1", Email: "not-an-email", Artist: "IU", Title: "Lilac",
	})
	rr := httptest.NewRecorder()
	NewSongHandler(svc).Submit(rr, httptest.NewRequest(http.MethodPost, "/v1/songs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmit_Duplicate_Returns409(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	body, _ := json.Marshal(domain.SubmitSongRequest{
		UserID: "u1", Email: "fan@x.com", Artist: "IU", Title: "Lilac",
	})
	rr := httptest.NewRecorder()
	NewSongHandler(svc).Submit(rr, httptest.NewRequest(http.MethodPost, "/v1/songs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// --- ListDetail ---

func TestListDetail_NoAuthRequired(t *testing.T) {
	svc := &mockSongSvc{}
	svc.On("ListDetail", mock.Anything, "sl1").Return([]domain.SongCount{
		{Artist: "IU", Title: "Lilac", Count: 2},
	}, nil)

	// No claims in context: the tally is readable by the audience.
	req := httptest.NewRequest(http.MethodGet, "/v1/songs/mylist/sl1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("songListId", "sl1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	NewSongHandler(svc).ListDetail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var counts []domain.SongCount
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, []domain.SongCount{{Artist: "IU", Title: "Lilac", Count: 2}}, counts)
}

// --- MyLists ---

func TestMyLists_ReturnsViews(t *testing.T) {
	svc := &mockSongSvc{}
	start := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	svc.On("MyLists", mock.Anything, "u1").Return([]domain.SongListView{
		{SongListID: "sl1", StartDate: start},
	}, nil)

	rr := httptest.NewRecorder()
	NewSongHandler(svc).MyLists(rr, authedRequest(http.MethodGet, "/v1/songs/mylist", nil, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var views []domain.SongListView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "sl1", views[0].SongListID)
}
