package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sing4u/song-request-api/internal/application/song"
	"github.com/sing4u/song-request-api/internal/domain"
	"github.com/sing4u/song-request-api/internal/pkg/validate"
	"github.com/sing4u/song-request-api/internal/transport/http/middleware"
)

// SongHandler handles request-window and submission endpoints.
type SongHandler struct {
	svc song.Service
}

func NewSongHandler(svc song.Service) *SongHandler { return &SongHandler{svc: svc} }

func (h *SongHandler) Open(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Open(r.Context(), claims.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "request window opened"})
}

func (h *SongHandler) Close(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Close(r.Context(), claims.UserID, req.SongListID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "request window closed"})
}

// Submit is public: the audience requests a song without an account.
func (h *SongHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Submit(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "song requested"})
}

func (h *SongHandler) MyLists(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	views, err := h.svc.MyLists(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListDetail is public: anyone with the window id can watch the tally.
func (h *SongHandler) ListDetail(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.ListDetail(r.Context(), chi.URLParam(r, "songListId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
