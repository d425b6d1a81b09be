package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sing4u/song-request-api/internal/application/auth"
	"github.com/sing4u/song-request-api/internal/application/song"
	"github.com/sing4u/song-request-api/internal/application/user"
	"github.com/sing4u/song-request-api/internal/config"
	"github.com/sing4u/song-request-api/internal/infrastructure/dynamo"
	"github.com/sing4u/song-request-api/internal/infrastructure/google"
	jwtinfra "github.com/sing4u/song-request-api/internal/infrastructure/jwt"
	s3infra "github.com/sing4u/song-request-api/internal/infrastructure/s3"
	"github.com/sing4u/song-request-api/internal/infrastructure/smtp"
	"github.com/sing4u/song-request-api/internal/pkg/password"
	"github.com/sing4u/song-request-api/internal/transport/http/handler"
	appmiddleware "github.com/sing4u/song-request-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.UserRepo
	SongListRepo  *dynamo.SongListRepo
	SongRepo      *dynamo.SongRepo
	EmailCodeRepo *dynamo.EmailCodeRepo
	S3Store       *s3infra.Store
	Mailer        smtp.Mailer
	Google        *google.Verifier
	JWTProvider   *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	refreshMw := appmiddleware.RefreshAuth(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	hasher := password.NewHasher(password.DefaultParams())

	authSvc := auth.NewService(auth.ServiceDeps{
		Users:  deps.UserRepo,
		Codes:  deps.EmailCodeRepo,
		Tokens: deps.JWTProvider,
		Google: deps.Google,
		Hasher: hasher,
		Mailer: deps.Mailer,
	})
	songSvc := song.NewService(deps.UserRepo, deps.SongListRepo, deps.SongRepo)
	userSvc := user.NewService(user.ServiceDeps{
		Users:  deps.UserRepo,
		Lists:  deps.SongListRepo,
		Songs:  deps.SongRepo,
		Images: deps.S3Store,
		Hasher: hasher,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	songH := handler.NewSongHandler(songSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register/email", authH.RegisterEmail)
		r.With(sensitiveRL.Limit).Post("/auth/login/email", authH.LoginEmail)
		r.With(sensitiveRL.Limit).Post("/auth/login/social", authH.LoginSocial)
		r.With(sensitiveRL.Limit).Post("/auth/get-email-code", authH.GetEmailCode)
		r.With(sensitiveRL.Limit).Post("/auth/verify-email-code", authH.VerifyEmailCode)
		r.With(sensitiveRL.Limit).Post("/songs", songH.Submit)
		// Submitters can watch the tally of the window they posted into.
		r.Get("/songs/mylist/{songListId}", songH.ListDetail)
		r.Get("/users/form/{userId}", userH.GetForm)

		// Refresh presents the refresh token, not the access token.
		r.With(refreshMw).Post("/auth/refresh", authH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/password-by-code", authH.PasswordByCode)

			r.Post("/songs/open", songH.Open)
			r.Post("/songs/close", songH.Close)
			r.Get("/songs/mylist", songH.MyLists)

			r.Get("/users/me", userH.GetMe)
			r.Patch("/users/me/name", userH.UpdateName)
			r.Patch("/users/me/email", userH.UpdateEmail)
			r.Patch("/users/me/password", userH.UpdatePassword)
			r.Put("/users/me/image", userH.UpdateImage)
			r.Delete("/users/me/image", userH.DeleteImage)
			r.Delete("/users/me", userH.Delete)
		})
	})

	return r
}
