package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sing4u/song-request-api/internal/config"
	"github.com/sing4u/song-request-api/internal/infrastructure/dynamo"
	"github.com/sing4u/song-request-api/internal/infrastructure/google"
	jwtinfra "github.com/sing4u/song-request-api/internal/infrastructure/jwt"
	s3infra "github.com/sing4u/song-request-api/internal/infrastructure/s3"
	"github.com/sing4u/song-request-api/internal/infrastructure/smtp"
	transporthttp "github.com/sing4u/song-request-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Every route that authenticates needs the provider; missing or weak
	// secrets are a startup failure, not a degraded mode.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.ImageBaseURL)

	mailer := smtp.NewMailer(cfg)
	verifier := google.NewVerifier(cfg.GoogleClientID)

	deps := &transporthttp.Deps{
		UserRepo:      dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserClaims),
		SongListRepo:  dynamo.NewSongListRepo(dynamoClient, cfg.DynamoTables.SongLists, cfg.DynamoTables.Users),
		SongRepo:      dynamo.NewSongRepo(dynamoClient, cfg.DynamoTables.Songs),
		EmailCodeRepo: dynamo.NewEmailCodeRepo(dynamoClient, cfg.DynamoTables.EmailCodes),
		S3Store:       s3Store,
		Mailer:        mailer,
		Google:        verifier,
		JWTProvider:   jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
