// Command devserver runs the reference issue tracker backend the client talks
// to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/mantis-client/internal/api"
	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/isdelr/mantis-client/internal/config"
	"github.com/isdelr/mantis-client/internal/logger"
	"github.com/isdelr/mantis-client/internal/monitoring"
	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file, using system environment only")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Set up database
	db, err := tracker.Open(cfg.Server.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Token revocations live in redis when configured
	var revocations auth.RevocationStore
	if cfg.Server.RedisURL != "" {
		client, err := auth.NewRedisClient(context.Background(), cfg.Server.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		revocations = auth.NewRedisRevocationStore(client)
		log.Info().Msg("Using redis for token revocations")
	} else {
		revocations = auth.NewSQLRevocationStore(db)
	}

	issuer := auth.NewIssuer(cfg.Server.JWTSecret, cfg.Server.SessionTTL)
	if !cfg.Server.Production && cfg.Server.JWTSecret == "dev-secret-change-me" {
		log.Warn().Msg("Using the default JWT secret, set JWT_SECRET outside development")
	}

	// Set up and run the revocation janitor
	janitor, err := monitoring.NewJanitor(revocations, monitoring.DefaultJanitorSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create janitor")
	}
	go janitor.Run()

	// Set up router
	deps := api.NewDeps(db, issuer, revocations)
	deps.AllowedOrigins = cfg.Server.AllowedOrigins
	deps.SecureCookies = cfg.Server.Production
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
