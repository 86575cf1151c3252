// Command mantis is the terminal client of the Mantis clone issue tracker.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/isdelr/mantis-client/internal/apiclient"
	"github.com/isdelr/mantis-client/internal/cli"
	"github.com/isdelr/mantis-client/internal/config"
	"github.com/isdelr/mantis-client/internal/logger"
	"github.com/isdelr/mantis-client/internal/services"
	"github.com/isdelr/mantis-client/internal/session"
	"github.com/isdelr/mantis-client/internal/storage"
	"github.com/isdelr/mantis-client/internal/views"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.StoragePath())
	if err != nil {
		log.Error().Err(err).Str("path", cfg.StoragePath()).Msg("Failed to open client storage")
		return 1
	}
	defer db.Close()

	local := storage.NewLocalStore(db)
	artifacts := &storage.Artifacts{Local: local, Session: storage.NewMemoryStore()}

	api, err := apiclient.New(cfg.APIBaseURL, apiclient.WithArtifactClearer(artifacts))
	if err != nil {
		log.Error().Err(err).Str("url", cfg.APIBaseURL).Msg("Invalid API base URL")
		return 1
	}

	cookies := storage.NewCookieStore(db)
	if err := cookies.Load(api.Jar(), api.BaseURL()); err != nil {
		log.Warn().Err(err).Msg("Failed to restore session cookies")
	}
	defer func() {
		if err := cookies.Save(api.Jar(), api.BaseURL()); err != nil {
			log.Warn().Err(err).Msg("Failed to save session cookies")
		}
	}()

	app := &cli.App{
		Session:    session.NewCoordinator(services.NewAuthService(api), artifacts),
		Issues:     services.NewIssueService(api),
		Labels:     services.NewLabelService(api),
		Milestones: services.NewMilestoneService(api),
		Prefs:      views.NewPreferences(local),
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}
