// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the election service together and runs the HTTP
// server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/univote/internal/config"
	"codeberg.org/oliverandrich/univote/internal/database"
	"codeberg.org/oliverandrich/univote/internal/handlers"
	"codeberg.org/oliverandrich/univote/internal/i18n"
	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/ballot"
	"codeberg.org/oliverandrich/univote/internal/services/email"
	"codeberg.org/oliverandrich/univote/internal/services/lifecycle"
	"codeberg.org/oliverandrich/univote/internal/services/otp"
	"codeberg.org/oliverandrich/univote/internal/services/session"
	"codeberg.org/oliverandrich/univote/internal/services/tally"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)

	var mailer *email.Service
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewService(&cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to init mailer: %w", err)
		}
	} else {
		slog.Warn("no SMTP host configured, one-time codes are logged instead of mailed")
	}

	sessions, err := session.NewManager(&cfg.Session, false)
	if err != nil {
		return fmt.Errorf("failed to init sessions: %w", err)
	}

	codes := otp.New(repo)
	ballots := ballot.New(repo)
	tallies := tally.New(repo)

	var notifier lifecycle.Notifier
	if mailer != nil && cfg.SMTP.NotifyTo != "" {
		notifier = mailer
	}
	lc := lifecycle.New(repo, notifier)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e, cfg, sessions, repo)

	// Routes
	setupRoutes(e, repo, ballots, tallies, lc, codes, mailer, sessions)

	janitorCtx, cancelJanitor := context.WithCancel(ctx)
	defer cancelJanitor()
	go purgeExpiredCodes(janitorCtx, codes)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(
	e *echo.Echo,
	repo *repository.Repository,
	ballots *ballot.Service,
	tallies *tally.Service,
	lc *lifecycle.Service,
	codes *otp.Service,
	mailer *email.Service,
	sessions *session.Manager,
) {
	h := handlers.New(repo, ballots, tallies, lc)
	a := handlers.NewAuth(repo, codes, mailer, sessions)

	e.GET("/health", h.Health)

	// Identity
	e.POST("/auth/register", a.Register)
	e.POST("/auth/verify", a.Verify)
	e.POST("/auth/login", a.Login)
	e.POST("/auth/request-code", a.RequestCode)
	e.POST("/auth/login-code", a.LoginWithCode)
	e.POST("/auth/logout", a.Logout)

	// Elections
	e.GET("/elections", h.ListElections)
	e.GET("/elections/:id", h.GetElection)
	e.GET("/elections/:id/results", h.GetResults)
	e.POST("/elections", h.CreateElection, requireAuth, requireAdmin)
	e.POST("/elections/:id/transition", h.TransitionElection, requireAuth, requireAdmin)
	e.POST("/elections/:id/positions", h.CreatePosition, requireAuth, requireAdmin)
	e.DELETE("/positions/:id", h.DeletePosition, requireAuth, requireAdmin)
	e.POST("/positions/:id/candidates", h.CreateCandidate, requireAuth, requireAdmin)
	e.DELETE("/candidates/:id", h.DeleteCandidate, requireAuth, requireAdmin)

	// Voting
	e.GET("/positions/:id/eligibility", h.CheckEligibility, requireAuth)
	e.POST("/positions/:id/ballots", h.CastBallot, requireAuth)
	e.POST("/votes/:id/invalidate", h.InvalidateVote, requireAuth, requireAdmin)
}

// purgeExpiredCodes periodically removes expired one-time codes.
func purgeExpiredCodes(ctx context.Context, codes *otp.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := codes.PurgeExpired(ctx); err != nil {
				slog.Error("failed to purge expired one-time codes", "error", err)
			}
		}
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
