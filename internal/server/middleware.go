// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"codeberg.org/oliverandrich/univote/internal/auth"
	"codeberg.org/oliverandrich/univote/internal/config"
	"codeberg.org/oliverandrich/univote/internal/i18n"
	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/session"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, sessions *session.Manager, repo *repository.Repository) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(i18nMiddleware())
	e.Use(loadVoter(sessions, repo))
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// i18nMiddleware sets the locale based on Accept-Language header.
func i18nMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acceptLang := c.Request().Header.Get("Accept-Language")
			lang := i18n.MatchLanguage(acceptLang)
			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// loadVoter resolves the session cookie into an auth.Voter on the request
// context. The voter record is reloaded so the verified flag is current, not
// the one captured at login time.
func loadVoter(sessions *session.Manager, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data := sessions.Validate(c.Request())
			if data == nil {
				return next(c)
			}

			voter, err := repo.GetVoterByID(c.Request().Context(), data.VoterID)
			if err != nil {
				// Stale cookie for a deleted account, continue anonymous.
				return next(c)
			}

			ctx := auth.SetVoter(c.Request().Context(), &auth.Voter{
				ID:       voter.ID,
				Email:    voter.Email,
				Verified: voter.Verified(),
				IsAdmin:  voter.IsAdmin,
			})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// requireAuth rejects unauthenticated requests.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAuthenticated(c.Request().Context()) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		return next(c)
	}
}

// requireAdmin rejects requests from non-admin voters.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		voter := auth.GetVoter(c.Request().Context())
		if voter == nil || !voter.IsAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin access required"})
		}
		return next(c)
	}
}
