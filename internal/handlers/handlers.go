// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the JSON HTTP handlers of the election service.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/ballot"
	"codeberg.org/oliverandrich/univote/internal/services/lifecycle"
	"codeberg.org/oliverandrich/univote/internal/services/tally"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo      *repository.Repository
	ballots   *ballot.Service
	tallies   *tally.Service
	lifecycle *lifecycle.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, ballots *ballot.Service, tallies *tally.Service, lc *lifecycle.Service) *Handlers {
	return &Handlers{
		repo:      repo,
		ballots:   ballots,
		tallies:   tallies,
		lifecycle: lc,
	}
}

// Health returns the health status, including store reachability.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
