// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/ballot"
	"codeberg.org/oliverandrich/univote/internal/services/lifecycle"
	"codeberg.org/oliverandrich/univote/internal/services/tally"
)

// domainError maps engine errors to HTTP responses. Reason codes stay visible
// to the caller; only unexpected errors collapse to a generic 500.
func domainError(c echo.Context, err error) error {
	var notEligible *ballot.NotEligibleError
	var rejected *ballot.RejectedBallotError

	switch {
	case errors.As(err, &notEligible):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error":  "not_eligible",
			"reason": string(notEligible.Reason),
		})

	case errors.As(err, &rejected):
		body := map[string]any{
			"error":  "rejected_ballot",
			"reason": string(rejected.Reason),
		}
		if rejected.CandidateID != 0 {
			body["candidate_id"] = rejected.CandidateID
		}
		return c.JSON(http.StatusUnprocessableEntity, body)

	case errors.Is(err, ballot.ErrAlreadyVoted):
		return c.JSON(http.StatusConflict, map[string]string{"error": "already_voted"})

	case errors.Is(err, ballot.ErrAlreadyInvalidated):
		return c.JSON(http.StatusConflict, map[string]string{"error": "already_invalidated"})

	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, map[string]string{
			"error":  "invalid_lifecycle_transition",
			"detail": err.Error(),
		})

	case errors.Is(err, tally.ErrResultsNotAvailable):
		return c.JSON(http.StatusConflict, map[string]string{"error": "results_not_available"})

	case errors.Is(err, ballot.ErrStoreUnavailable):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "store_unavailable"})

	case errors.Is(err, tally.ErrIntegrityViolation):
		slog.Error("tally integrity violation", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "integrity_violation"})

	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	slog.Error("unhandled error", "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
