// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetResults returns the current tally of an election, aggregated from the
// ledger on every call.
func (h *Handlers) GetResults(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	results, err := h.tallies.ComputeResults(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, results)
}
