// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/univote/internal/auth"
)

// CastBallotRequest is the request body for submitting a ballot.
type CastBallotRequest struct {
	CandidateIDs []int64 `json:"candidate_ids"`
}

// CastBallot records one ballot for the authenticated voter. All selected
// candidates commit atomically or not at all.
func (h *Handlers) CastBallot(c echo.Context) error {
	positionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var req CastBallotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	voter := auth.GetVoter(c.Request().Context())

	votes, err := h.ballots.CastBallot(c.Request().Context(), voter.ID, positionID, req.CandidateIDs)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"recorded": votes,
	})
}

// InvalidateVoteRequest is the request body for an audited vote correction.
type InvalidateVoteRequest struct {
	Reason string `json:"reason"`
}

// InvalidateVote records an audited correction for a vote. The vote row stays
// in the ledger; the correction excludes it from tallies.
func (h *Handlers) InvalidateVote(c echo.Context) error {
	voteID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var req InvalidateVoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "reason is required"})
	}

	actor := auth.GetVoter(c.Request().Context())

	inv, err := h.ballots.Invalidate(c.Request().Context(), voteID, actor.ID, req.Reason)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, inv)
}

// CheckEligibility reports whether the authenticated voter may vote for a
// position, with a reason code when not.
func (h *Handlers) CheckEligibility(c echo.Context) error {
	positionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	voter := auth.GetVoter(c.Request().Context())

	elig, err := h.ballots.CheckEligible(c.Request().Context(), voter.ID, positionID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, elig)
}
