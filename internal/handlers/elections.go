// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/univote/internal/auth"
	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/lifecycle"
)

// CreateElectionRequest is the request body for creating an election.
type CreateElectionRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Department string `json:"department"`
}

// CreateElection creates a new election in draft state.
func (h *Handlers) CreateElection(c echo.Context) error {
	var req CreateElectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	if req.Category == "" {
		req.Category = models.CategoryInstitution
	}
	if req.Category != models.CategoryInstitution && req.Category != models.CategoryDepartment {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown category"})
	}
	if req.Category == models.CategoryDepartment && req.Department == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "department is required for department elections"})
	}

	voter := auth.GetVoter(c.Request().Context())

	election, err := h.repo.CreateElection(c.Request().Context(), req.Name, req.Category, req.Department, voter.ID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, election)
}

// ListElections returns all elections.
func (h *Handlers) ListElections(c echo.Context) error {
	elections, err := h.repo.ListElections(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, elections)
}

// GetElection returns one election with its positions and candidates.
func (h *Handlers) GetElection(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	election, err := h.repo.GetElectionByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}

	positions, err := h.repo.ListPositions(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}

	type positionView struct {
		models.Position
		Candidates []models.Candidate `json:"candidates"`
	}
	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		candidates, err := h.repo.ListCandidates(c.Request().Context(), p.ID)
		if err != nil {
			return domainError(c, err)
		}
		views = append(views, positionView{Position: p, Candidates: candidates})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"election":  election,
		"positions": views,
	})
}

// TransitionRequest is the request body for a lifecycle transition.
type TransitionRequest struct {
	Status models.ElectionStatus `json:"status"`
}

// TransitionElection moves an election to the next lifecycle state.
func (h *Handlers) TransitionElection(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	election, err := h.lifecycle.Transition(c.Request().Context(), id, req.Status)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, election)
}

// CreatePositionRequest is the request body for adding a position.
type CreatePositionRequest struct {
	Name       string `json:"name"`
	MaxChoices int    `json:"max_choices"`
}

// CreatePosition adds a position to a draft election.
func (h *Handlers) CreatePosition(c echo.Context) error {
	electionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var req CreatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	if req.MaxChoices < 1 {
		req.MaxChoices = 1
	}

	election, err := h.repo.GetElectionByID(c.Request().Context(), electionID)
	if err != nil {
		return domainError(c, err)
	}
	if !election.Editable() {
		return domainError(c, fmt.Errorf("%w: election structure is frozen outside draft", lifecycle.ErrInvalidTransition))
	}

	position, err := h.repo.CreatePosition(c.Request().Context(), electionID, req.Name, req.MaxChoices)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "position name already used in this election"})
		}
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, position)
}

// DeletePosition removes a position from a draft election.
func (h *Handlers) DeletePosition(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	position, err := h.repo.GetPositionByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	election, err := h.repo.GetElectionByID(c.Request().Context(), position.ElectionID)
	if err != nil {
		return domainError(c, err)
	}
	if !election.Editable() {
		return domainError(c, fmt.Errorf("%w: election structure is frozen outside draft", lifecycle.ErrInvalidTransition))
	}

	if err := h.repo.DeletePosition(c.Request().Context(), id); err != nil {
		return domainError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateCandidateRequest is the request body for adding a candidate.
type CreateCandidateRequest struct {
	VoterID     *int64 `json:"voter_id"`
	DisplayName string `json:"display_name"`
}

// CreateCandidate adds a candidate to a position of a draft election.
func (h *Handlers) CreateCandidate(c echo.Context) error {
	positionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var req CreateCandidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	position, err := h.repo.GetPositionByID(c.Request().Context(), positionID)
	if err != nil {
		return domainError(c, err)
	}
	election, err := h.repo.GetElectionByID(c.Request().Context(), position.ElectionID)
	if err != nil {
		return domainError(c, err)
	}
	if !election.Editable() {
		return domainError(c, fmt.Errorf("%w: election structure is frozen outside draft", lifecycle.ErrInvalidTransition))
	}

	// Self-candidacies take the voter's display name when none is given.
	if req.DisplayName == "" && req.VoterID != nil {
		voter, err := h.repo.GetVoterByID(c.Request().Context(), *req.VoterID)
		if err != nil {
			return domainError(c, err)
		}
		req.DisplayName = voter.DisplayName
	}
	if req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "display_name is required"})
	}

	candidate, err := h.repo.CreateCandidate(c.Request().Context(), positionID, req.VoterID, req.DisplayName)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, candidate)
}

// DeleteCandidate removes a candidate from a draft election.
func (h *Handlers) DeleteCandidate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	candidate, err := h.repo.GetCandidateByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	position, err := h.repo.GetPositionByID(c.Request().Context(), candidate.PositionID)
	if err != nil {
		return domainError(c, err)
	}
	election, err := h.repo.GetElectionByID(c.Request().Context(), position.ElectionID)
	if err != nil {
		return domainError(c, err)
	}
	if !election.Editable() {
		return domainError(c, fmt.Errorf("%w: election structure is frozen outside draft", lifecycle.ErrInvalidTransition))
	}

	if err := h.repo.DeleteCandidate(c.Request().Context(), id); err != nil {
		return domainError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
