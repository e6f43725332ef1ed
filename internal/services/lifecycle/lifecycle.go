// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package lifecycle governs election state. Transitions are strictly forward
// (draft → running → closed → archived) with no skipping and no way back.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
)

// ErrInvalidTransition is returned for any transition outside the forward
// chain, including repeating the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// next maps each status to the only status it may move to.
var next = map[models.ElectionStatus]models.ElectionStatus{
	models.StatusDraft:   models.StatusRunning,
	models.StatusRunning: models.StatusClosed,
	models.StatusClosed:  models.StatusArchived,
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to models.ElectionStatus) bool {
	return next[from] == to
}

// Notifier is told when an election's results become final. Delivery is
// fire-and-forget: a failure is logged and never rolls back the transition.
type Notifier interface {
	NotifyResultsPublished(ctx context.Context, election *models.Election) error
}

// Service drives election lifecycle transitions.
type Service struct {
	repo     *repository.Repository
	notifier Notifier
}

// New creates a new lifecycle service. The notifier may be nil.
func New(repo *repository.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Transition moves an election to the target status. The store update is
// guarded on the current status, so two concurrent transitions cannot both
// succeed.
func (s *Service) Transition(ctx context.Context, electionID int64, target models.ElectionStatus) (*models.Election, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	election, err := s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(election.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, election.Status, target)
	}

	if err := s.repo.UpdateElectionStatus(ctx, electionID, election.Status, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race against another transition.
			return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, election.Status, target)
		}
		return nil, err
	}

	election, err = s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	slog.Info("election transitioned", "election_id", electionID, "status", election.Status)

	if target == models.StatusClosed && s.notifier != nil {
		if err := s.notifier.NotifyResultsPublished(ctx, election); err != nil {
			slog.Error("results notification failed", "election_id", electionID, "error", err)
		}
	}

	return election, nil
}
