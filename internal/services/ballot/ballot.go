// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ballot implements the vote integrity engine: the eligibility gate,
// the ballot validator and the vote recorder. All checks and writes for one
// cast happen inside a single store transaction; the UNIQUE constraint on
// (voter_id, position_id, candidate_id) is the storage-level backstop when
// two submissions for the same voter race past the in-transaction checks.
package ballot

import (
	"context"
	"log/slog"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
)

// Service records ballots against the vote ledger.
type Service struct {
	repo *repository.Repository
}

// New creates a new ballot service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Eligibility is the outcome of the eligibility gate.
type Eligibility struct {
	Eligible  bool              `json:"eligible"`
	Reason    EligibilityReason `json:"reason,omitempty"`
	Remaining int               `json:"remaining"`
}

// CheckEligible reports whether a voter may currently vote for a position.
// It is a pure read and never modifies state.
func (s *Service) CheckEligible(ctx context.Context, voterID, positionID int64) (*Eligibility, error) {
	voter, err := s.repo.GetVoterByID(ctx, voterID)
	if err != nil {
		return nil, err
	}

	position, err := s.repo.GetPositionByID(ctx, positionID)
	if err != nil {
		return nil, err
	}

	election, err := s.repo.GetElectionByID(ctx, position.ElectionID)
	if err != nil {
		return nil, err
	}

	cast, err := s.repo.CountVotes(ctx, voterID, positionID)
	if err != nil {
		return nil, err
	}

	return eligibility(voter, election, position, cast), nil
}

// eligibility applies the gate rules to already loaded state.
func eligibility(voter *models.Voter, election *models.Election, position *models.Position, cast int) *Eligibility {
	switch {
	case !voter.Verified():
		return &Eligibility{Reason: ReasonUnverified}
	case !election.AcceptsVotes():
		return &Eligibility{Reason: ReasonElectionNotRunning}
	case cast >= position.MaxChoices:
		return &Eligibility{Reason: ReasonChoiceLimitReached}
	}
	return &Eligibility{Eligible: true, Remaining: position.MaxChoices - cast}
}

// ValidateSelection checks a proposed candidate selection against the
// remaining choice allowance and the position's candidate set.
func ValidateSelection(candidateIDs []int64, remaining int, positionCandidates []int64) error {
	if len(candidateIDs) == 0 {
		return &RejectedBallotError{Reason: ReasonEmptySelection}
	}

	seen := make(map[int64]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, dup := seen[id]; dup {
			return &RejectedBallotError{Reason: ReasonDuplicateCandidate, CandidateID: id}
		}
		seen[id] = struct{}{}
	}

	if len(candidateIDs) > remaining {
		return &RejectedBallotError{Reason: ReasonChoiceLimitExceeded}
	}

	valid := make(map[int64]struct{}, len(positionCandidates))
	for _, id := range positionCandidates {
		valid[id] = struct{}{}
	}
	for _, id := range candidateIDs {
		if _, ok := valid[id]; !ok {
			return &RejectedBallotError{Reason: ReasonCandidateNotInPosition, CandidateID: id}
		}
	}

	return nil
}

// CastBallot runs the eligibility gate, validates the selection and persists
// one vote row per selected candidate as a single atomic unit. Either all
// rows commit or none do. A uniqueness conflict maps to ErrAlreadyVoted, a
// locked store to ErrStoreUnavailable.
func (s *Service) CastBallot(ctx context.Context, voterID, positionID int64, candidateIDs []int64) ([]models.Vote, error) {
	voter, err := s.repo.GetVoterByID(ctx, voterID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		if repository.IsBusy(err) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	position, err := s.repo.GetPositionTx(ctx, tx, positionID)
	if err != nil {
		return nil, err
	}

	election, err := s.repo.GetElectionTx(ctx, tx, position.ElectionID)
	if err != nil {
		return nil, err
	}

	cast, err := s.repo.CountVotesTx(ctx, tx, voterID, positionID)
	if err != nil {
		return nil, storeErr(err)
	}

	elig := eligibility(voter, election, position, cast)
	if !elig.Eligible {
		// A voter at the choice limit has already voted; that outcome is a
		// conflict, not a correctable eligibility failure.
		if elig.Reason == ReasonChoiceLimitReached {
			return nil, ErrAlreadyVoted
		}
		return nil, &NotEligibleError{Reason: elig.Reason}
	}

	valid, err := s.repo.ListCandidateIDsTx(ctx, tx, positionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := ValidateSelection(candidateIDs, elig.Remaining, valid); err != nil {
		return nil, err
	}

	votes := make([]models.Vote, 0, len(candidateIDs))
	for _, candidateID := range candidateIDs {
		vote, err := s.repo.InsertVoteTx(ctx, tx, voterID, positionID, candidateID)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, ErrAlreadyVoted
			}
			return nil, storeErr(err)
		}
		votes = append(votes, *vote)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}

	slog.Info("ballot recorded",
		"voter_id", voterID,
		"position_id", positionID,
		"votes", len(votes),
	)

	return votes, nil
}

// Invalidate records an audited correction for a vote. Votes are never
// deleted; the invalidation row excludes the vote from tallies.
func (s *Service) Invalidate(ctx context.Context, voteID, actorID int64, reason string) (*models.VoteInvalidation, error) {
	inv, err := s.repo.InvalidateVote(ctx, voteID, actorID, reason)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAlreadyInvalidated
		}
		return nil, storeErr(err)
	}

	slog.Info("vote invalidated", "vote_id", voteID, "actor_id", actorID, "reason", reason)
	return inv, nil
}

// storeErr maps transient store failures to the retryable sentinel.
func storeErr(err error) error {
	if repository.IsBusy(err) {
		return ErrStoreUnavailable
	}
	return err
}
