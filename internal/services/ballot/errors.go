// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ballot

import (
	"errors"
	"fmt"
)

// Eligibility reason codes. Callers present these to the voter instead of a
// generic denial.
type EligibilityReason string

const (
	ReasonUnverified         EligibilityReason = "UNVERIFIED"
	ReasonElectionNotRunning EligibilityReason = "ELECTION_NOT_RUNNING"
	ReasonChoiceLimitReached EligibilityReason = "CHOICE_LIMIT_REACHED"
)

// NotEligibleError reports why a voter may not vote for a position right now.
type NotEligibleError struct {
	Reason EligibilityReason
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("voter not eligible: %s", e.Reason)
}

// Ballot rejection reason codes.
type RejectionReason string

const (
	ReasonEmptySelection         RejectionReason = "EMPTY_SELECTION"
	ReasonDuplicateCandidate     RejectionReason = "DUPLICATE_CANDIDATE"
	ReasonChoiceLimitExceeded    RejectionReason = "CHOICE_LIMIT_EXCEEDED"
	ReasonCandidateNotInPosition RejectionReason = "CANDIDATE_NOT_IN_POSITION"
)

// RejectedBallotError reports why a submitted selection is invalid.
// CandidateID is set for per-candidate reasons, zero otherwise.
type RejectedBallotError struct {
	Reason      RejectionReason
	CandidateID int64
}

func (e *RejectedBallotError) Error() string {
	if e.CandidateID != 0 {
		return fmt.Sprintf("ballot rejected: %s (candidate %d)", e.Reason, e.CandidateID)
	}
	return fmt.Sprintf("ballot rejected: %s", e.Reason)
}

var (
	// ErrAlreadyVoted is the conflict outcome when a vote row for the same
	// (voter, position, candidate) already exists. It is decisive: retrying
	// the same submission can never succeed.
	ErrAlreadyVoted = errors.New("vote already recorded")

	// ErrStoreUnavailable signals a transient store failure. The whole cast
	// may be retried by the caller; the uniqueness constraint makes the
	// retry safe.
	ErrStoreUnavailable = errors.New("vote store unavailable")

	// ErrAlreadyInvalidated means a correction for the vote is already on
	// record. Each vote carries at most one invalidation.
	ErrAlreadyInvalidated = errors.New("vote already invalidated")
)
