// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tally computes election results from the vote ledger. Results are
// aggregated on every call from a consistent snapshot; nothing is cached
// between requests.
package tally

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
)

var (
	// ErrResultsNotAvailable is returned when the election lifecycle does
	// not permit reading results (draft or archived).
	ErrResultsNotAvailable = errors.New("results not available in this election state")

	// ErrIntegrityViolation means candidate counts and position totals do
	// not reconcile. Result publication must halt; partial totals are never
	// returned.
	ErrIntegrityViolation = errors.New("tally integrity violation")
)

// CandidateResult is one candidate's aggregated count.
type CandidateResult struct { //nolint:govet // fieldalignment: readability over optimization
	CandidateID int64  `json:"candidate_id"`
	Name        string `json:"name"`
	VoteCount   int64  `json:"vote_count"`
}

// PositionResult holds the ordered candidate counts for one position.
// Candidates are sorted by vote count descending; candidates with equal
// counts keep creation order, so repeated calls return identical orderings.
type PositionResult struct { //nolint:govet // fieldalignment: readability over optimization
	PositionID int64             `json:"position_id"`
	Name       string            `json:"name"`
	MaxChoices int               `json:"max_choices"`
	TotalVotes int64             `json:"total_votes"`
	Candidates []CandidateResult `json:"candidates"`
}

// ElectionResults is the full tally of an election.
type ElectionResults struct { //nolint:govet // fieldalignment: readability over optimization
	ElectionID int64                 `json:"election_id"`
	Name       string                `json:"name"`
	Status     models.ElectionStatus `json:"status"`
	Positions  []PositionResult      `json:"positions"`
}

// Service aggregates results from the ledger.
type Service struct {
	repo *repository.Repository
}

// New creates a new tally service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// ComputeResults aggregates per-candidate counts and per-position totals for
// an election. Results may be read while the election is running or closed.
// A mismatch between summed candidate counts and the distinct vote count of a
// position fails with ErrIntegrityViolation instead of returning partial
// numbers.
func (s *Service) ComputeResults(ctx context.Context, electionID int64) (*ElectionResults, error) {
	election, err := s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !election.ResultsReadable() {
		return nil, ErrResultsNotAvailable
	}

	rows, totals, err := s.repo.ElectionTally(ctx, electionID)
	if err != nil {
		return nil, err
	}

	results := &ElectionResults{
		ElectionID: election.ID,
		Name:       election.Name,
		Status:     election.Status,
	}

	// Positions are seeded from the totals, which cover every position of
	// the election. A position without candidates still appears, with zero
	// votes and an empty candidate list.
	index := make(map[int64]int, len(totals))
	for _, t := range totals {
		index[t.PositionID] = len(results.Positions)
		results.Positions = append(results.Positions, PositionResult{
			PositionID: t.PositionID,
			Name:       t.PositionName,
			MaxChoices: t.MaxChoices,
			TotalVotes: t.Total,
		})
	}

	for _, row := range rows {
		p := &results.Positions[index[row.PositionID]]
		p.Candidates = append(p.Candidates, CandidateResult{
			CandidateID: row.CandidateID,
			Name:        row.CandidateName,
			VoteCount:   row.VoteCount,
		})
	}

	for i := range results.Positions {
		p := &results.Positions[i]
		var sum int64
		for _, c := range p.Candidates {
			sum += c.VoteCount
		}
		if sum != p.TotalVotes {
			return nil, fmt.Errorf("%w: position %d sums to %d, ledger holds %d",
				ErrIntegrityViolation, p.PositionID, sum, p.TotalVotes)
		}
	}

	return results, nil
}
