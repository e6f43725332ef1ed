// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package tally_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/ballot"
	"codeberg.org/oliverandrich/univote/internal/services/tally"
	"codeberg.org/oliverandrich/univote/internal/testutil"
)

func castVote(t *testing.T, repo *repository.Repository, email string, positionID, candidateID int64) {
	t.Helper()
	voter := testutil.NewTestVoter(t, repo, email)
	_, err := ballot.New(repo).CastBallot(context.Background(), voter.ID, positionID, []int64{candidateID})
	require.NoError(t, err)
}

func TestComputeResults_SingleChoiceScenario(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, position.ID, "Bob")

	castVote(t, repo, "x@example.com", position.ID, a.ID)

	results, err := svc.ComputeResults(ctx, election.ID)
	require.NoError(t, err)

	require.Len(t, results.Positions, 1)
	p := results.Positions[0]
	assert.Equal(t, int64(1), p.TotalVotes)
	require.Len(t, p.Candidates, 2)
	assert.Equal(t, a.ID, p.Candidates[0].CandidateID)
	assert.Equal(t, int64(1), p.Candidates[0].VoteCount)
	assert.Equal(t, b.ID, p.Candidates[1].CandidateID)
	assert.Equal(t, int64(0), p.Candidates[1].VoteCount)
}

func TestComputeResults_PositionWithoutCandidates(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	contested := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	candidate := testutil.NewTestCandidate(t, repo, contested.ID, "Alice")
	vacant := testutil.NewTestPosition(t, repo, election.ID, "Treasurer", 1)

	castVote(t, repo, "x@example.com", contested.ID, candidate.ID)

	results, err := svc.ComputeResults(ctx, election.ID)
	require.NoError(t, err)

	// Every position of the election appears, even without candidates.
	require.Len(t, results.Positions, 2)
	assert.Equal(t, contested.ID, results.Positions[0].PositionID)
	assert.Equal(t, int64(1), results.Positions[0].TotalVotes)

	assert.Equal(t, vacant.ID, results.Positions[1].PositionID)
	assert.Equal(t, "Treasurer", results.Positions[1].Name)
	assert.Equal(t, int64(0), results.Positions[1].TotalVotes)
	assert.Empty(t, results.Positions[1].Candidates)
}

func TestComputeResults_OrderingAndTieBreak(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "Senate", 1)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, position.ID, "Bob")
	c := testutil.NewTestCandidate(t, repo, position.ID, "Carol")

	// Bob leads, Alice and Carol tie at one vote each.
	castVote(t, repo, "v1@example.com", position.ID, b.ID)
	castVote(t, repo, "v2@example.com", position.ID, b.ID)
	castVote(t, repo, "v3@example.com", position.ID, c.ID)
	castVote(t, repo, "v4@example.com", position.ID, a.ID)

	// Ties resolve by creation order, so Alice comes before Carol, on every
	// call.
	for range 5 {
		results, err := svc.ComputeResults(ctx, election.ID)
		require.NoError(t, err)

		candidates := results.Positions[0].Candidates
		require.Len(t, candidates, 3)
		assert.Equal(t, b.ID, candidates[0].CandidateID)
		assert.Equal(t, a.ID, candidates[1].CandidateID)
		assert.Equal(t, c.ID, candidates[2].CandidateID)
		assert.Equal(t, int64(4), results.Positions[0].TotalVotes)
	}
}

func TestComputeResults_LifecycleGate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	for _, status := range []models.ElectionStatus{models.StatusDraft, models.StatusArchived} {
		election := testutil.NewTestElection(t, repo, fmt.Sprintf("Election %s", status), status)

		_, err := svc.ComputeResults(ctx, election.ID)

		assert.ErrorIs(t, err, tally.ErrResultsNotAvailable, "status %s", status)
	}

	for _, status := range []models.ElectionStatus{models.StatusRunning, models.StatusClosed} {
		election := testutil.NewTestElection(t, repo, fmt.Sprintf("Open %s", status), status)
		testutil.NewTestPosition(t, repo, election.ID, "Chair", 1)

		_, err := svc.ComputeResults(ctx, election.ID)

		assert.NoError(t, err, "status %s", status)
	}
}

func TestComputeResults_TotalsMatchLedger(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	senate := testutil.NewTestPosition(t, repo, election.ID, "Senate", 2)
	a := testutil.NewTestCandidate(t, repo, senate.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, senate.ID, "Bob")
	treasurer := testutil.NewTestPosition(t, repo, election.ID, "Treasurer", 1)
	d := testutil.NewTestCandidate(t, repo, treasurer.ID, "Dora")

	voter := testutil.NewTestVoter(t, repo, "multi@example.com")
	_, err := ballot.New(repo).CastBallot(ctx, voter.ID, senate.ID, []int64{a.ID, b.ID})
	require.NoError(t, err)
	_, err = ballot.New(repo).CastBallot(ctx, voter.ID, treasurer.ID, []int64{d.ID})
	require.NoError(t, err)

	results, err := svc.ComputeResults(ctx, election.ID)
	require.NoError(t, err)

	require.Len(t, results.Positions, 2)
	for _, p := range results.Positions {
		var sum int64
		for _, c := range p.Candidates {
			sum += c.VoteCount
		}
		assert.Equal(t, p.TotalVotes, sum, "position %s", p.Name)
	}
}

func TestComputeResults_ExcludesInvalidatedVotes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := tally.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")

	voter := testutil.NewTestVoter(t, repo, "inv@example.com")
	admin := testutil.NewTestVoter(t, repo, "admin@example.com")
	votes, err := ballot.New(repo).CastBallot(ctx, voter.ID, position.ID, []int64{a.ID})
	require.NoError(t, err)

	_, err = ballot.New(repo).Invalidate(ctx, votes[0].ID, admin.ID, "audit finding")
	require.NoError(t, err)

	results, err := svc.ComputeResults(ctx, election.ID)
	require.NoError(t, err)

	p := results.Positions[0]
	assert.Equal(t, int64(0), p.TotalVotes)
	assert.Equal(t, int64(0), p.Candidates[0].VoteCount)
}
