// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ballot_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/services/ballot"
	"codeberg.org/oliverandrich/univote/internal/testutil"
)

func TestValidateSelection(t *testing.T) {
	candidates := []int64{1, 2, 3}

	tests := []struct {
		name      string
		selection []int64
		remaining int
		reason    ballot.RejectionReason
	}{
		{"valid single", []int64{1}, 1, ""},
		{"valid multiple", []int64{1, 3}, 2, ""},
		{"empty", nil, 1, ballot.ReasonEmptySelection},
		{"duplicate", []int64{2, 2}, 3, ballot.ReasonDuplicateCandidate},
		{"over limit", []int64{1, 2}, 1, ballot.ReasonChoiceLimitExceeded},
		{"unknown candidate", []int64{4}, 1, ballot.ReasonCandidateNotInPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ballot.ValidateSelection(tt.selection, tt.remaining, candidates)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var rejected *ballot.RejectedBallotError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.reason, rejected.Reason)
		})
	}
}

func TestCheckEligible(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	testutil.NewTestCandidate(t, repo, position.ID, "Alice")

	t.Run("eligible voter", func(t *testing.T) {
		voter := testutil.NewTestVoter(t, repo, "eligible@example.com")

		elig, err := svc.CheckEligible(ctx, voter.ID, position.ID)

		require.NoError(t, err)
		assert.True(t, elig.Eligible)
		assert.Equal(t, 1, elig.Remaining)
	})

	t.Run("unverified voter", func(t *testing.T) {
		voter := testutil.NewUnverifiedVoter(t, repo, "unverified@example.com")

		elig, err := svc.CheckEligible(ctx, voter.ID, position.ID)

		require.NoError(t, err)
		assert.False(t, elig.Eligible)
		assert.Equal(t, ballot.ReasonUnverified, elig.Reason)
	})

	t.Run("election not running", func(t *testing.T) {
		draft := testutil.NewTestElection(t, repo, "Draft Election", models.StatusDraft)
		draftPos := testutil.NewTestPosition(t, repo, draft.ID, "Treasurer", 1)
		voter := testutil.NewTestVoter(t, repo, "draft-voter@example.com")

		elig, err := svc.CheckEligible(ctx, voter.ID, draftPos.ID)

		require.NoError(t, err)
		assert.False(t, elig.Eligible)
		assert.Equal(t, ballot.ReasonElectionNotRunning, elig.Reason)
	})

	t.Run("choice limit reached", func(t *testing.T) {
		voter := testutil.NewTestVoter(t, repo, "limit@example.com")
		candidate := testutil.NewTestCandidate(t, repo, position.ID, "Bob")
		_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{candidate.ID})
		require.NoError(t, err)

		elig, err := svc.CheckEligible(ctx, voter.ID, position.ID)

		require.NoError(t, err)
		assert.False(t, elig.Eligible)
		assert.Equal(t, ballot.ReasonChoiceLimitReached, elig.Reason)
	})
}

func TestCastBallot_SingleChoice(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, position.ID, "Bob")
	voter := testutil.NewTestVoter(t, repo, "x@example.com")

	votes, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID})
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, a.ID, votes[0].CandidateID)
	assert.Equal(t, voter.ID, votes[0].VoterID)

	// The limit is reached, voting for the other candidate must conflict.
	_, err = svc.CastBallot(ctx, voter.ID, position.ID, []int64{b.ID})
	assert.ErrorIs(t, err, ballot.ErrAlreadyVoted)

	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCastBallot_NotRetryIdempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Senate Election", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "Senate", 3)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	voter := testutil.NewTestVoter(t, repo, "y@example.com")

	_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID})
	require.NoError(t, err)

	// Same arguments again: the duplicate row is refused, no new rows appear.
	_, err = svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID})
	assert.ErrorIs(t, err, ballot.ErrAlreadyVoted)

	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCastBallot_TopUpWithinLimit(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Senate Election", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "Senate", 2)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, position.ID, "Bob")
	c := testutil.NewTestCandidate(t, repo, position.ID, "Carol")
	voter := testutil.NewTestVoter(t, repo, "z@example.com")

	_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID})
	require.NoError(t, err)

	// One choice left, selecting two more must be rejected before any write.
	_, err = svc.CastBallot(ctx, voter.ID, position.ID, []int64{b.ID, c.ID})
	var rejected *ballot.RejectedBallotError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ballot.ReasonChoiceLimitExceeded, rejected.Reason)

	_, err = svc.CastBallot(ctx, voter.ID, position.ID, []int64{b.ID})
	require.NoError(t, err)

	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCastBallot_MultiCandidateAtomic(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Senate Election", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "Senate", 2)
	a := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	b := testutil.NewTestCandidate(t, repo, position.ID, "Bob")
	voter := testutil.NewTestVoter(t, repo, "atomic@example.com")

	// A selection containing an unknown candidate writes nothing, even though
	// the first candidate alone would have been valid.
	_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID, 99999})
	var rejected *ballot.RejectedBallotError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ballot.ReasonCandidateNotInPosition, rejected.Reason)

	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	votes, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}

func TestCastBallot_RejectsOutsideRunning(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	for _, status := range []models.ElectionStatus{models.StatusDraft, models.StatusClosed, models.StatusArchived} {
		election := testutil.NewTestElection(t, repo, fmt.Sprintf("Election %s", status), status)
		position := testutil.NewTestPosition(t, repo, election.ID, "Chair", 1)
		candidate := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
		voter := testutil.NewTestVoter(t, repo, fmt.Sprintf("voter-%s@example.com", status))

		_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{candidate.ID})

		var notEligible *ballot.NotEligibleError
		require.ErrorAs(t, err, &notEligible, "status %s", status)
		assert.Equal(t, ballot.ReasonElectionNotRunning, notEligible.Reason)
	}
}

func TestCastBallot_UnverifiedVoter(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	candidate := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	voter := testutil.NewUnverifiedVoter(t, repo, "nobody@example.com")

	_, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{candidate.ID})

	var notEligible *ballot.NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, ballot.ReasonUnverified, notEligible.Reason)
}

// TestCastBallot_ConcurrentSameVoter hammers one voter/position pair from
// many goroutines. Whatever the interleaving, at most max_choices rows may
// exist afterwards.
func TestCastBallot_ConcurrentSameVoter(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)

	candidates := make([]int64, 8)
	for i := range candidates {
		candidates[i] = testutil.NewTestCandidate(t, repo, position.ID, fmt.Sprintf("Candidate %d", i)).ID
	}
	voter := testutil.NewTestVoter(t, repo, "race@example.com")

	var wg sync.WaitGroup
	errs := make([]error, len(candidates))
	for i, candidateID := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CastBallot(ctx, voter.ID, position.ID, []int64{candidateID})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ballot.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, succeeded)

	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestCastBallot_ConcurrentDistinctVoters lets many voters vote in parallel;
// all casts must succeed and each voter holds exactly one row.
func TestCastBallot_ConcurrentDistinctVoters(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	candidate := testutil.NewTestCandidate(t, repo, position.ID, "Alice")

	voters := make([]int64, 10)
	for i := range voters {
		voters[i] = testutil.NewTestVoter(t, repo, fmt.Sprintf("parallel-%d@example.com", i)).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(voters))
	for i, voterID := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CastBallot(ctx, voterID, position.ID, []int64{candidate.ID})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	for _, voterID := range voters {
		count, err := repo.CountVotes(ctx, voterID, position.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestInvalidate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := ballot.New(repo)
	ctx := context.Background()

	election := testutil.NewTestElection(t, repo, "Student Council", models.StatusRunning)
	position := testutil.NewTestPosition(t, repo, election.ID, "President", 1)
	candidate := testutil.NewTestCandidate(t, repo, position.ID, "Alice")
	voter := testutil.NewTestVoter(t, repo, "inv@example.com")
	admin := testutil.NewTestVoter(t, repo, "admin@example.com")

	votes, err := svc.CastBallot(ctx, voter.ID, position.ID, []int64{candidate.ID})
	require.NoError(t, err)

	inv, err := svc.Invalidate(ctx, votes[0].ID, admin.ID, "double registration")
	require.NoError(t, err)
	assert.Equal(t, votes[0].ID, inv.VoteID)

	// The vote row stays in the ledger but no longer counts.
	count, err := repo.CountVotes(ctx, voter.ID, position.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A second invalidation of the same vote is refused.
	_, err = svc.Invalidate(ctx, votes[0].ID, admin.ID, "again")
	assert.ErrorIs(t, err, ballot.ErrAlreadyInvalidated)
}
