// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// GetElectionTx retrieves an election inside a transaction.
func (r *Repository) GetElectionTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Election, error) {
	var election models.Election
	if err := tx.GetContext(ctx, &election, `SELECT * FROM elections WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &election, nil
}

// CountVotesTx counts the valid (non-invalidated) vote rows a voter holds for
// a position, inside a transaction.
func (r *Repository) CountVotesTx(ctx context.Context, tx *sqlx.Tx, voterID, positionID int64) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM votes v
		 WHERE v.voter_id = ? AND v.position_id = ?
		   AND NOT EXISTS (SELECT 1 FROM vote_invalidations vi WHERE vi.vote_id = v.id)`,
		voterID, positionID)
	return count, err
}

// InsertVoteTx appends one vote row to the ledger inside a transaction. The
// UNIQUE constraint on (voter_id, position_id, candidate_id) rejects the
// second writer in a race; callers detect that with IsUniqueViolation.
func (r *Repository) InsertVoteTx(ctx context.Context, tx *sqlx.Tx, voterID, positionID, candidateID int64) (*models.Vote, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO votes (voter_id, position_id, candidate_id) VALUES (?, ?, ?)`,
		voterID, positionID, candidateID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var vote models.Vote
	if err := tx.GetContext(ctx, &vote, `SELECT * FROM votes WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &vote, nil
}

// CountVotes counts the valid vote rows a voter holds for a position.
func (r *Repository) CountVotes(ctx context.Context, voterID, positionID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM votes v
		 WHERE v.voter_id = ? AND v.position_id = ?
		   AND NOT EXISTS (SELECT 1 FROM vote_invalidations vi WHERE vi.vote_id = v.id)`,
		voterID, positionID)
	return count, err
}

// InvalidateVote records an audited invalidation for a vote. The vote row
// itself is never updated or deleted; the UNIQUE constraint on vote_id keeps
// invalidation idempotent per vote.
func (r *Repository) InvalidateVote(ctx context.Context, voteID, actorID int64, reason string) (*models.VoteInvalidation, error) {
	// Resolve the vote first so an unknown id reports not-found instead of
	// surfacing as a foreign key violation.
	var exists int64
	if err := r.db.GetContext(ctx, &exists, `SELECT id FROM votes WHERE id = ?`, voteID); err != nil {
		return nil, wrapError(err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vote_invalidations (vote_id, reason, actor_id) VALUES (?, ?, ?)`,
		voteID, reason, actorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var inv models.VoteInvalidation
	if err := r.db.GetContext(ctx, &inv, `SELECT * FROM vote_invalidations WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &inv, nil
}
