// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// CreateCandidate creates a new candidate for a position.
func (r *Repository) CreateCandidate(ctx context.Context, positionID int64, voterID *int64, displayName string) (*models.Candidate, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO candidates (position_id, voter_id, display_name) VALUES (?, ?, ?)`,
		positionID, voterID, displayName)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetCandidateByID(ctx, id)
}

// GetCandidateByID retrieves a candidate by ID.
func (r *Repository) GetCandidateByID(ctx context.Context, id int64) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, `SELECT * FROM candidates WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &candidate, nil
}

// ListCandidates returns all candidates of a position in creation order.
func (r *Repository) ListCandidates(ctx context.Context, positionID int64) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates,
		`SELECT * FROM candidates WHERE position_id = ? ORDER BY id`, positionID); err != nil {
		return nil, err
	}
	return candidates, nil
}

// ListCandidateIDsTx returns the candidate IDs of a position inside a
// transaction.
func (r *Repository) ListCandidateIDsTx(ctx context.Context, tx *sqlx.Tx, positionID int64) ([]int64, error) {
	var ids []int64
	if err := tx.SelectContext(ctx, &ids,
		`SELECT id FROM candidates WHERE position_id = ? ORDER BY id`, positionID); err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteCandidate deletes a candidate.
func (r *Repository) DeleteCandidate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = ?`, id)
	return err
}
