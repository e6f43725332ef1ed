// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// CreateElection creates a new election in draft state.
func (r *Repository) CreateElection(ctx context.Context, name, category, department string, createdBy int64) (*models.Election, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO elections (name, category, department, created_by) VALUES (?, ?, ?, ?)`,
		name, category, department, createdBy)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetElectionByID(ctx, id)
}

// GetElectionByID retrieves an election by ID.
func (r *Repository) GetElectionByID(ctx context.Context, id int64) (*models.Election, error) {
	var election models.Election
	if err := r.db.GetContext(ctx, &election, `SELECT * FROM elections WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &election, nil
}

// ListElections returns all elections ordered by creation date (newest first).
func (r *Repository) ListElections(ctx context.Context) ([]models.Election, error) {
	var elections []models.Election
	if err := r.db.SelectContext(ctx, &elections, `SELECT * FROM elections ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, err
	}
	return elections, nil
}

// UpdateElectionStatus moves an election to a new lifecycle status only if it
// is currently in the expected status. It returns ErrNotFound when the guard
// does not match, so concurrent transitions cannot skip a phase.
func (r *Repository) UpdateElectionStatus(ctx context.Context, id int64, from, to models.ElectionStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE elections SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
