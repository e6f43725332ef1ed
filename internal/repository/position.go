// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// CreatePosition creates a new position for an election. The unique index on
// (election_id, name) rejects duplicate position names.
func (r *Repository) CreatePosition(ctx context.Context, electionID int64, name string, maxChoices int) (*models.Position, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO positions (election_id, name, max_choices) VALUES (?, ?, ?)`,
		electionID, name, maxChoices)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetPositionByID(ctx, id)
}

// GetPositionByID retrieves a position by ID.
func (r *Repository) GetPositionByID(ctx context.Context, id int64) (*models.Position, error) {
	var position models.Position
	if err := r.db.GetContext(ctx, &position, `SELECT * FROM positions WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &position, nil
}

// GetPositionTx retrieves a position inside a transaction.
func (r *Repository) GetPositionTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Position, error) {
	var position models.Position
	if err := tx.GetContext(ctx, &position, `SELECT * FROM positions WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &position, nil
}

// ListPositions returns all positions of an election in creation order.
func (r *Repository) ListPositions(ctx context.Context, electionID int64) ([]models.Position, error) {
	var positions []models.Position
	if err := r.db.SelectContext(ctx, &positions,
		`SELECT * FROM positions WHERE election_id = ? ORDER BY id`, electionID); err != nil {
		return nil, err
	}
	return positions, nil
}

// DeletePosition deletes a position and, via cascade, its candidates.
func (r *Repository) DeletePosition(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id)
	return err
}
