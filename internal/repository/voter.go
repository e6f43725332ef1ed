// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// CreateVoter creates a new voter account.
func (r *Repository) CreateVoter(ctx context.Context, email, displayName, passwordHash string) (*models.Voter, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO voters (email, display_name, password_hash) VALUES (?, ?, ?)`,
		email, displayName, passwordHash)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetVoterByID(ctx, id)
}

// GetVoterByID retrieves a voter by ID.
func (r *Repository) GetVoterByID(ctx context.Context, id int64) (*models.Voter, error) {
	var voter models.Voter
	if err := r.db.GetContext(ctx, &voter, `SELECT * FROM voters WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &voter, nil
}

// GetVoterByEmail retrieves a voter by email address.
func (r *Repository) GetVoterByEmail(ctx context.Context, email string) (*models.Voter, error) {
	var voter models.Voter
	if err := r.db.GetContext(ctx, &voter, `SELECT * FROM voters WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &voter, nil
}

// VoterExists checks if a voter with the given email exists.
func (r *Repository) VoterExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM voters WHERE email = ?`, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkVoterVerified records the email verification time for a voter.
func (r *Repository) MarkVoterVerified(ctx context.Context, id int64, verifiedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE voters SET email_verified_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		verifiedAt, id)
	return err
}

// SetVoterAdmin sets or removes admin status for a voter.
func (r *Repository) SetVoterAdmin(ctx context.Context, id int64, isAdmin bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE voters SET is_admin = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		isAdmin, id)
	return err
}

// CountVoters returns the total number of voters.
func (r *Repository) CountVoters(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM voters`); err != nil {
		return 0, err
	}
	return count, nil
}
