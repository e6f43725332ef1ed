// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/univote/internal/models"
)

// CreateOneTimeCode stores a hashed one-time code. Older unconsumed codes for
// the same (email, purpose) are superseded and deleted first.
func (r *Repository) CreateOneTimeCode(ctx context.Context, email, codeHash, purpose string, expiresAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`DELETE FROM one_time_codes WHERE email = ? AND purpose = ? AND consumed_at IS NULL`,
		email, purpose)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO one_time_codes (email, code_hash, purpose, expires_at) VALUES (?, ?, ?, ?)`,
		email, codeHash, purpose, expiresAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetOneTimeCode retrieves the newest code for an email and purpose.
func (r *Repository) GetOneTimeCode(ctx context.Context, email, purpose string) (*models.OneTimeCode, error) {
	var code models.OneTimeCode
	err := r.db.GetContext(ctx, &code,
		`SELECT * FROM one_time_codes WHERE email = ? AND purpose = ? ORDER BY id DESC LIMIT 1`,
		email, purpose)
	if err != nil {
		return nil, wrapError(err)
	}
	return &code, nil
}

// ConsumeOneTimeCode marks a code consumed exactly once. It returns
// ErrNotFound when the code was already consumed.
func (r *Repository) ConsumeOneTimeCode(ctx context.Context, id int64, consumedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE one_time_codes SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		consumedAt, id)
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

// DeleteExpiredOneTimeCodes deletes codes past their expiry.
func (r *Repository) DeleteExpiredOneTimeCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM one_time_codes WHERE expires_at < ?`, time.Now())
	return err
}
