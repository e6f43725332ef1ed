// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// One-time code purposes.
const (
	PurposeVerifyEmail = "verify_email"
	PurposeLogin       = "login"
)

// OneTimeCode stores a hashed short-lived code mailed to a voter. A newer
// unconsumed code for the same (email, purpose) supersedes older ones.
type OneTimeCode struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64      `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	CodeHash   string     `db:"code_hash" json:"-"` // SHA256 hash
	Purpose    string     `db:"purpose" json:"purpose"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Usable reports whether the code can still be consumed at the given time.
func (c *OneTimeCode) Usable(now time.Time) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt)
}
