// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Voter is an identity record. A voter may also appear as a candidate, the
// two roles are linked only through Candidate.VoterID.
type Voter struct { //nolint:govet // fieldalignment: readability over optimization
	ID              int64      `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	DisplayName     string     `db:"display_name" json:"display_name"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	EmailVerifiedAt *time.Time `db:"email_verified_at" json:"email_verified_at"`
	IsAdmin         bool       `db:"is_admin" json:"is_admin"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Verified reports whether the voter's email address has been confirmed.
func (v *Voter) Verified() bool {
	return v.EmailVerifiedAt != nil
}
