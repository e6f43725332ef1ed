// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Candidate stands for exactly one position. VoterID links a self-candidacy
// to a voter account; external candidates carry only a display name.
type Candidate struct { //nolint:govet // fieldalignment: readability over optimization
	ID          int64     `db:"id" json:"id"`
	PositionID  int64     `db:"position_id" json:"position_id"`
	VoterID     *int64    `db:"voter_id" json:"voter_id,omitempty"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
