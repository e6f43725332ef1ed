// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Position is a seat up for election. Name is unique within its election,
// MaxChoices is the number of candidates a single voter may select.
type Position struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64     `db:"id" json:"id"`
	ElectionID int64     `db:"election_id" json:"election_id"`
	Name       string    `db:"name" json:"name"`
	MaxChoices int       `db:"max_choices" json:"max_choices"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
