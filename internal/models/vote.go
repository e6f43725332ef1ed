// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Vote is one immutable ledger row. Rows are insert-only; corrections happen
// through VoteInvalidation, never by updating or deleting a vote.
type Vote struct { //nolint:govet // fieldalignment: readability over optimization
	ID          int64     `db:"id" json:"id"`
	VoterID     int64     `db:"voter_id" json:"voter_id"`
	PositionID  int64     `db:"position_id" json:"position_id"`
	CandidateID int64     `db:"candidate_id" json:"candidate_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// VoteInvalidation is the audit record for a corrected vote. The referenced
// vote stays in the ledger but is excluded from tallies.
type VoteInvalidation struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	VoteID    int64     `db:"vote_id" json:"vote_id"`
	Reason    string    `db:"reason" json:"reason"`
	ActorID   int64     `db:"actor_id" json:"actor_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
