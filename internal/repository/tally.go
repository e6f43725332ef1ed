// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TallyRow is one (position, candidate) aggregate from the vote ledger.
type TallyRow struct { //nolint:govet // fieldalignment: readability over optimization
	PositionID    int64  `db:"position_id"`
	PositionName  string `db:"position_name"`
	MaxChoices    int    `db:"max_choices"`
	CandidateID   int64  `db:"candidate_id"`
	CandidateName string `db:"candidate_name"`
	VoteCount     int64  `db:"vote_count"`
}

// PositionTotal is the valid vote count for one position, used to reconcile
// aggregated candidate counts. It carries the position attributes so every
// position of the election appears in results, with or without candidates.
type PositionTotal struct { //nolint:govet // fieldalignment: readability over optimization
	PositionID   int64  `db:"position_id"`
	PositionName string `db:"position_name"`
	MaxChoices   int    `db:"max_choices"`
	Total        int64  `db:"total"`
}

// ElectionTally reads the aggregated tally for an election in a single
// read-only transaction so candidate counts and position totals come from one
// consistent snapshot. Candidates are grouped in one query instead of one
// count query per candidate; rows are ordered by vote count descending with
// candidate creation order (id ascending) as the tie-break.
func (r *Repository) ElectionTally(ctx context.Context, electionID int64) ([]TallyRow, []PositionTotal, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback() //nolint:errcheck // read-only transaction

	var rows []TallyRow
	err = tx.SelectContext(ctx, &rows,
		`SELECT p.id   AS position_id,
		        p.name AS position_name,
		        p.max_choices,
		        c.id   AS candidate_id,
		        c.display_name AS candidate_name,
		        COUNT(v.id) AS vote_count
		 FROM positions p
		 JOIN candidates c ON c.position_id = p.id
		 LEFT JOIN votes v ON v.candidate_id = c.id AND v.position_id = p.id
		      AND NOT EXISTS (SELECT 1 FROM vote_invalidations vi WHERE vi.vote_id = v.id)
		 WHERE p.election_id = ?
		 GROUP BY p.id, c.id
		 ORDER BY p.id, vote_count DESC, c.id`,
		electionID)
	if err != nil {
		return nil, nil, fmt.Errorf("tally aggregation: %w", err)
	}

	var totals []PositionTotal
	err = tx.SelectContext(ctx, &totals,
		`SELECT p.id   AS position_id,
		        p.name AS position_name,
		        p.max_choices,
		        COUNT(v.id) AS total
		 FROM positions p
		 LEFT JOIN votes v ON v.position_id = p.id
		      AND NOT EXISTS (SELECT 1 FROM vote_invalidations vi WHERE vi.vote_id = v.id)
		 WHERE p.election_id = ?
		 GROUP BY p.id
		 ORDER BY p.id`,
		electionID)
	if err != nil {
		return nil, nil, fmt.Errorf("tally totals: %w", err)
	}

	return rows, totals, nil
}
