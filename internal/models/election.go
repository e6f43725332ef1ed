// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// ElectionStatus is the lifecycle phase of an election. Transitions are
// strictly forward: draft → running → closed → archived.
type ElectionStatus string

const (
	StatusDraft    ElectionStatus = "draft"
	StatusRunning  ElectionStatus = "running"
	StatusClosed   ElectionStatus = "closed"
	StatusArchived ElectionStatus = "archived"
)

// Valid reports whether s is a known lifecycle status.
func (s ElectionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusRunning, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// Election categories.
const (
	CategoryInstitution = "institution"
	CategoryDepartment  = "department"
)

// Election is a single election cycle with its positions and candidates.
type Election struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64          `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Category   string         `db:"category" json:"category"`
	Department string         `db:"department" json:"department,omitempty"`
	Status     ElectionStatus `db:"status" json:"status"`
	CreatedBy  int64          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// AcceptsVotes reports whether ballots may be recorded.
func (e *Election) AcceptsVotes() bool {
	return e.Status == StatusRunning
}

// ResultsReadable reports whether tallies may be computed.
func (e *Election) ResultsReadable() bool {
	return e.Status == StatusRunning || e.Status == StatusClosed
}

// Editable reports whether positions and candidates may be changed.
func (e *Election) Editable() bool {
	return e.Status == StatusDraft
}
