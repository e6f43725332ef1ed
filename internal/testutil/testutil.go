// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/univote/internal/database"
	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
)

// NewTestDB creates a temporary SQLite database for tests. A file-based
// database is used so concurrent connections see the same data, like in
// production. Returns both the database connection and the repository.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), uuid.NewString()+".db")
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestVoter creates a verified voter.
func NewTestVoter(t *testing.T, repo *repository.Repository, email string) *models.Voter {
	t.Helper()
	ctx := context.Background()
	voter, err := repo.CreateVoter(ctx, email, "Test Voter", "x")
	require.NoError(t, err)
	require.NoError(t, repo.MarkVoterVerified(ctx, voter.ID, time.Now()))
	voter, err = repo.GetVoterByID(ctx, voter.ID)
	require.NoError(t, err)
	return voter
}

// NewUnverifiedVoter creates a voter whose email is not verified.
func NewUnverifiedVoter(t *testing.T, repo *repository.Repository, email string) *models.Voter {
	t.Helper()
	voter, err := repo.CreateVoter(context.Background(), email, "Test Voter", "x")
	require.NoError(t, err)
	return voter
}

// NewTestElection creates an election in the given lifecycle status, owned by
// a fresh admin account.
func NewTestElection(t *testing.T, repo *repository.Repository, name string, status models.ElectionStatus) *models.Election {
	t.Helper()
	ctx := context.Background()

	owner, err := repo.CreateVoter(ctx, uuid.NewString()+"@example.com", "Owner", "x")
	require.NoError(t, err)

	election, err := repo.CreateElection(ctx, name, models.CategoryInstitution, "", owner.ID)
	require.NoError(t, err)

	for _, step := range []models.ElectionStatus{models.StatusRunning, models.StatusClosed, models.StatusArchived} {
		if election.Status == status {
			break
		}
		require.NoError(t, repo.UpdateElectionStatus(ctx, election.ID, election.Status, step))
		election, err = repo.GetElectionByID(ctx, election.ID)
		require.NoError(t, err)
	}

	require.Equal(t, status, election.Status)
	return election
}

// NewTestPosition creates a position for an election.
func NewTestPosition(t *testing.T, repo *repository.Repository, electionID int64, name string, maxChoices int) *models.Position {
	t.Helper()
	position, err := repo.CreatePosition(context.Background(), electionID, name, maxChoices)
	require.NoError(t, err)
	return position
}

// NewTestCandidate creates a candidate for a position.
func NewTestCandidate(t *testing.T, repo *repository.Repository, positionID int64, name string) *models.Candidate {
	t.Helper()
	candidate, err := repo.CreateCandidate(context.Background(), positionID, nil, name)
	require.NoError(t, err)
	return candidate
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
