// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/services/otp"
	"codeberg.org/oliverandrich/univote/internal/testutil"
)

func TestGenerateCode(t *testing.T) {
	code, hash, err := otp.GenerateCode()

	require.NoError(t, err)
	assert.Len(t, code, otp.CodeDigits)
	assert.Equal(t, otp.HashCode(code), hash)
	assert.NotEqual(t, code, hash)
}

func TestIssueAndConsume(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := otp.New(repo)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "voter@example.com", models.PurposeVerifyEmail)
	require.NoError(t, err)

	err = svc.Consume(ctx, "voter@example.com", models.PurposeVerifyEmail, code)
	assert.NoError(t, err)

	// A code is consumed exactly once.
	err = svc.Consume(ctx, "voter@example.com", models.PurposeVerifyEmail, code)
	assert.ErrorIs(t, err, otp.ErrCodeInvalid)
}

func TestConsume_WrongCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := otp.New(repo)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "voter@example.com", models.PurposeLogin)
	require.NoError(t, err)

	err = svc.Consume(ctx, "voter@example.com", models.PurposeLogin, "000000")
	// Could collide with the generated code once in a million runs, accept
	// the flake odds.
	assert.ErrorIs(t, err, otp.ErrCodeInvalid)
}

func TestConsume_UnknownEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := otp.New(repo)

	err := svc.Consume(context.Background(), "nobody@example.com", models.PurposeLogin, "123456")

	assert.ErrorIs(t, err, otp.ErrCodeInvalid)
}

func TestIssue_SupersedesOlderCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := otp.New(repo)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "voter@example.com", models.PurposeLogin)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "voter@example.com", models.PurposeLogin)
	require.NoError(t, err)

	// The first code is gone, only the newest one works.
	err = svc.Consume(ctx, "voter@example.com", models.PurposeLogin, first)
	assert.ErrorIs(t, err, otp.ErrCodeInvalid)

	err = svc.Consume(ctx, "voter@example.com", models.PurposeLogin, second)
	assert.NoError(t, err)
}

func TestIssue_PurposesAreIndependent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := otp.New(repo)
	ctx := context.Background()

	verify, err := svc.Issue(ctx, "voter@example.com", models.PurposeVerifyEmail)
	require.NoError(t, err)
	login, err := svc.Issue(ctx, "voter@example.com", models.PurposeLogin)
	require.NoError(t, err)

	assert.NoError(t, svc.Consume(ctx, "voter@example.com", models.PurposeVerifyEmail, verify))
	assert.NoError(t, svc.Consume(ctx, "voter@example.com", models.PurposeLogin, login))
}
