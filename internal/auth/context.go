// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth carries the authenticated voter identity through the request
// context. Core operations receive the explicit voter, never the request.
package auth

import "context"

// Voter is the authenticated identity attached to a request.
type Voter struct { //nolint:govet // fieldalignment: readability over optimization
	ID       int64
	Email    string
	Verified bool
	IsAdmin  bool
}

type voterContextKey struct{}

// SetVoter stores the voter in the context.
func SetVoter(ctx context.Context, v *Voter) context.Context {
	return context.WithValue(ctx, voterContextKey{}, v)
}

// GetVoter returns the voter from the context, or nil.
func GetVoter(ctx context.Context) *Voter {
	v, _ := ctx.Value(voterContextKey{}).(*Voter)
	return v
}

// IsAuthenticated reports whether a voter is attached to the context.
func IsAuthenticated(ctx context.Context) bool {
	return GetVoter(ctx) != nil
}
