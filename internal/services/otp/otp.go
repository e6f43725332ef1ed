// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp issues and consumes one-time codes for email verification and
// code-based login. Only SHA-256 hashes are stored; a newer code supersedes
// any older unconsumed code for the same email and purpose.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/univote/internal/repository"
)

const (
	// CodeDigits is the length of a one-time code.
	CodeDigits = 6
	// CodeExpiry is how long a code stays valid.
	CodeExpiry = 15 * time.Minute
)

var (
	// ErrCodeInvalid covers unknown, expired and non-matching codes. The
	// caller gets no hint which of the three it was.
	ErrCodeInvalid = errors.New("one-time code invalid or expired")
)

// Service manages one-time codes.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new OTP service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GenerateCode returns a random numeric code and its SHA-256 hash.
func GenerateCode() (string, string, error) {
	limit := big.NewInt(1)
	for range CodeDigits {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate random code: %w", err)
	}
	code := fmt.Sprintf("%0*d", CodeDigits, n)
	return code, HashCode(code), nil
}

// HashCode computes the SHA-256 hash of a code.
func HashCode(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}

// Issue creates and stores a new code for an email and purpose, returning the
// plaintext code for delivery.
func (s *Service) Issue(ctx context.Context, email, purpose string) (string, error) {
	code, hash, err := GenerateCode()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(CodeExpiry)
	if err := s.repo.CreateOneTimeCode(ctx, email, hash, purpose, expiresAt); err != nil {
		return "", err
	}

	return code, nil
}

// Consume validates a submitted code and marks it consumed exactly once.
func (s *Service) Consume(ctx context.Context, email, purpose, code string) error {
	stored, err := s.repo.GetOneTimeCode(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}

	now := s.now()
	if !stored.Usable(now) {
		return ErrCodeInvalid
	}

	if subtle.ConstantTimeCompare([]byte(stored.CodeHash), []byte(HashCode(code))) != 1 {
		return ErrCodeInvalid
	}

	if err := s.repo.ConsumeOneTimeCode(ctx, stored.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}

	return nil
}

// PurgeExpired removes expired codes from storage. Expired codes are already
// unusable, this only keeps the table small.
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.repo.DeleteExpiredOneTimeCodes(ctx)
}
