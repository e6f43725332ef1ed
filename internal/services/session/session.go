// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and validates signed session cookies.
package session

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"codeberg.org/oliverandrich/univote/internal/config"
)

// Data is the payload stored in a session cookie.
type Data struct { //nolint:govet // fieldalignment: readability over optimization
	ID      string `json:"id"`
	VoterID int64  `json:"voter_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Manager signs and validates session cookies.
type Manager struct { //nolint:govet // fieldalignment: readability over optimization
	sc         *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a session manager. HashKey must be a 32-byte hex string,
// BlockKey is optional and enables payload encryption.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := hex.DecodeString(cfg.HashKey)
	if err != nil || len(hashKey) != 32 {
		return nil, fmt.Errorf("invalid session hash key: must be a 32-byte hex string")
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = hex.DecodeString(cfg.BlockKey)
		if err != nil || len(blockKey) != 32 {
			return nil, fmt.Errorf("invalid session block key: must be a 32-byte hex string")
		}
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(cfg.MaxAge)
	sc.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		sc:         sc,
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     secure,
	}, nil
}

// Create issues a new signed session cookie for a voter.
func (m *Manager) Create(voterID int64, email string, isAdmin bool) (*http.Cookie, error) {
	data := Data{
		ID:      uuid.NewString(),
		VoterID: voterID,
		Email:   email,
		IsAdmin: isAdmin,
	}

	encoded, err := m.sc.Encode(m.cookieName, data)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Validate decodes and verifies the session cookie from a request. It returns
// nil when no valid session is present.
func (m *Manager) Validate(r *http.Request) *Data {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}

	var data Data
	if err := m.sc.Decode(m.cookieName, cookie.Value, &data); err != nil {
		return nil
	}
	return &data
}

// Destroy returns an expired cookie that clears the session.
func (m *Manager) Destroy() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
