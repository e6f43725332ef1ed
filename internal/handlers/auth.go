// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/univote/internal/auth"
	"codeberg.org/oliverandrich/univote/internal/models"
	"codeberg.org/oliverandrich/univote/internal/repository"
	"codeberg.org/oliverandrich/univote/internal/services/email"
	"codeberg.org/oliverandrich/univote/internal/services/otp"
	"codeberg.org/oliverandrich/univote/internal/services/session"
)

// AuthHandlers contains handlers for voter registration and login.
type AuthHandlers struct {
	repo     *repository.Repository
	codes    *otp.Service
	mailer   *email.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance. The mailer may be nil, in
// which case codes are only logged (development setups).
func NewAuth(repo *repository.Repository, codes *otp.Service, mailer *email.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		repo:     repo,
		codes:    codes,
		mailer:   mailer,
		sessions: sessions,
	}
}

// RegisterRequest is the request body for voter registration.
type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Register creates a voter account and mails a verification code.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	exists, err := h.repo.VoterExists(c.Request().Context(), req.Email)
	if err != nil {
		return domainError(c, err)
	}
	if exists {
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
	}

	count, err := h.repo.CountVoters(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}

	voter, err := h.repo.CreateVoter(c.Request().Context(), req.Email, req.DisplayName, hash)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
		}
		return domainError(c, err)
	}

	// The first account to register administers the instance.
	if count == 0 {
		if err := h.repo.SetVoterAdmin(c.Request().Context(), voter.ID, true); err != nil {
			return domainError(c, err)
		}
		voter.IsAdmin = true
		slog.Info("first registered voter granted admin", "voter_id", voter.ID)
	}

	h.sendCode(c, voter.Email, models.PurposeVerifyEmail)

	return c.JSON(http.StatusCreated, voter)
}

// VerifyRequest is the request body for email verification.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify consumes a verification code and marks the voter verified.
func (h *AuthHandlers) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	voter, err := h.repo.GetVoterByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "code invalid or expired"})
		}
		return domainError(c, err)
	}

	if err := h.codes.Consume(c.Request().Context(), req.Email, models.PurposeVerifyEmail, req.Code); err != nil {
		if errors.Is(err, otp.ErrCodeInvalid) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "code invalid or expired"})
		}
		return domainError(c, err)
	}

	if err := h.repo.MarkVoterVerified(c.Request().Context(), voter.ID, time.Now()); err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "verified"})
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a voter by password and issues a session cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	voter, err := h.repo.GetVoterByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return domainError(c, err)
	}

	if !auth.CheckPassword(voter.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	return h.createSession(c, voter)
}

// RequestCodeRequest is the request body for requesting a login code.
type RequestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCode issues a one-time login code. The response does not reveal
// whether the address is registered.
func (h *AuthHandlers) RequestCode(c echo.Context) error {
	var req RequestCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := h.repo.VoterExists(c.Request().Context(), req.Email)
	if err != nil {
		return domainError(c, err)
	}
	if exists {
		h.sendCode(c, req.Email, models.PurposeLogin)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "code sent if the address is registered"})
}

// LoginWithCodeRequest is the request body for code-based login.
type LoginWithCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginWithCode authenticates a voter with a one-time code.
func (h *AuthHandlers) LoginWithCode(c echo.Context) error {
	var req LoginWithCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	voter, err := h.repo.GetVoterByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return domainError(c, err)
	}

	if err := h.codes.Consume(c.Request().Context(), req.Email, models.PurposeLogin, req.Code); err != nil {
		if errors.Is(err, otp.ErrCodeInvalid) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return domainError(c, err)
	}

	return h.createSession(c, voter)
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Destroy())
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandlers) createSession(c echo.Context, voter *models.Voter) error {
	cookie, err := h.sessions.Create(voter.ID, voter.Email, voter.IsAdmin)
	if err != nil {
		slog.Error("failed to create session", "error", err, "voter_id", voter.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, voter)
}

// sendCode issues and delivers a one-time code. Delivery failures are logged,
// the voter can always request a fresh code.
func (h *AuthHandlers) sendCode(c echo.Context, toEmail, purpose string) {
	ctx := c.Request().Context()

	code, err := h.codes.Issue(ctx, toEmail, purpose)
	if err != nil {
		slog.Error("failed to issue one-time code", "error", err, "purpose", purpose)
		return
	}

	if h.mailer == nil {
		slog.Info("one-time code issued (no mailer configured)", "email", toEmail, "purpose", purpose)
		return
	}

	if err := h.mailer.SendOneTimeCode(ctx, toEmail, code, purpose); err != nil {
		slog.Error("failed to send one-time code", "error", err, "purpose", purpose)
	}
}
