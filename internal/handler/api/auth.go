// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// CheckSetupResponse reports whether first-run setup is still open.
type CheckSetupResponse struct {
	NeedsSetup bool `json:"needs_setup"`
}

// CheckSetup returns whether the instance still needs its first admin.
func (h *Handler) CheckSetup(w http.ResponseWriter, r *http.Request) {
	open, err := h.setupOpen(r)
	if err != nil {
		h.logger.Error("setup check failed", "error", err)
		WriteInternalError(w, "Failed to check setup state")
		return
	}
	WriteSuccess(w, CheckSetupResponse{NeedsSetup: open}, nil)
}

func (h *Handler) setupOpen(r *http.Request) (bool, error) {
	users, err := h.queries.CountUsers(r.Context())
	if err != nil {
		return false, err
	}
	roles, err := h.queries.CountRoles(r.Context())
	if err != nil {
		return false, err
	}
	return users == 0 && roles == 0, nil
}

// SetupRequest is the first-run setup payload.
type SetupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a fresh bearer token.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"`
	User      model.User `json:"user"`
}

// Setup performs one-time initialization: it creates the system admin role
// with a full wildcard grant and the first user, inside one transaction so a
// concurrent setup cannot produce half a configuration.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	open, err := h.setupOpen(r)
	if err != nil {
		h.logger.Error("setup check failed", "error", err)
		WriteInternalError(w, "Failed to check setup state")
		return
	}
	if !open {
		WriteConflict(w, "Setup has already been completed")
		return
	}

	var req SetupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fieldErrors := validateAccountFields(req.Username, req.Email, req.Password); len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		WriteInternalError(w, "Failed to create account")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		WriteInternalError(w, "Failed to run setup")
		return
	}
	defer tx.Rollback() //nolint:errcheck

	qtx := h.queries.WithTx(tx)
	now := time.Now()

	role, err := qtx.CreateRole(r.Context(), store.CreateRoleParams{
		Name:        model.RoleAdmin,
		Description: "Administrator",
		IsSystem:    true,
		Permissions: []model.Permission{{Resource: model.Wildcard, Actions: []string{model.Wildcard}}},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		h.logger.Error("setup role creation failed", "error", err)
		WriteInternalError(w, "Failed to run setup")
		return
	}

	user, err := qtx.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		RoleID:       role.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		h.logger.Error("setup user creation failed", "error", err)
		WriteInternalError(w, "Failed to run setup")
		return
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to run setup")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		WriteInternalError(w, "Setup succeeded but login failed; log in manually")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategorySystem, "Initial setup completed", &user.ID,
		map[string]any{"username": user.Username})

	WriteCreated(w, LoginResponse{
		Token:     token,
		ExpiresIn: int64(auth.TokenTTL.Seconds()),
		User:      user,
	})
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if locked, remaining := h.login.IsAccountLocked(email); locked {
		WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
			fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Second)), nil)
		return
	}

	user, err := auth.VerifyCredentials(r.Context(), h.queries, email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.login.RecordFailedAttempt(email)
			h.logger.Warn("login failed", "category", model.EventCategoryAuth, "email", email)
			WriteUnauthorized(w, "Invalid email or password")
			return
		}
		h.logger.Error("login failed", "error", err)
		WriteInternalError(w, "Login failed")
		return
	}

	h.login.RecordSuccessfulLogin(email)

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		WriteInternalError(w, "Login failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryAuth, "User logged in", &user.ID, nil)

	WriteSuccess(w, LoginResponse{
		Token:     token,
		ExpiresIn: int64(auth.TokenTTL.Seconds()),
		User:      user,
	}, nil)
}

// Me returns the authenticated user with its role.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, user, nil)
}

// ChangePasswordRequest is the self-service password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword lets the authenticated user rotate their own password.
// The current password must be presented again.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		WriteValidationError(w, map[string]string{
			"new_password": fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength),
		})
		return
	}

	ok, err := auth.CheckPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		WriteUnauthorized(w, "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		WriteInternalError(w, "Failed to change password")
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now()); err != nil {
		h.logger.Error("password update failed", "error", err)
		WriteInternalError(w, "Failed to change password")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryAuth, "Password changed", &user.ID, nil)
	WriteSuccess(w, map[string]string{"status": "password changed"}, nil)
}

// validateAccountFields checks the shared username/email/password rules.
func validateAccountFields(username, email, password string) map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(username) == "" {
		fieldErrors["username"] = "Username is required"
	}
	if !strings.Contains(email, "@") {
		fieldErrors["email"] = "A valid email is required"
	}
	if len(password) < auth.MinPasswordLength {
		fieldErrors["password"] = fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
	}
	return fieldErrors
}
