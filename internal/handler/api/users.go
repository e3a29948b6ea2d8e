// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/rbac"
	"github.com/olegiv/oblog-go/internal/store"
)

// ListUsers returns user accounts the caller is allowed to see: moderators
// never see admin-level accounts, admins never see super admins.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	users, err := h.queries.ListUsers(r.Context(), rbac.HiddenUserRoleNames(*user))
	if err != nil {
		h.logger.Error("user listing failed", "error", err)
		WriteInternalError(w, "Failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	WriteSuccess(w, users, nil)
}

// UserRequest is the create/update payload for a user account.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	RoleID   int64  `json:"role_id"`
}

// CreateUser creates an account. The caller must be allowed to hand out the
// requested role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fieldErrors := validateAccountFields(req.Username, req.Email, req.Password); len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	role, ok := h.requireAssignableRole(w, r, *actor, req.RoleID)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now()
	created, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		RoleID:       role.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"account": "Username or email already taken"})
			return
		}
		h.logger.Error("user creation failed", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User created", &actor.ID,
		map[string]any{"user_id": created.ID, "role": role.Name})

	WriteCreated(w, created)
}

// UpdateUser edits an account the caller may touch. Role changes run
// through the assignment guard.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	target, ok := requireEntityByID(w, r, "user", func(id int64) (model.User, error) {
		return h.queries.GetUserByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if !rbac.CanEditUser(*actor, target) {
		WriteForbidden(w, "You may not edit this user")
		return
	}

	var req UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" {
		req.Username = target.Username
	}
	if req.Email == "" {
		req.Email = target.Email
	}

	roleID := target.RoleID
	if req.RoleID != 0 && req.RoleID != target.RoleID {
		role, ok := h.requireAssignableRole(w, r, *actor, req.RoleID)
		if !ok {
			return
		}
		roleID = role.ID
	}

	updated, err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:        target.ID,
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		RoleID:    roleID,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"account": "Username or email already taken"})
			return
		}
		h.logger.Error("user update failed", "user_id", target.ID, "error", err)
		WriteInternalError(w, "Failed to update user")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User updated", &actor.ID,
		map[string]any{"user_id": updated.ID})

	WriteSuccess(w, updated, nil)
}

// DeleteUser removes an account the caller may touch. Self-deletion is
// rejected so an instance cannot lose its last admin by accident, and an
// account still referenced as a post author conflicts: the posts must be
// deleted or reassigned first (author_id carries a foreign key).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	target, ok := requireEntityByID(w, r, "user", func(id int64) (model.User, error) {
		return h.queries.GetUserByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if target.ID == actor.ID {
		WriteConflict(w, "You cannot delete your own account")
		return
	}
	if !rbac.CanEditUser(*actor, target) {
		WriteForbidden(w, "You may not delete this user")
		return
	}

	authored, err := h.queries.CountPostsByAuthor(r.Context(), target.ID)
	if err != nil {
		h.logger.Error("authored post count failed", "user_id", target.ID, "error", err)
		WriteInternalError(w, "Failed to delete user")
		return
	}
	if authored > 0 {
		WriteConflict(w, "User has authored posts; delete or reassign them first")
		return
	}

	if err := h.queries.DeleteUser(r.Context(), target.ID); err != nil {
		h.logger.Error("user deletion failed", "user_id", target.ID, "error", err)
		WriteInternalError(w, "Failed to delete user")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User deleted", &actor.ID,
		map[string]any{"user_id": target.ID, "username": target.Username})

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// requireAssignableRole loads a role and checks the actor may assign it.
// Returns false after writing the error response.
func (h *Handler) requireAssignableRole(w http.ResponseWriter, r *http.Request, actor model.User, roleID int64) (model.Role, bool) {
	role, err := h.queries.GetRoleByID(r.Context(), roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteValidationError(w, map[string]string{"role_id": "Role does not exist"})
		} else {
			WriteInternalError(w, "Failed to load role")
		}
		return model.Role{}, false
	}
	if !rbac.CanAssignRole(actor, role.Name) {
		WriteForbidden(w, "You may not assign this role")
		return model.Role{}, false
	}
	return role, true
}
