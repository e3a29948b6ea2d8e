// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/rbac"
	"github.com/olegiv/oblog-go/internal/store"
)

// ListRoles returns the roles visible to the caller. The super_admin role is
// hidden from everyone below super_admin.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	roles, err := h.queries.ListRoles(r.Context(), rbac.HiddenRoleNames(*user))
	if err != nil {
		h.logger.Error("role listing failed", "error", err)
		WriteInternalError(w, "Failed to list roles")
		return
	}
	if roles == nil {
		roles = []model.Role{}
	}
	WriteSuccess(w, roles, nil)
}

// RoleRequest is the create/update payload for a role.
type RoleRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Permissions []model.Permission `json:"permissions"`
}

// CreateRole creates a custom role. Built-in role names are reserved.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	if !rbac.CanManageRoles(actor.Role) {
		WriteForbidden(w, "You may not manage roles")
		return
	}

	var req RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}
	if model.IsBuiltIn(req.Name) {
		WriteValidationError(w, map[string]string{"name": "This role name is reserved"})
		return
	}

	now := time.Now()
	role, err := h.queries.CreateRole(r.Context(), store.CreateRoleParams{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"name": "A role with this name already exists"})
			return
		}
		h.logger.Error("role creation failed", "error", err)
		WriteInternalError(w, "Failed to create role")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryRole, "Role created", &actor.ID,
		map[string]any{"role_id": role.ID, "name": role.Name})

	WriteCreated(w, role)
}

// UpdateRole edits a custom role. System roles cannot be changed.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	if !rbac.CanManageRoles(actor.Role) {
		WriteForbidden(w, "You may not manage roles")
		return
	}

	role, ok := requireEntityByID(w, r, "role", func(id int64) (model.Role, error) {
		return h.queries.GetRoleByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if role.IsSystem {
		WriteConflict(w, "System roles cannot be modified")
		return
	}
	if !rbac.RoleVisible(*actor, role.Name) {
		WriteForbidden(w, "You may not manage this role")
		return
	}

	var req RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = role.Name
	}
	if req.Name != role.Name && model.IsBuiltIn(req.Name) {
		WriteValidationError(w, map[string]string{"name": "This role name is reserved"})
		return
	}

	updated, err := h.queries.UpdateRole(r.Context(), store.UpdateRoleParams{
		ID:          role.ID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"name": "A role with this name already exists"})
			return
		}
		h.logger.Error("role update failed", "role_id", role.ID, "error", err)
		WriteInternalError(w, "Failed to update role")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryRole, "Role updated", &actor.ID,
		map[string]any{"role_id": updated.ID, "name": updated.Name})

	WriteSuccess(w, updated, nil)
}

// DeleteRole removes a custom role that no user holds.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	if !rbac.CanManageRoles(actor.Role) {
		WriteForbidden(w, "You may not manage roles")
		return
	}

	role, ok := requireEntityByID(w, r, "role", func(id int64) (model.Role, error) {
		return h.queries.GetRoleByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if role.IsSystem {
		WriteConflict(w, "System roles cannot be deleted")
		return
	}

	inUse, err := h.queries.CountUsersWithRole(r.Context(), role.ID)
	if err != nil {
		h.logger.Error("role usage check failed", "role_id", role.ID, "error", err)
		WriteInternalError(w, "Failed to delete role")
		return
	}
	if inUse > 0 {
		WriteConflict(w, "Role is assigned to users and cannot be deleted")
		return
	}

	if err := h.queries.DeleteRole(r.Context(), role.ID); err != nil {
		h.logger.Error("role deletion failed", "role_id", role.ID, "error", err)
		WriteInternalError(w, "Failed to delete role")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryRole, "Role deleted", &actor.ID,
		map[string]any{"role_id": role.ID, "name": role.Name})

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}
