// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rbac is the single authority for every role-hierarchy and
// permission decision in the application. Handlers and middleware never
// compare role names directly; they ask this package.
package rbac

import (
	"slices"

	"github.com/olegiv/oblog-go/internal/model"
)

// IsAuthorized reports whether a role may perform action on resource.
// The super_admin role always passes regardless of its permission list.
// Otherwise permissions are additive: any entry matching the resource
// (exact or wildcard) whose actions contain the action (or wildcard) and
// whose exclude list does not name the role grants access. No matching
// entry means denied.
func IsAuthorized(role model.Role, resource, action string) bool {
	if role.Name == model.RoleSuperAdmin {
		return true
	}
	for _, p := range role.Permissions {
		if p.AppliesTo(role.Name, resource, action) {
			return true
		}
	}
	return false
}

// CanManageRoles reports whether a role may create, edit or delete roles.
func CanManageRoles(role model.Role) bool {
	return role.Name == model.RoleAdmin || role.Name == model.RoleSuperAdmin
}

// CanEditUser reports whether actor may edit or delete target.
// Admins and super admins may touch anyone. Moderators may touch anyone
// except admin, moderator and super_admin accounts; editing your own
// account is always allowed. Everyone else is limited to self-edits.
func CanEditUser(actor, target model.User) bool {
	if actor.ID == target.ID {
		return true
	}
	switch actor.Role.Name {
	case model.RoleSuperAdmin, model.RoleAdmin:
		return true
	case model.RoleModerator:
		return !model.IsBuiltIn(target.Role.Name)
	default:
		return false
	}
}

// CanAssignRole reports whether actor may set a user's role to roleName.
// Moderators can never hand out hierarchy roles; only super_admin may
// assign super_admin.
func CanAssignRole(actor model.User, roleName string) bool {
	switch actor.Role.Name {
	case model.RoleSuperAdmin:
		return true
	case model.RoleAdmin:
		return roleName != model.RoleSuperAdmin
	case model.RoleModerator:
		return !model.IsBuiltIn(roleName)
	default:
		return false
	}
}

// CanModifyPost reports whether actor may update or delete the given post.
// The author always can; admins and super admins can for any post.
func CanModifyPost(actor model.User, post model.Post) bool {
	return post.AuthorID == actor.ID || actor.IsAdmin()
}

// HiddenRoleNames returns the role names an actor must not see when listing
// roles. Super admins see everything, admins see everything below them, and
// every other role only sees custom roles.
func HiddenRoleNames(actor model.User) []string {
	switch actor.Role.Name {
	case model.RoleSuperAdmin:
		return nil
	case model.RoleAdmin:
		return []string{model.RoleSuperAdmin}
	default:
		return []string{model.RoleSuperAdmin, model.RoleAdmin, model.RoleModerator}
	}
}

// HiddenUserRoleNames returns the role names whose accounts an actor must
// not see when listing users: moderators never see admin-level accounts,
// admins never see super admins.
func HiddenUserRoleNames(actor model.User) []string {
	switch actor.Role.Name {
	case model.RoleSuperAdmin:
		return nil
	case model.RoleAdmin:
		return []string{model.RoleSuperAdmin}
	default:
		return []string{model.RoleSuperAdmin, model.RoleAdmin}
	}
}

// RoleVisible reports whether a role name passes the HiddenRoleNames filter.
func RoleVisible(actor model.User, roleName string) bool {
	return !slices.Contains(HiddenRoleNames(actor), roleName)
}
