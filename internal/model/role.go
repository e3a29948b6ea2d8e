// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"time"
)

// Built-in role names. Roles with these names are part of the fixed
// hierarchy: super_admin > admin > moderator > everything else.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
)

// Wildcard matches any resource or any action in a permission entry.
const Wildcard = "*"

// Permission grants a set of actions on a resource. A resource or action of
// Wildcard matches everything. ExcludeRoles lists role names the entry does
// not apply to, for fine-grained carve-outs.
type Permission struct {
	Resource     string   `json:"resource"`
	Actions      []string `json:"actions"`
	ExcludeRoles []string `json:"exclude_roles,omitempty"`
}

// AppliesTo reports whether the permission grants action on resource for a
// role with the given name. Permissions are additive: any matching entry
// grants, none restricts.
func (p Permission) AppliesTo(roleName, resource, action string) bool {
	if slices.Contains(p.ExcludeRoles, roleName) {
		return false
	}
	if p.Resource != Wildcard && p.Resource != resource {
		return false
	}
	return slices.Contains(p.Actions, Wildcard) || slices.Contains(p.Actions, action)
}

// Role represents a named set of permissions. System roles (is_system) can
// never be edited or deleted through the API.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsSystem    bool         `json:"is_system"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsBuiltIn returns true for the three hierarchy role names.
func IsBuiltIn(roleName string) bool {
	return roleName == RoleSuperAdmin || roleName == RoleAdmin || roleName == RoleModerator
}

// NormalizePermissions deduplicates actions within each entry and drops
// entries whose action set ends up empty.
func NormalizePermissions(perms []Permission) []Permission {
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		seen := make(map[string]struct{}, len(p.Actions))
		actions := make([]string, 0, len(p.Actions))
		for _, a := range p.Actions {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			actions = append(actions, a)
		}
		if len(actions) == 0 {
			continue
		}
		p.Actions = actions
		out = append(out, p)
	}
	return out
}
