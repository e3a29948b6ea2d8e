// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package rbac

import (
	"testing"

	"github.com/olegiv/oblog-go/internal/model"
)

func roleNamed(name string, perms ...model.Permission) model.Role {
	return model.Role{Name: name, Permissions: perms}
}

func userWithRole(id int64, roleName string) model.User {
	return model.User{ID: id, Role: model.Role{Name: roleName}}
}

func TestIsAuthorized(t *testing.T) {
	allPosts := model.Permission{Resource: "posts", Actions: []string{model.Wildcard}}
	readAll := model.Permission{Resource: model.Wildcard, Actions: []string{"read"}}

	tests := []struct {
		name     string
		role     model.Role
		resource string
		action   string
		want     bool
	}{
		{"super_admin always passes", roleNamed(model.RoleSuperAdmin), "roles", "delete", true},
		{"super_admin passes with empty permissions", roleNamed(model.RoleSuperAdmin), "anything", "anything", true},
		{"matching entry grants", roleNamed("editor", allPosts), "posts", "update", true},
		{"wildcard resource grants", roleNamed("viewer", readAll), "tags", "read", true},
		{"no entry denies", roleNamed("viewer", readAll), "tags", "delete", false},
		{"empty role denies", roleNamed("nobody"), "posts", "read", false},
		{
			"exclude list carves out the role",
			roleNamed("editor", model.Permission{
				Resource: "posts", Actions: []string{model.Wildcard}, ExcludeRoles: []string{"editor"},
			}),
			"posts", "read", false,
		},
		{
			"union of entries is additive",
			roleNamed("mixed",
				model.Permission{Resource: "posts", Actions: []string{"read"}},
				model.Permission{Resource: "posts", Actions: []string{"create"}},
			),
			"posts", "create", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthorized(tt.role, tt.resource, tt.action); got != tt.want {
				t.Errorf("IsAuthorized(%s, %s, %s) = %v, want %v",
					tt.role.Name, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanEditUser(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.User
		target model.User
		want   bool
	}{
		{"admin edits anyone", userWithRole(1, model.RoleAdmin), userWithRole(2, model.RoleModerator), true},
		{"super_admin edits admin", userWithRole(1, model.RoleSuperAdmin), userWithRole(2, model.RoleAdmin), true},
		{"moderator edits plain user", userWithRole(1, model.RoleModerator), userWithRole(2, "author"), true},
		{"moderator blocked from admin", userWithRole(1, model.RoleModerator), userWithRole(2, model.RoleAdmin), false},
		{"moderator blocked from moderator", userWithRole(1, model.RoleModerator), userWithRole(2, model.RoleModerator), false},
		{"moderator blocked from super_admin", userWithRole(1, model.RoleModerator), userWithRole(2, model.RoleSuperAdmin), false},
		{"moderator edits self", userWithRole(1, model.RoleModerator), userWithRole(1, model.RoleModerator), true},
		{"plain user edits self", userWithRole(3, "author"), userWithRole(3, "author"), true},
		{"plain user blocked from others", userWithRole(3, "author"), userWithRole(4, "author"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditUser(tt.actor, tt.target); got != tt.want {
				t.Errorf("CanEditUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAssignRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    model.User
		roleName string
		want     bool
	}{
		{"super_admin assigns super_admin", userWithRole(1, model.RoleSuperAdmin), model.RoleSuperAdmin, true},
		{"admin assigns moderator", userWithRole(1, model.RoleAdmin), model.RoleModerator, true},
		{"admin blocked from super_admin", userWithRole(1, model.RoleAdmin), model.RoleSuperAdmin, false},
		{"moderator blocked from admin", userWithRole(1, model.RoleModerator), model.RoleAdmin, false},
		{"moderator blocked from moderator", userWithRole(1, model.RoleModerator), model.RoleModerator, false},
		{"moderator assigns custom role", userWithRole(1, model.RoleModerator), "author", true},
		{"plain user assigns nothing", userWithRole(1, "author"), "author", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAssignRole(tt.actor, tt.roleName); got != tt.want {
				t.Errorf("CanAssignRole(%s, %s) = %v, want %v", tt.actor.Role.Name, tt.roleName, got, tt.want)
			}
		})
	}
}

func TestCanModifyPost(t *testing.T) {
	post := model.Post{ID: 10, AuthorID: 7}

	tests := []struct {
		name  string
		actor model.User
		want  bool
	}{
		{"author", userWithRole(7, "author"), true},
		{"admin", userWithRole(1, model.RoleAdmin), true},
		{"super_admin", userWithRole(1, model.RoleSuperAdmin), true},
		{"moderator is not enough", userWithRole(2, model.RoleModerator), false},
		{"other plain user", userWithRole(3, "author"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModifyPost(tt.actor, post); got != tt.want {
				t.Errorf("CanModifyPost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanManageRoles(t *testing.T) {
	if !CanManageRoles(model.Role{Name: model.RoleAdmin}) {
		t.Error("admin should manage roles")
	}
	if !CanManageRoles(model.Role{Name: model.RoleSuperAdmin}) {
		t.Error("super_admin should manage roles")
	}
	if CanManageRoles(model.Role{Name: model.RoleModerator}) {
		t.Error("moderator must not manage roles")
	}
}

func TestHiddenRoleNames(t *testing.T) {
	if got := HiddenRoleNames(userWithRole(1, model.RoleSuperAdmin)); got != nil {
		t.Errorf("super_admin hides %v, want nothing", got)
	}
	if got := HiddenRoleNames(userWithRole(1, model.RoleAdmin)); len(got) != 1 || got[0] != model.RoleSuperAdmin {
		t.Errorf("admin hides %v, want only super_admin", got)
	}
	if got := HiddenRoleNames(userWithRole(1, "author")); len(got) != 3 {
		t.Errorf("custom role hides %v, want all three built-ins", got)
	}
}
