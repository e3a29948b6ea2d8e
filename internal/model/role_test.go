// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"reflect"
	"testing"
)

func TestPermissionAppliesTo(t *testing.T) {
	tests := []struct {
		name     string
		perm     Permission
		roleName string
		resource string
		action   string
		want     bool
	}{
		{
			name:     "exact match",
			perm:     Permission{Resource: "posts", Actions: []string{"create", "update"}},
			roleName: "editor", resource: "posts", action: "create",
			want: true,
		},
		{
			name:     "wildcard resource",
			perm:     Permission{Resource: Wildcard, Actions: []string{"read"}},
			roleName: "editor", resource: "tags", action: "read",
			want: true,
		},
		{
			name:     "wildcard action",
			perm:     Permission{Resource: "posts", Actions: []string{Wildcard}},
			roleName: "editor", resource: "posts", action: "delete",
			want: true,
		},
		{
			name:     "wrong resource",
			perm:     Permission{Resource: "posts", Actions: []string{Wildcard}},
			roleName: "editor", resource: "users", action: "read",
			want: false,
		},
		{
			name:     "missing action",
			perm:     Permission{Resource: "posts", Actions: []string{"read"}},
			roleName: "editor", resource: "posts", action: "delete",
			want: false,
		},
		{
			name:     "excluded role",
			perm:     Permission{Resource: Wildcard, Actions: []string{Wildcard}, ExcludeRoles: []string{"editor"}},
			roleName: "editor", resource: "posts", action: "read",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perm.AppliesTo(tt.roleName, tt.resource, tt.action); got != tt.want {
				t.Errorf("AppliesTo(%q, %q, %q) = %v, want %v", tt.roleName, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestNormalizePermissions(t *testing.T) {
	in := []Permission{
		{Resource: "posts", Actions: []string{"create", "create", "update", ""}},
		{Resource: "tags", Actions: []string{"", ""}},
		{Resource: "users", Actions: nil},
	}

	got := NormalizePermissions(in)

	want := []Permission{
		{Resource: "posts", Actions: []string{"create", "update"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizePermissions() = %+v, want %+v", got, want)
	}
}
