// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Role, Post, taxonomy and settings structures.
package model

import "time"

// User represents a blog user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	RoleID       int64     `json:"role_id"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user's role is admin or super_admin.
func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin || u.Role.Name == RoleSuperAdmin
}
