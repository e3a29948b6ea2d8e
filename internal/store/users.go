// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// userColumns selects user fields joined with the full role record, so every
// loaded user carries its role without a second round trip.
const userColumns = `u.id, u.username, u.email, u.password_hash, u.role_id, u.created_at, u.updated_at,
	r.id, r.name, r.description, r.is_system, r.permissions, r.created_at, r.updated_at`

const userSelect = "SELECT " + userColumns + " FROM users u JOIN roles r ON r.id = u.role_id"

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	RoleID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user account.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Username, p.Email, p.PasswordHash, p.RoleID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns the user with its role attached.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, userSelect+" WHERE u.id = ?", id))
}

// GetUserByEmail returns the user with the given unique email, role attached.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, userSelect+" WHERE u.email = ?", email))
}

// ListUsers returns users ordered by username, hiding accounts whose role
// name is in excludeRoleNames (the caller-visibility rule).
func (q *Queries) ListUsers(ctx context.Context, excludeRoleNames []string) ([]model.User, error) {
	query := userSelect
	args := make([]any, 0, len(excludeRoleNames))
	if len(excludeRoleNames) > 0 {
		query += " WHERE r.name NOT IN (" + placeholders(len(excludeRoleNames)) + ")"
		for _, n := range excludeRoleNames {
			args = append(args, n)
		}
	}
	query += " ORDER BY u.username"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserParams holds the fields for updating a user account.
type UpdateUserParams struct {
	ID        int64
	Username  string
	Email     string
	RoleID    int64
	UpdatedAt time.Time
}

// UpdateUser rewrites username, email and role reference.
func (q *Queries) UpdateUser(ctx context.Context, p UpdateUserParams) (model.User, error) {
	_, err := q.db.ExecContext(ctx,
		"UPDATE users SET username = ?, email = ?, role_id = ?, updated_at = ? WHERE id = ?",
		p.Username, p.Email, p.RoleID, p.UpdatedAt, p.ID)
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, p.ID)
}

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, updatedAt, id)
	return err
}

// DeleteUser removes a user account.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// CountUsers returns the total number of user accounts.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var perms string
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.IsSystem, &perms,
		&u.Role.CreatedAt, &u.Role.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	if err := json.Unmarshal([]byte(perms), &u.Role.Permissions); err != nil {
		return model.User{}, fmt.Errorf("unmarshaling permissions for user %d: %w", u.ID, err)
	}
	return u, nil
}
