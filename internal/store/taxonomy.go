// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// CreateCategoryParams holds the fields for creating a category.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCategory inserts a new category.
func (q *Queries) CreateCategory(ctx context.Context, p CreateCategoryParams) (model.Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Slug, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}
	return q.GetCategoryByID(ctx, id)
}

// GetCategoryByID returns a single category.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx,
		"SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE id = ?",
		id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCategories returns all categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, slug, description, created_at, updated_at FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategoryParams holds the fields for updating a category.
type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	UpdatedAt   time.Time
}

// UpdateCategory rewrites a category.
func (q *Queries) UpdateCategory(ctx context.Context, p UpdateCategoryParams) (model.Category, error) {
	_, err := q.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Slug, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		return model.Category{}, err
	}
	return q.GetCategoryByID(ctx, p.ID)
}

// DeleteCategory removes a category. Post references are cascade-cleared via
// the join table's ON DELETE CASCADE, so posts never hold dangling IDs.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	return err
}

// CategorySlugExists reports whether a category slug is taken by a different record.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n != 0, err
}

// CreateTagParams holds the fields for creating a tag.
type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTag inserts a new tag.
func (q *Queries) CreateTag(ctx context.Context, p CreateTagParams) (model.Tag, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO tags (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)",
		p.Name, p.Slug, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return q.GetTagByID(ctx, id)
}

// GetTagByID returns a single tag.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx,
		"SELECT id, name, slug, created_at, updated_at FROM tags WHERE id = ?",
		id).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTags returns all tags ordered by name.
func (q *Queries) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, slug, created_at, updated_at FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTagParams holds the fields for updating a tag.
type UpdateTagParams struct {
	ID        int64
	Name      string
	Slug      string
	UpdatedAt time.Time
}

// UpdateTag rewrites a tag.
func (q *Queries) UpdateTag(ctx context.Context, p UpdateTagParams) (model.Tag, error) {
	_, err := q.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Slug, p.UpdatedAt, p.ID)
	if err != nil {
		return model.Tag{}, err
	}
	return q.GetTagByID(ctx, p.ID)
}

// DeleteTag removes a tag; post references cascade-clear via the join table.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	return err
}

// TagSlugExists reports whether a tag slug is taken by a different record.
func (q *Queries) TagSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n != 0, err
}
