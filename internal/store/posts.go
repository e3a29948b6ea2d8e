// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

const postColumns = `id, title, content, excerpt, slug, status, scheduled_at, author_id,
	image_url, image_public_id, image_alt, views, created_at, updated_at`

// CreatePostParams holds the fields for creating a post. Lifecycle
// validation and normalization happen before this is called.
type CreatePostParams struct {
	Title       string
	Content     string
	Excerpt     string
	Slug        string
	Status      string
	ScheduledAt sql.NullTime
	AuthorID    int64
	Image       model.FeaturedImage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePost inserts a new post.
func (q *Queries) CreatePost(ctx context.Context, p CreatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (title, content, excerpt, slug, status, scheduled_at, author_id,
		                    image_url, image_public_id, image_alt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Content, p.Excerpt, p.Slug, p.Status, p.ScheduledAt, p.AuthorID,
		p.Image.URL, p.Image.PublicID, p.Image.Alt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Post{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, id)
}

// GetPostByID returns a single post.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	return scanPost(row)
}

// GetPostBySlug returns the post with the given unique slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE slug = ?", slug)
	return scanPost(row)
}

// PostSlugExists reports whether a slug is already taken by a different post.
// Pass excludeID = 0 when creating.
func (q *Queries) PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n != 0, err
}

// ListPostsParams filters and paginates a post listing.
type ListPostsParams struct {
	Status       string // empty = any status
	CategorySlug string
	TagSlug      string
	Limit        int64
	Offset       int64
}

func buildPostFilter(p ListPostsParams) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if p.Status != "" {
		where += " AND p.status = ?"
		args = append(args, p.Status)
	}
	if p.CategorySlug != "" {
		where += ` AND p.id IN (
			SELECT pc.post_id FROM post_categories pc
			JOIN categories c ON c.id = pc.category_id WHERE c.slug = ?)`
		args = append(args, p.CategorySlug)
	}
	if p.TagSlug != "" {
		where += ` AND p.id IN (
			SELECT pt.post_id FROM post_tags pt
			JOIN tags t ON t.id = pt.tag_id WHERE t.slug = ?)`
		args = append(args, p.TagSlug)
	}
	return where, args
}

// ListPosts returns posts newest-first, honoring the given filters.
func (q *Queries) ListPosts(ctx context.Context, p ListPostsParams) ([]model.Post, error) {
	where, args := buildPostFilter(p)
	query := "SELECT " + postColumnsPrefixed + " FROM posts p" + where +
		" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of posts matching the filters.
func (q *Queries) CountPosts(ctx context.Context, p ListPostsParams) (int64, error) {
	where, args := buildPostFilter(p)
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p"+where, args...).Scan(&n)
	return n, err
}

// CountPostsByAuthor returns the number of posts authored by the given user.
func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE author_id = ?", authorID).Scan(&n)
	return n, err
}

// UpdatePostParams holds the fields for updating a post.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Content     string
	Excerpt     string
	Slug        string
	Status      string
	ScheduledAt sql.NullTime
	Image       model.FeaturedImage
	UpdatedAt   time.Time
}

// UpdatePost rewrites an existing post. The author and view counter are
// never touched here.
func (q *Queries) UpdatePost(ctx context.Context, p UpdatePostParams) (model.Post, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, excerpt = ?, slug = ?, status = ?,
		 scheduled_at = ?, image_url = ?, image_public_id = ?, image_alt = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Content, p.Excerpt, p.Slug, p.Status, p.ScheduledAt,
		p.Image.URL, p.Image.PublicID, p.Image.Alt, p.UpdatedAt, p.ID)
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, p.ID)
}

// DeletePost removes a post; join rows go with it via ON DELETE CASCADE.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	return err
}

// IncrementPostViews bumps the view counter atomically and returns the new
// value. A single UPDATE avoids the read-modify-write lost-update hazard.
func (q *Queries) IncrementPostViews(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE posts SET views = views + 1 WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, sql.ErrNoRows
	}

	var views int64
	err = q.db.QueryRowContext(ctx, "SELECT views FROM posts WHERE id = ?", id).Scan(&views)
	return views, err
}

// PublishDuePosts flips every post whose schedule has elapsed to published
// and clears the schedule date, in one conditional bulk update. Returns the
// number of posts published. Running it again immediately affects zero rows.
func (q *Queries) PublishDuePosts(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE posts SET status = ?, scheduled_at = NULL, updated_at = ?
		 WHERE status = ? AND scheduled_at <= ?`,
		model.PostStatusPublished, now, model.PostStatusScheduled, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetPostCategories replaces the category set of a post.
func (q *Queries) SetPostCategories(ctx context.Context, postID int64, categoryIDs []int64) error {
	if _, err := q.db.ExecContext(ctx,
		"DELETE FROM post_categories WHERE post_id = ?", postID); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := q.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?, ?)",
			postID, cid); err != nil {
			return err
		}
	}
	return nil
}

// SetPostTags replaces the tag set of a post.
func (q *Queries) SetPostTags(ctx context.Context, postID int64, tagIDs []int64) error {
	if _, err := q.db.ExecContext(ctx,
		"DELETE FROM post_tags WHERE post_id = ?", postID); err != nil {
		return err
	}
	for _, tid := range tagIDs {
		if _, err := q.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)",
			postID, tid); err != nil {
			return err
		}
	}
	return nil
}

// GetCategoriesForPost returns the categories attached to a post, name-sorted.
func (q *Queries) GetCategoriesForPost(ctx context.Context, postID int64) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
		 FROM categories c
		 JOIN post_categories pc ON pc.category_id = c.id
		 WHERE pc.post_id = ? ORDER BY c.name`, postID)
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

// GetTagsForPost returns the tags attached to a post, name-sorted.
func (q *Queries) GetTagsForPost(ctx context.Context, postID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug, t.created_at, t.updated_at
		 FROM tags t
		 JOIN post_tags pt ON pt.tag_id = t.id
		 WHERE pt.post_id = ? ORDER BY t.name`, postID)
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

const postColumnsPrefixed = `p.id, p.title, p.content, p.excerpt, p.slug, p.status, p.scheduled_at,
	p.author_id, p.image_url, p.image_public_id, p.image_alt, p.views, p.created_at, p.updated_at`

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	var imgURL, imgPublicID, imgAlt string
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.Slug, &p.Status, &p.ScheduledAt,
		&p.AuthorID, &imgURL, &imgPublicID, &imgAlt, &p.Views, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Post{}, err
	}
	if imgURL != "" {
		p.FeaturedImage = &model.FeaturedImage{URL: imgURL, PublicID: imgPublicID, Alt: imgAlt}
	}
	return p, nil
}
