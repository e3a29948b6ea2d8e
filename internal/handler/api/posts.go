// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/rbac"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// PostView is a post with its rendered body and attached taxonomy.
type PostView struct {
	model.Post
	ContentHTML string           `json:"content_html,omitempty"`
	Categories  []model.Category `json:"categories"`
	Tags        []model.Tag      `json:"tags"`
}

// PostRequest is the create/update payload for a post.
type PostRequest struct {
	Title         string               `json:"title"`
	Content       string               `json:"content"`
	Excerpt       string               `json:"excerpt"`
	Slug          string               `json:"slug"`
	Status        string               `json:"status"`
	ScheduledAt   *time.Time           `json:"scheduled_at"`
	FeaturedImage *model.FeaturedImage `json:"featured_image"`
	CategoryIDs   []int64              `json:"category_ids"`
	TagIDs        []int64              `json:"tag_ids"`
}

// ListPosts returns posts newest-first. Anonymous callers only ever see
// published posts; authenticated callers with posts:read may filter by
// status.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	params := store.ListPostsParams{
		Status:       model.PostStatusPublished,
		CategorySlug: r.URL.Query().Get("category"),
		TagSlug:      r.URL.Query().Get("tag"),
	}

	if status := r.URL.Query().Get("status"); status != "" {
		user := middleware.GetUser(r)
		if user == nil {
			WriteUnauthorized(w, "Authentication required to filter by status")
			return
		}
		if !rbac.IsAuthorized(user.Role, "posts", "read") {
			WriteForbidden(w, "Insufficient permissions")
			return
		}
		if status != "all" && !model.ValidStatus(status) {
			WriteValidationError(w, map[string]string{"status": "Unknown status filter"})
			return
		}
		params.Status = status
		if status == "all" {
			params.Status = ""
		}
	}

	page, perPage := pagination(r)
	params.Limit = int64(perPage)
	params.Offset = int64((page - 1) * perPage)

	posts, err := h.queries.ListPosts(r.Context(), params)
	if err != nil {
		h.logger.Error("post listing failed", "error", err)
		WriteInternalError(w, "Failed to list posts")
		return
	}
	total, err := h.queries.CountPosts(r.Context(), params)
	if err != nil {
		h.logger.Error("post count failed", "error", err)
		WriteInternalError(w, "Failed to list posts")
		return
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		view, err := h.postView(r.Context(), p, false)
		if err != nil {
			h.logger.Error("post view assembly failed", "post_id", p.ID, "error", err)
			WriteInternalError(w, "Failed to list posts")
			return
		}
		views = append(views, view)
	}

	WriteSuccess(w, views, listMeta(total, page, perPage))
}

// GetPost returns a single post. Unpublished posts are only visible to
// their author and to admins; everyone else gets the same 404 an absent
// post would produce. A successful published read bumps the view counter.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(w, r, "post", func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}
	h.servePost(w, r, post)
}

// GetPostBySlug returns a single post addressed by its slug, with the same
// visibility and view-counting rules as GetPost.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.queries.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to retrieve post")
		}
		return
	}
	h.servePost(w, r, post)
}

func (h *Handler) servePost(w http.ResponseWriter, r *http.Request, post model.Post) {
	if !post.IsPublished() {
		user := middleware.GetUser(r)
		if user == nil || !rbac.CanModifyPost(*user, post) {
			WriteNotFound(w, "Post not found")
			return
		}
	} else {
		views, err := h.queries.IncrementPostViews(r.Context(), post.ID)
		if err == nil {
			post.Views = views
		}
	}

	view, err := h.postView(r.Context(), post, true)
	if err != nil {
		h.logger.Error("post view assembly failed", "post_id", post.ID, "error", err)
		WriteInternalError(w, "Failed to retrieve post")
		return
	}
	WriteSuccess(w, view, nil)
}

// CreatePost creates a post owned by the authenticated user.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req PostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = model.PostStatusDraft
	}

	post := model.Post{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Slug:          req.Slug,
		Status:        req.Status,
		AuthorID:      user.ID,
		FeaturedImage: req.FeaturedImage,
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = sql.NullTime{Time: *req.ScheduledAt, Valid: true}
	}

	if !h.validatePost(w, r, &post, 0) {
		return
	}
	post.Normalize(time.Now())

	now := time.Now()
	created, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       post.Title,
		Content:     post.Content,
		Excerpt:     post.Excerpt,
		Slug:        post.Slug,
		Status:      post.Status,
		ScheduledAt: post.ScheduledAt,
		AuthorID:    user.ID,
		Image:       imageOrEmpty(post.FeaturedImage),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
			return
		}
		h.logger.Error("post creation failed", "error", err)
		WriteInternalError(w, "Failed to create post")
		return
	}

	if !h.attachTaxonomy(w, r, created.ID, req.CategoryIDs, req.TagIDs) {
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryPost, "Post created", &user.ID,
		map[string]any{"post_id": created.ID, "slug": created.Slug, "status": created.Status})

	view, err := h.postView(r.Context(), created, true)
	if err != nil {
		h.logger.Error("post view assembly failed", "post_id", created.ID, "error", err)
		WriteInternalError(w, "Failed to create post")
		return
	}
	WriteCreated(w, view)
}

// UpdatePost rewrites a post. Only the author or an admin may touch it.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	existing, ok := requireEntityByID(w, r, "post", func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if !rbac.CanModifyPost(*user, existing) {
		WriteForbidden(w, "You may only modify your own posts")
		return
	}

	var req PostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = existing.Status
	}

	post := model.Post{
		ID:            existing.ID,
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Slug:          req.Slug,
		Status:        req.Status,
		AuthorID:      existing.AuthorID,
		FeaturedImage: req.FeaturedImage,
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = sql.NullTime{Time: *req.ScheduledAt, Valid: true}
	}
	if post.Slug == "" {
		post.Slug = existing.Slug
	}

	if !h.validatePost(w, r, &post, existing.ID) {
		return
	}
	post.Normalize(time.Now())

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Excerpt:     post.Excerpt,
		Slug:        post.Slug,
		Status:      post.Status,
		ScheduledAt: post.ScheduledAt,
		Image:       imageOrEmpty(post.FeaturedImage),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
			return
		}
		h.logger.Error("post update failed", "post_id", post.ID, "error", err)
		WriteInternalError(w, "Failed to update post")
		return
	}

	// The featured image was replaced: drop the old asset, best-effort. Only
	// after the row is written, so a failed update never loses a still-
	// referenced asset.
	if existing.FeaturedImage != nil &&
		(post.FeaturedImage == nil || post.FeaturedImage.PublicID != existing.FeaturedImage.PublicID) {
		h.deleteImage(r.Context(), existing.FeaturedImage.PublicID)
	}

	if req.CategoryIDs != nil || req.TagIDs != nil {
		if !h.attachTaxonomy(w, r, updated.ID, req.CategoryIDs, req.TagIDs) {
			return
		}
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryPost, "Post updated", &user.ID,
		map[string]any{"post_id": updated.ID, "status": updated.Status})

	view, err := h.postView(r.Context(), updated, true)
	if err != nil {
		h.logger.Error("post view assembly failed", "post_id", updated.ID, "error", err)
		WriteInternalError(w, "Failed to update post")
		return
	}
	WriteSuccess(w, view, nil)
}

// DeletePost removes a post and, best-effort, its featured image.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	post, ok := requireEntityByID(w, r, "post", func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if !rbac.CanModifyPost(*user, post) {
		WriteForbidden(w, "You may only delete your own posts")
		return
	}

	if post.FeaturedImage != nil {
		h.deleteImage(r.Context(), post.FeaturedImage.PublicID)
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		h.logger.Error("post deletion failed", "post_id", post.ID, "error", err)
		WriteInternalError(w, "Failed to delete post")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryPost, "Post deleted", &user.ID,
		map[string]any{"post_id": post.ID, "slug": post.Slug})

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// validatePost fills in a generated slug when absent and runs the field and
// lifecycle checks. Returns false after writing the error response.
func (h *Handler) validatePost(w http.ResponseWriter, r *http.Request, post *model.Post, excludeID int64) bool {
	fieldErrors := make(map[string]string)
	if post.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if post.Content == "" {
		fieldErrors["content"] = "Content is required"
	}

	if post.Slug == "" {
		post.Slug = util.Slugify(post.Title)
	}
	if post.Slug == "" || !util.IsValidSlug(post.Slug) {
		fieldErrors["slug"] = "Slug must contain only lowercase letters, numbers and hyphens"
	}

	for field, msg := range post.ValidateSchedule(time.Now()) {
		fieldErrors[field] = msg
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return false
	}

	exists, err := h.queries.PostSlugExists(r.Context(), post.Slug, excludeID)
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return false
	}
	if exists {
		WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
		return false
	}
	return true
}

// attachTaxonomy replaces the post's category and tag sets. Returns false
// after writing the error response.
func (h *Handler) attachTaxonomy(w http.ResponseWriter, r *http.Request, postID int64, categoryIDs, tagIDs []int64) bool {
	if err := h.queries.SetPostCategories(r.Context(), postID, categoryIDs); err != nil {
		h.logger.Error("setting post categories failed", "post_id", postID, "error", err)
		WriteInternalError(w, "Failed to save post categories")
		return false
	}
	if err := h.queries.SetPostTags(r.Context(), postID, tagIDs); err != nil {
		h.logger.Error("setting post tags failed", "post_id", postID, "error", err)
		WriteInternalError(w, "Failed to save post tags")
		return false
	}
	return true
}

// postView assembles the API shape of a post. The rendered body is only
// produced for detail responses.
func (h *Handler) postView(ctx context.Context, post model.Post, withHTML bool) (PostView, error) {
	cats, err := h.queries.GetCategoriesForPost(ctx, post.ID)
	if err != nil {
		return PostView{}, err
	}
	tags, err := h.queries.GetTagsForPost(ctx, post.ID)
	if err != nil {
		return PostView{}, err
	}

	view := PostView{
		Post:       post,
		Categories: cats,
		Tags:       tags,
	}
	if view.Categories == nil {
		view.Categories = []model.Category{}
	}
	if view.Tags == nil {
		view.Tags = []model.Tag{}
	}
	if withHTML {
		html, err := render.Markdown(post.Content)
		if err != nil {
			return PostView{}, err
		}
		view.ContentHTML = html
	}
	return view, nil
}

// deleteImage removes an asset from the image host. Failures are logged and
// never block the post operation.
func (h *Handler) deleteImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := h.media.Delete(ctx, publicID); err != nil {
		h.logger.Warn("featured image deletion failed",
			"category", model.EventCategoryPost, "public_id", publicID, "error", err)
	}
}

func imageOrEmpty(img *model.FeaturedImage) model.FeaturedImage {
	if img == nil {
		return model.FeaturedImage{}
	}
	return *img
}
