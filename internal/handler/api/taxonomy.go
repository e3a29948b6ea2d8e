// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// TaxonomyRequest is the create/update payload for categories and tags.
// Description is ignored for tags.
type TaxonomyRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// resolveSlug validates or derives the slug for a taxonomy term. Returns the
// slug and nil, or nil-slug and the field errors to report.
func resolveSlug(name, slug string) (string, map[string]string) {
	if slug == "" {
		slug = util.Slugify(name)
	}
	if !util.IsValidSlug(slug) {
		return "", map[string]string{"slug": "Slug may only contain lowercase letters, digits and hyphens"}
	}
	return slug, nil
}

// ListCategories returns all categories ordered by name.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("category listing failed", "error", err)
		WriteInternalError(w, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	WriteSuccess(w, categories, nil)
}

// CreateCategory creates a category. The slug derives from the name when
// not provided.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}
	slug, fieldErrors := resolveSlug(req.Name, req.Slug)
	if fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	now := time.Now()
	category, err := h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"slug": "A category with this slug already exists"})
			return
		}
		h.logger.Error("category creation failed", "error", err)
		WriteInternalError(w, "Failed to create category")
		return
	}
	WriteCreated(w, category)
}

// UpdateCategory edits a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := requireEntityByID(w, r, "category", func(id int64) (model.Category, error) {
		return h.queries.GetCategoryByID(r.Context(), id)
	})
	if !ok {
		return
	}

	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = category.Name
	}
	if req.Slug == "" {
		req.Slug = category.Slug
	}
	if !util.IsValidSlug(req.Slug) {
		WriteValidationError(w, map[string]string{"slug": "Slug may only contain lowercase letters, digits and hyphens"})
		return
	}
	if taken, err := h.queries.CategorySlugExists(r.Context(), req.Slug, category.ID); err != nil {
		WriteInternalError(w, "Failed to update category")
		return
	} else if taken {
		WriteValidationError(w, map[string]string{"slug": "A category with this slug already exists"})
		return
	}

	updated, err := h.queries.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		ID:          category.ID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		h.logger.Error("category update failed", "category_id", category.ID, "error", err)
		WriteInternalError(w, "Failed to update category")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteCategory removes a category. Posts keep existing; the link rows go
// with the category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := requireEntityByID(w, r, "category", func(id int64) (model.Category, error) {
		return h.queries.GetCategoryByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if err := h.queries.DeleteCategory(r.Context(), category.ID); err != nil {
		h.logger.Error("category deletion failed", "category_id", category.ID, "error", err)
		WriteInternalError(w, "Failed to delete category")
		return
	}
	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// ListTags returns all tags ordered by name.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.queries.ListTags(r.Context())
	if err != nil {
		h.logger.Error("tag listing failed", "error", err)
		WriteInternalError(w, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	WriteSuccess(w, tags, nil)
}

// CreateTag creates a tag.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}
	slug, fieldErrors := resolveSlug(req.Name, req.Slug)
	if fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	now := time.Now()
	tag, err := h.queries.CreateTag(r.Context(), store.CreateTagParams{
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"slug": "A tag with this slug already exists"})
			return
		}
		h.logger.Error("tag creation failed", "error", err)
		WriteInternalError(w, "Failed to create tag")
		return
	}
	WriteCreated(w, tag)
}

// UpdateTag edits a tag.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	tag, ok := requireEntityByID(w, r, "tag", func(id int64) (model.Tag, error) {
		return h.queries.GetTagByID(r.Context(), id)
	})
	if !ok {
		return
	}

	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = tag.Name
	}
	if req.Slug == "" {
		req.Slug = tag.Slug
	}
	if !util.IsValidSlug(req.Slug) {
		WriteValidationError(w, map[string]string{"slug": "Slug may only contain lowercase letters, digits and hyphens"})
		return
	}
	if taken, err := h.queries.TagSlugExists(r.Context(), req.Slug, tag.ID); err != nil {
		WriteInternalError(w, "Failed to update tag")
		return
	} else if taken {
		WriteValidationError(w, map[string]string{"slug": "A tag with this slug already exists"})
		return
	}

	updated, err := h.queries.UpdateTag(r.Context(), store.UpdateTagParams{
		ID:        tag.ID,
		Name:      req.Name,
		Slug:      req.Slug,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		h.logger.Error("tag update failed", "tag_id", tag.ID, "error", err)
		WriteInternalError(w, "Failed to update tag")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteTag removes a tag.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tag, ok := requireEntityByID(w, r, "tag", func(id int64) (model.Tag, error) {
		return h.queries.GetTagByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if err := h.queries.DeleteTag(r.Context(), tag.ID); err != nil {
		h.logger.Error("tag deletion failed", "tag_id", tag.ID, "error", err)
		WriteInternalError(w, "Failed to delete tag")
		return
	}
	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}
