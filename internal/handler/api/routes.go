// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// Routes mounts the API under /api/v1.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes. Post listing and detail take an optional token so
		// authors see their own unpublished posts.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthenticate(h.tokens))

			r.Get("/auth/check-setup", h.CheckSetup)
			r.Post("/auth/setup", h.Setup)
			r.With(h.login.Middleware()).Post("/auth/login", h.Login)

			r.Get("/posts", h.ListPosts)
			r.Get("/posts/slug/{slug}", h.GetPostBySlug)
			r.Get("/posts/{id}", h.GetPost)
			r.Get("/categories", h.ListCategories)
			r.Get("/tags", h.ListTags)
			r.Get("/settings", h.GetSettings)
			r.Get("/settings/language", h.GetLanguage)
		})

		// Protected routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(h.tokens))

			r.Get("/auth/me", h.Me)
			r.Put("/users/change-password", h.ChangePassword)

			r.With(middleware.RequirePermission("posts", "create")).Post("/posts", h.CreatePost)
			r.With(middleware.RequirePermission("posts", "update")).Put("/posts/{id}", h.UpdatePost)
			r.With(middleware.RequirePermission("posts", "delete")).Delete("/posts/{id}", h.DeletePost)

			r.With(middleware.RequirePermission("categories", "create")).Post("/categories", h.CreateCategory)
			r.With(middleware.RequirePermission("categories", "update")).Put("/categories/{id}", h.UpdateCategory)
			r.With(middleware.RequirePermission("categories", "delete")).Delete("/categories/{id}", h.DeleteCategory)

			r.With(middleware.RequirePermission("tags", "create")).Post("/tags", h.CreateTag)
			r.With(middleware.RequirePermission("tags", "update")).Put("/tags/{id}", h.UpdateTag)
			r.With(middleware.RequirePermission("tags", "delete")).Delete("/tags/{id}", h.DeleteTag)

			r.With(middleware.RequirePermission("users", "read")).Get("/users", h.ListUsers)
			r.With(middleware.RequirePermission("users", "create")).Post("/users", h.CreateUser)
			r.With(middleware.RequirePermission("users", "update")).Put("/users/{id}", h.UpdateUser)
			r.With(middleware.RequirePermission("users", "delete")).Delete("/users/{id}", h.DeleteUser)

			// Role management and site settings are admin territory; the
			// handlers run the finer-grained checks.
			r.Get("/roles", h.ListRoles)
			r.With(middleware.RequireRoles(model.RoleAdmin)).Post("/roles", h.CreateRole)
			r.With(middleware.RequireRoles(model.RoleAdmin)).Put("/roles/{id}", h.UpdateRole)
			r.With(middleware.RequireRoles(model.RoleAdmin)).Delete("/roles/{id}", h.DeleteRole)

			r.With(middleware.RequireRoles(model.RoleAdmin)).Put("/settings", h.UpdateSettings)
			r.With(middleware.RequireRoles(model.RoleAdmin)).Put("/settings/language", h.UpdateLanguage)

			r.Post("/uploads", h.UploadImage)
			r.Delete("/uploads/{publicID}", h.DeleteImage)
		})
	})

	return r
}
