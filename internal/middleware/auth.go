// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/rbac"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// Authenticate creates middleware that requires a valid bearer token and
// loads the token's user into the request context. The user record carries
// its role, so a role change applies on the very next request.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized",
					"Missing or malformed Authorization header. Use: Bearer <token>", nil)
				return
			}

			user, err := tokens.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUserNotFound) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
					return
				}
				slog.Error("token resolution failed", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Authentication failed", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate loads the user when a valid bearer token is present
// but lets anonymous requests through. Used on public routes that behave
// differently for logged-in callers.
func OptionalAuthenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := tokens.Resolve(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil.
// Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// RequireRoles creates middleware that allows only the named roles.
// super_admin always passes. An unauthenticated request gets 401; an
// authenticated one with the wrong role gets 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if user.Role.Name != model.RoleSuperAdmin && !slices.Contains(roles, user.Role.Name) {
				denyAccess(w, r, user, "role not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission creates middleware that requires permission for an
// action on a resource, evaluated against the user's role.
func RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if !rbac.IsAuthorized(user.Role, resource, action) {
				denyAccess(w, r, user, resource+":"+action)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyAccess(w http.ResponseWriter, r *http.Request, user *model.User, requirement string) {
	slog.Warn("access denied",
		"category", model.EventCategoryAuth,
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", user.ID,
		"user_role", user.Role.Name,
		"required", requirement,
	)
	WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
}
