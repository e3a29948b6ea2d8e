// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/cache"
	"github.com/olegiv/oblog-go/internal/handler/api"
	"github.com/olegiv/oblog-go/internal/media"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	router  http.Handler
	queries *store.Queries
	tokens  *auth.TokenManager
	uploads string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.TestDB(t)
	queries := store.New(db)
	tokens := auth.NewTokenManager(testSecret, queries)
	logger := testutil.TestLogger()

	uploads := t.TempDir()
	mediaStore, err := media.NewLocalStore(uploads)
	require.NoError(t, err)

	settings := cache.NewSettingsCache(cache.NewMemoryCache(time.Minute), queries, logger)
	h := api.NewHandler(db, tokens, mediaStore, settings, logger)

	return &fixture{router: h.Routes(), queries: queries, tokens: tokens, uploads: uploads}
}

// do performs a JSON request against the router. An empty token means
// anonymous.
func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a response envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

// loginUser issues a token for an already-seeded user.
func (f *fixture) loginUser(t *testing.T, user model.User) string {
	t.Helper()
	token, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)
	return token
}

func postPermissions() model.Permission {
	return model.Permission{Resource: "posts", Actions: []string{"create", "read", "update", "delete"}}
}

func TestSetupFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/auth/check-setup", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var check struct {
		NeedsSetup bool `json:"needs_setup"`
	}
	decodeData(t, rec, &check)
	assert.True(t, check.NeedsSetup)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"username": "root",
		"email":    "Root@Example.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var login struct {
		Token     string     `json:"token"`
		ExpiresIn int64      `json:"expires_in"`
		User      model.User `json:"user"`
	}
	decodeData(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, int64(24*60*60), login.ExpiresIn)
	assert.Equal(t, "root@example.com", login.User.Email)
	assert.Equal(t, model.RoleAdmin, login.User.Role.Name)
	assert.True(t, login.User.Role.IsSystem)

	// The fresh token works immediately.
	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/auth/check-setup", "", nil)
	decodeData(t, rec, &check)
	assert.False(t, check.NeedsSetup)

	// Setup is one-time.
	rec = f.do(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"username": "second",
		"email":    "second@example.com",
		"password": "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))
}

func TestSetupValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"username": "",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	role := testutil.CreateRole(t, f.queries, "writer", postPermissions())
	user := testutil.CreateUser(t, f.queries, "alice", "correct-horse", role.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	// Unknown account gets the same answer as a wrong password.
	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "  Alice@Example.COM ",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decodeData(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))
}

func TestPostOwnership(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})

	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	other := testutil.CreateUser(t, f.queries, "other", "password1", modRole.ID)
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)

	authorToken := f.loginUser(t, author)
	otherToken := f.loginUser(t, other)
	adminToken := f.loginUser(t, admin)

	// Anonymous creation is rejected before the handler runs.
	rec := f.do(t, http.MethodPost, "/api/v1/posts", "", map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/posts", authorToken, map[string]string{
		"title":   "My Post",
		"content": "Hello *world*",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.PostView
	decodeData(t, rec, &created)
	assert.Equal(t, "my-post", created.Slug)
	assert.Equal(t, model.PostStatusDraft, created.Status)
	assert.Equal(t, author.ID, created.AuthorID)

	path := fmt.Sprintf("/api/v1/posts/%d", created.ID)
	update := map[string]string{"title": "Edited", "content": "Edited body"}

	// Another moderator holds posts:update but does not own the post.
	rec = f.do(t, http.MethodPut, path, otherToken, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))

	rec = f.do(t, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins can touch any post.
	rec = f.do(t, http.MethodPut, path, adminToken, update)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated api.PostView
	decodeData(t, rec, &updated)
	assert.Equal(t, "Edited", updated.Title)

	// The author can delete their own post.
	rec = f.do(t, http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostVisibility(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	authorToken := f.loginUser(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/posts", authorToken, map[string]string{
		"title": "Draft Post", "content": "hidden",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft api.PostView
	decodeData(t, rec, &draft)

	rec = f.do(t, http.MethodPost, "/api/v1/posts", authorToken, map[string]string{
		"title": "Live Post", "content": "visible", "status": model.PostStatusPublished,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Anonymous listing only shows published posts.
	rec = f.do(t, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []api.PostView
	decodeData(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Live Post", listed[0].Title)

	// Unpublished detail is indistinguishable from a missing post.
	draftPath := fmt.Sprintf("/api/v1/posts/%d", draft.ID)
	rec = f.do(t, http.MethodGet, draftPath, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unless you are the author.
	rec = f.do(t, http.MethodGet, draftPath, authorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Status filtering needs authentication, then posts:read.
	rec = f.do(t, http.MethodGet, "/api/v1/posts?status=draft", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/posts?status=draft", authorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Draft Post", listed[0].Title)

	rec = f.do(t, http.MethodGet, "/api/v1/posts?status=all", authorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listed)
	assert.Len(t, listed, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/posts?status=bogus", authorToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScheduledPostValidation(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	token := f.loginUser(t, author)

	past := time.Now().Add(-time.Hour)
	rec := f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title": "Too Late", "content": "x",
		"status": model.PostStatusScheduled, "scheduled_at": past,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title": "No Date", "content": "x", "status": model.PostStatusScheduled,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	future := time.Now().Add(time.Hour)
	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title": "On Time", "content": "x",
		"status": model.PostStatusScheduled, "scheduled_at": future,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.PostView
	decodeData(t, rec, &created)
	assert.Equal(t, model.PostStatusScheduled, created.Status)
	require.True(t, created.ScheduledAt.Valid)
}

func TestPostSlugConflict(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	token := f.loginUser(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "First", "content": "x", "slug": "taken",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Second", "content": "x", "slug": "taken",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestPostViewCounting(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	token := f.loginUser(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Counted", "content": "**bold**", "status": model.PostStatusPublished,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.PostView
	decodeData(t, rec, &created)

	path := fmt.Sprintf("/api/v1/posts/%d", created.ID)
	var got api.PostView

	rec = f.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &got)
	assert.Equal(t, int64(1), got.Views)
	assert.Contains(t, got.ContentHTML, "<strong>bold</strong>")

	rec = f.do(t, http.MethodGet, path, "", nil)
	decodeData(t, rec, &got)
	assert.Equal(t, int64(2), got.Views)
}

func TestRoleManagement(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())

	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	moderator := testutil.CreateUser(t, f.queries, "mod", "password1", modRole.ID)
	adminToken := f.loginUser(t, admin)
	modToken := f.loginUser(t, moderator)

	// Role management is admin territory.
	rec := f.do(t, http.MethodPost, "/api/v1/roles", modToken, map[string]any{"name": "editor"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/roles", adminToken, map[string]any{
		"name":        "editor",
		"description": "Can edit posts",
		"permissions": []model.Permission{
			{Resource: "posts", Actions: []string{"update", "update", "read"}},
			{Resource: "", Actions: nil},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var editor model.Role
	decodeData(t, rec, &editor)
	// Permission lists come back normalized: dupes and empty entries gone.
	require.Len(t, editor.Permissions, 1)
	assert.ElementsMatch(t, []string{"update", "read"}, editor.Permissions[0].Actions)

	// Hierarchy names are reserved.
	rec = f.do(t, http.MethodPost, "/api/v1/roles", adminToken, map[string]any{"name": model.RoleSuperAdmin})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Duplicate name.
	rec = f.do(t, http.MethodPost, "/api/v1/roles", adminToken, map[string]any{"name": "editor"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A role someone holds cannot be deleted.
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/roles/%d", modRole.ID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))

	// Unused custom roles can.
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/roles/%d", editor.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSystemRoleProtection(t *testing.T) {
	f := newFixture(t)
	adminRole, err := f.queries.CreateRole(t.Context(), store.CreateRoleParams{
		Name:        model.RoleAdmin,
		Description: "Administrator",
		IsSystem:    true,
		Permissions: []model.Permission{{Resource: model.Wildcard, Actions: []string{model.Wildcard}}},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	token := f.loginUser(t, admin)

	path := fmt.Sprintf("/api/v1/roles/%d", adminRole.ID)

	rec := f.do(t, http.MethodPut, path, token, map[string]any{"name": "renamed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoleListingVisibility(t *testing.T) {
	f := newFixture(t)
	superRole := testutil.CreateRole(t, f.queries, model.RoleSuperAdmin)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	testutil.CreateRole(t, f.queries, "editor", postPermissions())

	superUser := testutil.CreateUser(t, f.queries, "root", "password1", superRole.ID)
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)

	var roles []model.Role

	rec := f.do(t, http.MethodGet, "/api/v1/roles", f.loginUser(t, superUser), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &roles)
	assert.Len(t, roles, 3)

	rec = f.do(t, http.MethodGet, "/api/v1/roles", f.loginUser(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &roles)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{model.RoleAdmin, "editor"}, names)
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t)
	userPerms := model.Permission{Resource: "users", Actions: []string{model.Wildcard}}
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions(), userPerms)

	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	moderator := testutil.CreateUser(t, f.queries, "mod", "password1", modRole.ID)
	adminToken := f.loginUser(t, admin)
	modToken := f.loginUser(t, moderator)

	// Moderators cannot hand out hierarchy roles even with users:*.
	rec := f.do(t, http.MethodPost, "/api/v1/users", modToken, map[string]any{
		"username": "newadmin", "email": "newadmin@example.com",
		"password": "password1", "role_id": adminRole.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins can create moderators.
	rec = f.do(t, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"username": "newmod", "email": "NewMod@Example.com",
		"password": "password1", "role_id": modRole.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	decodeData(t, rec, &created)
	assert.Equal(t, "newmod@example.com", created.Email)
	assert.Equal(t, model.RoleModerator, created.Role.Name)

	// Duplicate email.
	rec = f.do(t, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"username": "dupe", "email": "newmod@example.com",
		"password": "password1", "role_id": modRole.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown role.
	rec = f.do(t, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"username": "ghost", "email": "ghost@example.com",
		"password": "password1", "role_id": 99999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Moderators cannot edit admin accounts.
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", admin.ID), modToken,
		map[string]any{"username": "pwned"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Nor delete fellow moderators.
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", created.ID), modToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Self-deletion is rejected.
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserListingVisibility(t *testing.T) {
	f := newFixture(t)
	superRole := testutil.CreateRole(t, f.queries, model.RoleSuperAdmin)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})

	testutil.CreateUser(t, f.queries, "root", "password1", superRole.ID)
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)

	rec := f.do(t, http.MethodGet, "/api/v1/users", f.loginUser(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	decodeData(t, rec, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "boss", users[0].Username)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	user := testutil.CreateUser(t, f.queries, "alice", "old-password", modRole.ID)
	token := f.loginUser(t, user)

	rec := f.do(t, http.MethodPut, "/api/v1/users/change-password", token, map[string]string{
		"current_password": "guess", "new_password": "new-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/users/change-password", token, map[string]string{
		"current_password": "old-password", "new_password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/users/change-password", token, map[string]string{
		"current_password": "old-password", "new_password": "new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "new-password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaxonomyCRUD(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	token := f.loginUser(t, admin)

	rec := f.do(t, http.MethodPost, "/api/v1/categories", token, map[string]string{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/categories", token, map[string]string{
		"name": "Tech News", "description": "All things tech",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category model.Category
	decodeData(t, rec, &category)
	assert.Equal(t, "tech-news", category.Slug)

	rec = f.do(t, http.MethodPost, "/api/v1/categories", token, map[string]string{
		"name": "Other", "slug": "tech-news",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", category.ID), token,
		map[string]string{"name": "Technology", "slug": "Bad Slug"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", category.ID), token,
		map[string]string{"name": "Technology"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &category)
	assert.Equal(t, "Technology", category.Name)
	assert.Equal(t, "tech-news", category.Slug)

	rec = f.do(t, http.MethodPost, "/api/v1/tags", token, map[string]string{"name": "Go"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tag model.Tag
	decodeData(t, rec, &tag)
	assert.Equal(t, "go", tag.Slug)

	// Anonymous reads work.
	rec = f.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/tags", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Anonymous writes do not.
	rec = f.do(t, http.MethodPost, "/api/v1/tags", "", map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", category.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", tag.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostTaxonomyAttachment(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	token := f.loginUser(t, admin)

	rec := f.do(t, http.MethodPost, "/api/v1/categories", token, map[string]string{"name": "News"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category model.Category
	decodeData(t, rec, &category)

	rec = f.do(t, http.MethodPost, "/api/v1/tags", token, map[string]string{"name": "Go"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tag model.Tag
	decodeData(t, rec, &tag)

	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title": "Tagged", "content": "x", "status": model.PostStatusPublished,
		"category_ids": []int64{category.ID}, "tag_ids": []int64{tag.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.PostView
	decodeData(t, rec, &created)
	require.Len(t, created.Categories, 1)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "news", created.Categories[0].Slug)

	// Listing filtered by category slug.
	rec = f.do(t, http.MethodGet, "/api/v1/posts?category=news", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []api.PostView
	decodeData(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/posts?category=missing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listed)
	assert.Empty(t, listed)
}

func TestSettingsEndpoints(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	moderator := testutil.CreateUser(t, f.queries, "mod", "password1", modRole.ID)
	adminToken := f.loginUser(t, admin)
	modToken := f.loginUser(t, moderator)

	// Settings are public and lazily created with defaults.
	rec := f.do(t, http.MethodGet, "/api/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings model.Settings
	decodeData(t, rec, &settings)
	assert.Equal(t, "#4299e1", settings.Colors["primary"])
	assert.Equal(t, model.DefaultLanguage, settings.Language)

	// Writes are admin-only.
	rec = f.do(t, http.MethodPut, "/api/v1/settings/language", modToken,
		map[string]string{"language": "en"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/settings/language", adminToken,
		map[string]string{"language": "xx"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/settings/language", adminToken,
		map[string]string{"language": "en"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/settings/language", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lang struct {
		Language string `json:"language"`
	}
	decodeData(t, rec, &lang)
	assert.Equal(t, "en", lang.Language)

	rec = f.do(t, http.MethodPut, "/api/v1/settings", adminToken, map[string]any{
		"colors": map[string]string{"primary": "#000000"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &settings)
	assert.Equal(t, "#000000", settings.Colors["primary"])
	assert.Equal(t, "en", settings.Language)

	// A body that omits colors keeps the stored palette intact.
	rec = f.do(t, http.MethodPut, "/api/v1/settings", adminToken, map[string]any{
		"language": "es",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &settings)
	assert.Equal(t, "es", settings.Language)
	assert.NotEmpty(t, settings.Colors)
	assert.Equal(t, "#000000", settings.Colors["primary"])
}

func TestUploads(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	token := f.loginUser(t, admin)

	upload := func(filename string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("photo.png")
	require.Equal(t, http.StatusCreated, rec.Code)
	var stored api.UploadResponse
	decodeData(t, rec, &stored)
	assert.NotEmpty(t, stored.URL)
	assert.NotEmpty(t, stored.PublicID)

	rec = upload("notes.txt")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/uploads/"+stored.PublicID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Deleting an unknown handle is not an error.
	rec = f.do(t, http.MethodDelete, "/api/v1/uploads/"+stored.PublicID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPostBySlug(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	token := f.loginUser(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Live", "content": "x", "slug": "live", "status": model.PostStatusPublished,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Hidden", "content": "x", "slug": "hidden",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Published posts are addressable by slug and count views.
	rec = f.do(t, http.MethodGet, "/api/v1/posts/slug/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.PostView
	decodeData(t, rec, &got)
	assert.Equal(t, "Live", got.Title)
	assert.Equal(t, int64(1), got.Views)

	// Drafts are 404 for everyone but the author.
	rec = f.do(t, http.MethodGet, "/api/v1/posts/slug/hidden", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/posts/slug/hidden", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/posts/slug/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAuthorWithPosts(t *testing.T) {
	f := newFixture(t)
	adminRole := testutil.CreateRole(t, f.queries, model.RoleAdmin,
		model.Permission{Resource: model.Wildcard, Actions: []string{model.Wildcard}})
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())

	admin := testutil.CreateUser(t, f.queries, "boss", "password1", adminRole.ID)
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	adminToken := f.loginUser(t, admin)
	authorToken := f.loginUser(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/posts", authorToken, map[string]string{
		"title": "Kept", "content": "x",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var post api.PostView
	decodeData(t, rec, &post)

	// An account still referenced as a post author cannot be deleted.
	userPath := fmt.Sprintf("/api/v1/users/%d", author.ID)
	rec = f.do(t, http.MethodDelete, userPath, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", post.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, userPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeaturedImageReplacement(t *testing.T) {
	f := newFixture(t)
	modRole := testutil.CreateRole(t, f.queries, model.RoleModerator, postPermissions())
	author := testutil.CreateUser(t, f.queries, "author", "password1", modRole.ID)
	token := f.loginUser(t, author)

	writeAsset := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(f.uploads, name), []byte("img"), 0600))
	}
	assetExists := func(name string) bool {
		_, err := os.Stat(filepath.Join(f.uploads, name))
		return err == nil
	}
	writeAsset("old.png")
	writeAsset("new.png")

	rec := f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title": "Picture", "content": "x", "slug": "pic-a",
		"featured_image": map[string]string{"url": "/uploads/old.png", "public_id": "old.png"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var post api.PostView
	decodeData(t, rec, &post)

	rec = f.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Blocker", "content": "x", "slug": "pic-b",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	// A failed update must not delete the still-referenced asset.
	rec = f.do(t, http.MethodPut, path, token, map[string]any{
		"title": "Picture", "content": "x", "slug": "pic-b",
		"featured_image": map[string]string{"url": "/uploads/new.png", "public_id": "new.png"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, assetExists("old.png"), "old asset must survive a failed update")

	// A successful replacement removes the old asset and keeps the new one.
	rec = f.do(t, http.MethodPut, path, token, map[string]any{
		"title": "Picture", "content": "x", "slug": "pic-a",
		"featured_image": map[string]string{"url": "/uploads/new.png", "public_id": "new.png"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, assetExists("old.png"), "replaced asset is removed")
	assert.True(t, assetExists("new.png"))
}
