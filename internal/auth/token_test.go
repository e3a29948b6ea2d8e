// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	tm := auth.NewTokenManager(testSecret, q)

	role := testutil.CreateRole(t, q, "author",
		model.Permission{Resource: "posts", Actions: []string{"*"}})
	user := testutil.CreateUser(t, q, "alice", "changeme", role.ID)

	token, err := tm.Issue(user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tm.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "author", got.Role.Name, "resolved user carries fresh role")
}

func TestResolveRejectsBadTokens(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	tm := auth.NewTokenManager(testSecret, q)

	_, err := tm.Resolve(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Token signed with a different secret.
	other := auth.NewTokenManager("another-secret-another-secret-xx", q)
	forged, err := other.Issue(1)
	require.NoError(t, err)
	_, err = tm.Resolve(context.Background(), forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResolveDeletedUser(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	tm := auth.NewTokenManager(testSecret, q)

	role := testutil.CreateRole(t, q, "author")
	user := testutil.CreateUser(t, q, "ghost", "changeme", role.ID)

	token, err := tm.Issue(user.ID)
	require.NoError(t, err)
	require.NoError(t, q.DeleteUser(context.Background(), user.ID))

	_, err = tm.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestResolveExpiredToken(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	tm := auth.NewTokenManagerAt(testSecret, q, func() time.Time {
		return time.Now().Add(-25 * time.Hour)
	})

	role := testutil.CreateRole(t, q, "author")
	user := testutil.CreateUser(t, q, "late", "changeme", role.ID)

	token, err := tm.Issue(user.ID)
	require.NoError(t, err)

	fresh := auth.NewTokenManager(testSecret, q)
	_, err = fresh.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyCredentials(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	role := testutil.CreateRole(t, q, "author")
	testutil.CreateUser(t, q, "alice", "s3cretpass", role.ID)

	user, err := auth.VerifyCredentials(ctx, q, "alice@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = auth.VerifyCredentials(ctx, q, "alice@example.com", "wrongpass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, err = auth.VerifyCredentials(ctx, q, "nobody@example.com", "s3cretpass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
