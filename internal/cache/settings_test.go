// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/cache"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

func TestSettingsCacheReadThrough(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	mem := cache.NewMemoryCache(time.Minute)
	defer mem.Close()

	sc := cache.NewSettingsCache(mem, q, testutil.TestLogger())
	ctx := context.Background()

	s, err := sc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLanguage, s.Language)

	// Second read is served from cache; mutate the DB behind its back to
	// prove it.
	_, err = q.UpdateLanguage(ctx, "en")
	require.NoError(t, err)

	s, err = sc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLanguage, s.Language, "stale read expected before invalidation")

	sc.Invalidate(ctx)
	s, err = sc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", s.Language)
}

func TestSettingsCacheUpdateRefreshes(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	mem := cache.NewMemoryCache(time.Minute)
	defer mem.Close()

	sc := cache.NewSettingsCache(mem, q, testutil.TestLogger())
	ctx := context.Background()

	colors := model.DefaultColors()
	colors["primary"] = "#000000"
	_, err := sc.Update(ctx, colors, "ru")
	require.NoError(t, err)

	s, err := sc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#000000", s.Colors["primary"])
	assert.Equal(t, "ru", s.Language)
}
