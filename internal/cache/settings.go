// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

const settingsKey = "settings"

// SettingsCache is a read-through cache over the settings singleton. Cache
// failures fall back to the database, so a dead Redis never breaks reads.
type SettingsCache struct {
	cache   Cache
	queries *store.Queries
	logger  *slog.Logger
}

// NewSettingsCache wraps the given backend and store.
func NewSettingsCache(c Cache, queries *store.Queries, logger *slog.Logger) *SettingsCache {
	return &SettingsCache{cache: c, queries: queries, logger: logger}
}

// Get returns the settings, served from cache when possible.
func (s *SettingsCache) Get(ctx context.Context) (model.Settings, error) {
	if data, err := s.cache.Get(ctx, settingsKey); err == nil {
		var settings model.Settings
		if err := json.Unmarshal(data, &settings); err == nil {
			return settings, nil
		}
		// Corrupt entry: drop it and reload.
		_ = s.cache.Delete(ctx, settingsKey)
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("settings cache read failed", "error", err)
	}

	settings, err := s.queries.GetOrCreateSettings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	s.store(ctx, settings)
	return settings, nil
}

// Update persists new settings and refreshes the cached copy.
func (s *SettingsCache) Update(ctx context.Context, colors map[string]string, language string) (model.Settings, error) {
	settings, err := s.queries.UpdateSettings(ctx, colors, language)
	if err != nil {
		return model.Settings{}, err
	}
	s.store(ctx, settings)
	return settings, nil
}

// UpdateLanguage changes only the interface language and refreshes the cache.
func (s *SettingsCache) UpdateLanguage(ctx context.Context, language string) (model.Settings, error) {
	settings, err := s.queries.UpdateLanguage(ctx, language)
	if err != nil {
		return model.Settings{}, err
	}
	s.store(ctx, settings)
	return settings, nil
}

// Invalidate drops the cached copy.
func (s *SettingsCache) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, settingsKey); err != nil {
		s.logger.Warn("settings cache invalidation failed", "error", err)
	}
}

func (s *SettingsCache) store(ctx context.Context, settings model.Settings) {
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, settingsKey, data, 0); err != nil {
		s.logger.Warn("settings cache write failed", "error", err)
	}
}
