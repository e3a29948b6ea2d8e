// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// GetOrCreateSettings returns the settings singleton, creating it with the
// built-in defaults if it does not exist yet. The INSERT is conditional so
// concurrent first reads cannot create two records.
func (q *Queries) GetOrCreateSettings(ctx context.Context) (model.Settings, error) {
	defaults := model.DefaultSettings()
	colors, err := json.Marshal(defaults.Colors)
	if err != nil {
		return model.Settings{}, fmt.Errorf("marshaling default colors: %w", err)
	}

	now := time.Now()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO settings (id, colors, language, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		string(colors), defaults.Language, now, now)
	if err != nil {
		return model.Settings{}, err
	}

	return q.getSettings(ctx)
}

func (q *Queries) getSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	var colors string
	err := q.db.QueryRowContext(ctx,
		"SELECT id, colors, language, created_at, updated_at FROM settings WHERE id = 1").
		Scan(&s.ID, &colors, &s.Language, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Settings{}, err
	}
	if err := json.Unmarshal([]byte(colors), &s.Colors); err != nil {
		return model.Settings{}, fmt.Errorf("unmarshaling colors: %w", err)
	}
	return s, nil
}

// UpdateSettings rewrites the theme palette and language. A nil colors map
// keeps the stored palette and an empty language keeps the stored language,
// so partial updates never destroy the other half of the record. Last write
// wins; the record is cosmetic configuration.
func (q *Queries) UpdateSettings(ctx context.Context, colors map[string]string, language string) (model.Settings, error) {
	if _, err := q.GetOrCreateSettings(ctx); err != nil {
		return model.Settings{}, err
	}

	if colors != nil {
		data, err := json.Marshal(colors)
		if err != nil {
			return model.Settings{}, fmt.Errorf("marshaling colors: %w", err)
		}
		if _, err := q.db.ExecContext(ctx,
			"UPDATE settings SET colors = ?, updated_at = ? WHERE id = 1",
			string(data), time.Now()); err != nil {
			return model.Settings{}, err
		}
	}
	if language != "" {
		if _, err := q.db.ExecContext(ctx,
			"UPDATE settings SET language = ?, updated_at = ? WHERE id = 1",
			language, time.Now()); err != nil {
			return model.Settings{}, err
		}
	}
	return q.getSettings(ctx)
}

// UpdateLanguage changes only the interface language.
func (q *Queries) UpdateLanguage(ctx context.Context, language string) (model.Settings, error) {
	if _, err := q.GetOrCreateSettings(ctx); err != nil {
		return model.Settings{}, err
	}
	_, err := q.db.ExecContext(ctx,
		"UPDATE settings SET language = ?, updated_at = ? WHERE id = 1",
		language, time.Now())
	if err != nil {
		return model.Settings{}, err
	}
	return q.getSettings(ctx)
}
