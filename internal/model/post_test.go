// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
	"time"
)

func schedTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func TestValidateSchedule(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    string
		scheduled sql.NullTime
		wantField string
	}{
		{"draft needs no date", PostStatusDraft, sql.NullTime{}, ""},
		{"published needs no date", PostStatusPublished, sql.NullTime{}, ""},
		{"scheduled in the future", PostStatusScheduled, schedTime(now.Add(time.Hour)), ""},
		{"scheduled without date", PostStatusScheduled, sql.NullTime{}, "scheduled_at"},
		{"scheduled in the past", PostStatusScheduled, schedTime(now.Add(-time.Minute)), "scheduled_at"},
		{"scheduled exactly now", PostStatusScheduled, schedTime(now), "scheduled_at"},
		{"unknown status", "archived", sql.NullTime{}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{Status: tt.status, ScheduledAt: tt.scheduled}
			errs := p.ValidateSchedule(now)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("ValidateSchedule() = %v, want no errors", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("ValidateSchedule() = %v, want error on field %q", errs, tt.wantField)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("elapsed schedule flips to published", func(t *testing.T) {
		p := &Post{Status: PostStatusScheduled, ScheduledAt: schedTime(now.Add(-time.Minute))}
		if !p.Normalize(now) {
			t.Fatal("Normalize() = false, want true")
		}
		if p.Status != PostStatusPublished {
			t.Errorf("status = %q, want published", p.Status)
		}
		if p.ScheduledAt.Valid {
			t.Error("scheduled_at still set after publish")
		}
	})

	t.Run("future schedule untouched", func(t *testing.T) {
		p := &Post{Status: PostStatusScheduled, ScheduledAt: schedTime(now.Add(time.Hour))}
		if p.Normalize(now) {
			t.Fatal("Normalize() = true, want false")
		}
		if p.Status != PostStatusScheduled || !p.ScheduledAt.Valid {
			t.Errorf("post = %+v, want untouched scheduled post", p)
		}
	})

	t.Run("non-scheduled status clears date", func(t *testing.T) {
		p := &Post{Status: PostStatusDraft, ScheduledAt: schedTime(now.Add(time.Hour))}
		if p.Normalize(now) {
			t.Fatal("Normalize() = true, want false")
		}
		if p.ScheduledAt.Valid {
			t.Error("scheduled_at kept on a draft")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		p := &Post{Status: PostStatusScheduled, ScheduledAt: schedTime(now.Add(-time.Minute))}
		p.Normalize(now)
		if p.Normalize(now) {
			t.Error("second Normalize() reported a change")
		}
		if p.Status != PostStatusPublished {
			t.Errorf("status = %q, want published", p.Status)
		}
	})
}
