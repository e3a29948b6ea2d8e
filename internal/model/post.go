// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusScheduled = "scheduled"
)

// FeaturedImage describes an asset stored on the external image host. The
// blog only keeps the returned URL and deletion handle, never image bytes.
type FeaturedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Alt      string `json:"alt,omitempty"`
}

// Post represents a blog post.
type Post struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Excerpt       string         `json:"excerpt,omitempty"`
	Slug          string         `json:"slug"`
	Status        string         `json:"status"`
	ScheduledAt   sql.NullTime   `json:"scheduled_at,omitempty"`
	AuthorID      int64          `json:"author_id"`
	FeaturedImage *FeaturedImage `json:"featured_image,omitempty"`
	Views         int64          `json:"views"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// ValidStatus reports whether s is one of the three post states.
func ValidStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished || s == PostStatusScheduled
}

// ValidateSchedule checks the status/scheduled_at pair before a write.
// A scheduled post must carry a schedule date strictly in the future.
// Returns field-level validation errors keyed by field name.
func (p *Post) ValidateSchedule(now time.Time) map[string]string {
	errs := make(map[string]string)
	if !ValidStatus(p.Status) {
		errs["status"] = "Status must be draft, published or scheduled"
		return errs
	}
	if p.Status == PostStatusScheduled {
		if !p.ScheduledAt.Valid {
			errs["scheduled_at"] = "Scheduled date is required for scheduled posts"
		} else if !p.ScheduledAt.Time.After(now) {
			errs["scheduled_at"] = "Scheduled date must be in the future"
		}
	}
	return errs
}

// Normalize applies the lifecycle invariants on every persist path:
// a non-scheduled post never carries a schedule date, and a scheduled post
// whose date has already elapsed becomes published immediately, as if the
// sweeper had run. Returns true if the post was flipped to published.
func (p *Post) Normalize(now time.Time) bool {
	if p.Status != PostStatusScheduled {
		p.ScheduledAt = sql.NullTime{}
		return false
	}
	if p.ScheduledAt.Valid && !p.ScheduledAt.Time.After(now) {
		p.Status = PostStatusPublished
		p.ScheduledAt = sql.NullTime{}
		return true
	}
	return false
}
