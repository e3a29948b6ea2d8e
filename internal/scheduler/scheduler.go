// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic sweep that publishes scheduled posts
// whose publish date has arrived.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// Scheduler owns the publish sweep cron job.
type Scheduler struct {
	queries *store.Queries
	events  *service.EventService
	cron    *cron.Cron
	logger  *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queries: store.New(db),
		events:  service.NewEventService(db),
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start runs one sweep immediately to catch posts that came due while the
// process was down, then sweeps every minute. Sweep errors are logged and
// never stop the ticker.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", s.sweep)
	if err != nil {
		return err
	}

	s.sweep()
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// sweep publishes every post whose schedule has elapsed. The store does it
// in a single conditional update, so overlapping sweeps cannot publish the
// same post twice and a rerun is a no-op.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	published, err := s.queries.PublishDuePosts(ctx, now)
	if err != nil {
		s.logger.Error("publish sweep failed", "category", model.EventCategoryPost, "error", err)
		return
	}
	if published == 0 {
		return
	}

	s.logger.Info("published scheduled posts", "count", published)
	if err := s.events.LogInfo(ctx, model.EventCategoryPost, "Posts published by scheduler", nil,
		map[string]any{"count": published, "swept_at": now.Format(time.RFC3339)}); err != nil {
		s.logger.Warn("failed to log scheduled publish event", "error", err)
	}
}

// SweepNow runs a single sweep outside the cron cadence.
func (s *Scheduler) SweepNow() {
	s.sweep()
}
