// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountLockoutAfterFailures(t *testing.T) {
	lp := NewLoginProtection()

	for i := 0; i < 4; i++ {
		locked, _ := lp.RecordFailedAttempt("a@example.com")
		assert.False(t, locked, "attempt %d should not lock", i+1)
	}

	locked, duration := lp.RecordFailedAttempt("a@example.com")
	assert.True(t, locked)
	assert.Greater(t, duration, time.Duration(0))

	locked, remaining := lp.IsAccountLocked("a@example.com")
	assert.True(t, locked)
	assert.Greater(t, remaining, time.Duration(0))

	// Other accounts are unaffected.
	locked, _ = lp.IsAccountLocked("b@example.com")
	assert.False(t, locked)
}

func TestSuccessfulLoginClearsAttempts(t *testing.T) {
	lp := NewLoginProtection()

	for i := 0; i < 3; i++ {
		lp.RecordFailedAttempt("a@example.com")
	}
	lp.RecordSuccessfulLogin("a@example.com")

	for i := 0; i < 4; i++ {
		locked, _ := lp.RecordFailedAttempt("a@example.com")
		assert.False(t, locked)
	}
}

func TestCleanupRemovesStaleAttempts(t *testing.T) {
	lp := NewLoginProtection()

	lp.RecordFailedAttempt("fresh@example.com")
	lp.RecordFailedAttempt("stale@example.com")

	// Age one entry past the attempt window with its lockout expired.
	lp.attemptsMu.Lock()
	lp.failedAttempts["stale@example.com"].firstFailed = time.Now().Add(-time.Hour)
	lp.attemptsMu.Unlock()

	lp.cleanupStaleEntries()

	lp.attemptsMu.RLock()
	_, staleKept := lp.failedAttempts["stale@example.com"]
	_, freshKept := lp.failedAttempts["fresh@example.com"]
	lp.attemptsMu.RUnlock()

	assert.False(t, staleKept, "expired entry is dropped")
	assert.True(t, freshKept, "recent entry survives")
}

func TestLoginRateLimitPerIP(t *testing.T) {
	lp := NewLoginProtection()
	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var lastCode int
	for i := 0; i < 10; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.Header.Set("X-Real-IP", "203.0.113.9")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		lastCode = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode, "burst exhausted")

	// GET requests are never throttled.
	r := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	r.Header.Set("X-Real-IP", "203.0.113.9")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// A different IP has its own budget.
	r = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.Header.Set("X-Real-IP", "203.0.113.10")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
