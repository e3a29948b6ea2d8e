// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OBLOG_DB_PATH" envDefault:"./data/oblog.db"`
	JWTSecret  string `env:"OBLOG_JWT_SECRET,required"`
	ServerHost string `env:"OBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OBLOG_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OBLOG_ENV" envDefault:"development"`
	LogLevel   string `env:"OBLOG_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL    string `env:"OBLOG_REDIS_URL"`                       // Optional Redis URL for the settings cache
	CachePrefix string `env:"OBLOG_CACHE_PREFIX" envDefault:"oblog:"` // Redis key prefix
	CacheTTL    int    `env:"OBLOG_CACHE_TTL" envDefault:"3600"`      // Default cache TTL in seconds

	// Image host configuration. When UploadURL is empty, uploads are stored
	// on local disk under UploadsDir and served from /uploads.
	UploadURL    string `env:"OBLOG_UPLOAD_URL"`
	UploadAPIKey string `env:"OBLOG_UPLOAD_API_KEY"`
	UploadsDir   string `env:"OBLOG_UPLOADS_DIR" envDefault:"./uploads"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseRemoteUploads returns true if an external image host is configured.
func (c Config) UseRemoteUploads() bool {
	return c.UploadURL != ""
}

// MinJWTSecretLength is the minimum required length for the token signing
// secret. HS256 needs at least 32 bytes of key material.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("OBLOG_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("OBLOG_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("OBLOG_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
