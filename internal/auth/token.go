// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// TokenTTL is how long an issued bearer token stays valid.
const TokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken is returned for malformed, mis-signed or expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound is returned when a valid token references a user that
	// no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// TokenManager issues and resolves signed bearer tokens. Tokens carry only
// the user ID; role and permissions are loaded fresh on every request so a
// role change takes effect without waiting for token expiry.
type TokenManager struct {
	secret  []byte
	queries *store.Queries
	now     func() time.Time
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, queries *store.Queries) *TokenManager {
	return NewTokenManagerAt(secret, queries, time.Now)
}

// NewTokenManagerAt is NewTokenManager with an injectable clock.
func NewTokenManagerAt(secret string, queries *store.Queries, now func() time.Time) *TokenManager {
	return &TokenManager{secret: []byte(secret), queries: queries, now: now}
}

// Issue signs a token for the given user, valid for TokenTTL.
func (m *TokenManager) Issue(userID int64) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Resolve validates a token string and loads the user it identifies.
func (m *TokenManager) Resolve(ctx context.Context, tokenString string) (model.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return model.User{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return model.User{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}

	user, err := m.queries.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading token user: %w", err)
	}
	return user, nil
}
