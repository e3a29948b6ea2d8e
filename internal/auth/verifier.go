// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password, so login responses never reveal which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is verified against when the email is unknown, keeping the
// response time of that path close to a real password check.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// VerifyCredentials looks up a user by email and checks the password.
func VerifyCredentials(ctx context.Context, queries *store.Queries, email, password string) (model.User, error) {
	user, err := queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = CheckPassword(password, dummyHash)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}
