// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps uploads on the local filesystem, served under /uploads/.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Upload stores an image under a random name, keeping the original extension.
func (s *LocalStore) Upload(_ context.Context, filename string, r io.Reader) (Upload, error) {
	if MimeType(filename) == "" {
		return Upload{}, ErrUnsupportedType
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path) //nolint:gosec // name is a generated UUID
	if err != nil {
		return Upload{}, fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, MaxUploadSize)); err != nil {
		_ = os.Remove(path)
		return Upload{}, fmt.Errorf("writing upload file: %w", err)
	}

	return Upload{URL: "/uploads/" + name, PublicID: name}, nil
}

// Delete removes an uploaded file. The handle is validated so it can only
// name a file directly inside the upload directory.
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" || strings.ContainsAny(publicID, `/\`) || strings.Contains(publicID, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, publicID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ Store = (*LocalStore)(nil)
