// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores featured images for posts. Two backends exist: local
// disk for development and a remote upload service for production.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// MaxUploadSize limits featured image uploads.
const MaxUploadSize = 10 * 1024 * 1024 // 10MB

// ErrUnsupportedType is returned for files that are not images.
var ErrUnsupportedType = errors.New("unsupported file type")

// allowedExtensions maps image file extensions to their MIME types.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload is a stored image: the URL clients load it from and the opaque
// handle used to delete it later.
type Upload struct {
	URL      string
	PublicID string
}

// Store is implemented by the disk and remote backends.
type Store interface {
	// Upload stores an image and returns its public URL and handle.
	Upload(ctx context.Context, filename string, r io.Reader) (Upload, error)

	// Delete removes a previously uploaded image by its handle. Deleting an
	// unknown handle is not an error.
	Delete(ctx context.Context, publicID string) error
}

// MimeType returns the MIME type for an image filename, or "" when the
// extension is not an allowed image type.
func MimeType(filename string) string {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}
