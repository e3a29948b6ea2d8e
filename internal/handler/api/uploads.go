// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/media"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// UploadResponse describes a stored image.
type UploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// UploadImage accepts a multipart image and stores it in the configured
// media backend. The form field is "file".
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize)
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "bad_request", "File exceeds the 10MB upload limit", nil)
			return
		}
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close() //nolint:errcheck

	if media.MimeType(header.Filename) == "" {
		WriteValidationError(w, map[string]string{"file": "Only jpg, png, gif and webp images are accepted"})
		return
	}

	upload, err := h.media.Upload(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			WriteValidationError(w, map[string]string{"file": "Only jpg, png, gif and webp images are accepted"})
			return
		}
		h.logger.Error("image upload failed", "filename", header.Filename, "error", err)
		WriteInternalError(w, "Failed to store image")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryPost, "Image uploaded",
		middleware.GetUserIDPtr(r), map[string]any{"public_id": upload.PublicID})

	WriteCreated(w, UploadResponse{URL: upload.URL, PublicID: upload.PublicID})
}

// DeleteImage removes a stored image by its public ID. Unknown IDs succeed,
// matching the backend contract.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")
	if publicID == "" {
		WriteBadRequest(w, "Missing image ID", nil)
		return
	}

	if err := h.media.Delete(r.Context(), publicID); err != nil {
		h.logger.Error("image deletion failed", "public_id", publicID, "error", err)
		WriteInternalError(w, "Failed to delete image")
		return
	}
	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}
