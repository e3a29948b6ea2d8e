// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// RemoteStore uploads images to an external media service over HTTP.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteStore creates a store talking to the given service base URL.
func NewRemoteStore(baseURL, apiKey string) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type remoteUploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Upload posts the image as multipart form data and returns the service's
// URL and handle.
func (s *RemoteStore) Upload(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	mimeType := MimeType(filename)
	if mimeType == "" {
		return Upload{}, ErrUnsupportedType
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Upload{}, fmt.Errorf("building upload request: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(r, MaxUploadSize)); err != nil {
		return Upload{}, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Upload{}, fmt.Errorf("building upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &body)
	if err != nil {
		return Upload{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Upload{}, fmt.Errorf("uploading to media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Upload{}, fmt.Errorf("media service returned %d", resp.StatusCode)
	}

	var out remoteUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Upload{}, fmt.Errorf("decoding media service response: %w", err)
	}
	return Upload{URL: out.URL, PublicID: out.PublicID}, nil
}

// Delete asks the service to remove an image. A 404 is treated as success.
func (s *RemoteStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/upload/"+publicID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting from media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("media service returned %d", resp.StatusCode)
	}
	return nil
}

var _ Store = (*RemoteStore)(nil)
