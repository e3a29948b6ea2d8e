// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// GetSettings returns the site settings. Public: the frontend needs colors
// and language before anyone logs in.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("settings read failed", "error", err)
		WriteInternalError(w, "Failed to load settings")
		return
	}
	WriteSuccess(w, settings, nil)
}

// LanguageResponse carries just the interface language.
type LanguageResponse struct {
	Language string `json:"language"`
}

// GetLanguage returns the configured interface language.
func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("settings read failed", "error", err)
		WriteInternalError(w, "Failed to load settings")
		return
	}
	WriteSuccess(w, LanguageResponse{Language: settings.Language}, nil)
}

// SettingsRequest is the settings update payload. Omitted colors keep their
// stored value; an omitted language keeps the stored language.
type SettingsRequest struct {
	Colors   map[string]string `json:"colors"`
	Language string            `json:"language"`
}

// UpdateSettings replaces theme colors and optionally the language.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Language != "" && !model.IsSupportedLanguage(req.Language) {
		WriteValidationError(w, map[string]string{
			"language": "Unsupported language. Supported: " + strings.Join(model.SupportedLanguages, ", "),
		})
		return
	}

	settings, err := h.settings.Update(r.Context(), req.Colors, req.Language)
	if err != nil {
		h.logger.Error("settings update failed", "error", err)
		WriteInternalError(w, "Failed to update settings")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryConfig, "Settings updated",
		middleware.GetUserIDPtr(r), nil)

	WriteSuccess(w, settings, nil)
}

// UpdateLanguage changes only the interface language.
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageResponse
	if !decodeBody(w, r, &req) {
		return
	}
	if !model.IsSupportedLanguage(req.Language) {
		WriteValidationError(w, map[string]string{
			"language": "Unsupported language. Supported: " + strings.Join(model.SupportedLanguages, ", "),
		})
		return
	}

	settings, err := h.settings.UpdateLanguage(r.Context(), req.Language)
	if err != nil {
		h.logger.Error("language update failed", "error", err)
		WriteInternalError(w, "Failed to update language")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryConfig, "Language changed",
		middleware.GetUserIDPtr(r), map[string]any{"language": req.Language})

	WriteSuccess(w, settings, nil)
}
