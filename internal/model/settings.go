// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"time"
)

// SupportedLanguages lists the interface locale codes the admin UI ships
// translations for.
var SupportedLanguages = []string{"fr", "en", "es", "de", "ru"}

// DefaultLanguage is the interface language used until an admin picks one.
const DefaultLanguage = "fr"

// IsSupportedLanguage reports whether code is a known locale code.
func IsSupportedLanguage(code string) bool {
	return slices.Contains(SupportedLanguages, code)
}

// Settings is the site-wide singleton holding the theme palette and the
// selected interface language. Exactly one record is ever expected to exist;
// it is created lazily with defaults on first read.
type Settings struct {
	ID        int64             `json:"id"`
	Colors    map[string]string `json:"colors"`
	Language  string            `json:"language"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DefaultColors returns the built-in theme palette. Keys are CSS variable
// names consumed by the admin SPA; values are hex or rgba strings.
func DefaultColors() map[string]string {
	return map[string]string{
		// Base colors
		"primary":   "#4299e1",
		"secondary": "#e2e8f0",
		"accent":    "#ed8936",

		// Backgrounds
		"background_main":    "#ffffff",
		"background_alt":     "#f7fafc",
		"background_dark":    "#2d3748",
		"sidebar_background": "#2d3748",

		// Cards and containers
		"card_background":     "#ffffff",
		"card_border":         "#e2e8f0",
		"modal_background":    "#ffffff",
		"modal_overlay":       "rgba(0, 0, 0, 0.5)",
		"dropdown_background": "#ffffff",

		// Text
		"text_primary":   "#2d3748",
		"text_secondary": "#4a5568",
		"text_light":     "#ffffff",
		"text_muted":     "#718096",
		"text_link":      "#4299e1",
		"text_hover":     "#2b6cb0",
		"sidebar_text":   "#ffffff",

		// Buttons
		"button_primary_bg":     "#4299e1",
		"button_primary_text":   "#ffffff",
		"button_secondary_bg":   "#e2e8f0",
		"button_secondary_text": "#2d3748",
		"button_danger_bg":      "#e53e3e",
		"button_danger_text":    "#ffffff",

		// Form inputs
		"input_background":   "#ffffff",
		"input_border":       "#e2e8f0",
		"input_text":         "#2d3748",
		"input_placeholder":  "#a0aec0",
		"input_focus_border": "#4299e1",

		// Status colors
		"success": "#48bb78",
		"warning": "#ed8936",
		"error":   "#e53e3e",
		"info":    "#4299e1",
	}
}

// DefaultSettings returns a settings record with the built-in palette and
// default language.
func DefaultSettings() Settings {
	return Settings{
		Colors:   DefaultColors(),
		Language: DefaultLanguage,
	}
}
