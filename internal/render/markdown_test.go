// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	html, err := Markdown("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestMarkdownStripsScripts(t *testing.T) {
	html, err := Markdown("hello <script>alert(1)</script> world")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, "hello")
}

func TestSanitizeHTML(t *testing.T) {
	out := SanitizeHTML(`<p onclick="evil()">ok</p><iframe src="x"></iframe>`)
	assert.Equal(t, "<p>ok</p>", out)
}
