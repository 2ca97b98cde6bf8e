// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Template descriptions are markdown written by users. The rendered HTML
// passes through UGCPolicy; comments are stored as plain text.
var (
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlPolicy   = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// RenderMarkdown converts a markdown description into sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// PlainText strips every tag from s and trims surrounding whitespace.
func PlainText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
