// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "strings"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// Current is set from main at startup.
var Current = Info{Version: "dev"}

// Label returns the version with the commit appended when known,
// e.g. "v1.2.3 (abc1234)". An empty version reads as "dev".
func (i Info) Label() string {
	v := strings.TrimSpace(i.Version)
	if v == "" {
		v = "dev"
	}
	if i.GitCommit == "" {
		return v
	}
	return v + " (" + i.GitCommit + ")"
}
