// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryAccess   = "access"
	EventCategoryUser     = "user"
	EventCategoryTemplate = "template"
	EventCategoryCRM      = "crm"
	EventCategorySystem   = "system"
	EventCategoryCache    = "cache"
)
