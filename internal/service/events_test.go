// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Umar7799/course-project/internal/logging"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/testutil"
)

// setupEventTestDB creates only the events table, without the users foreign key.
func setupEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := testutil.TestMemoryDB(t)
	_, err := db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			request_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("failed to create events table: %v", err)
	}
	return db
}

func TestLogEvent(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db)
	ctx := logging.WithRequestURL(context.Background(), "/api/templates/4/visibility")

	userID := int64(123)
	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryTemplate, "Template visibility changed", &userID, "192.168.1.100", map[string]any{
		"template_id": 4,
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var level, category, message, metadata, ip, requestURL string
	var savedUserID sql.NullInt64
	err = db.QueryRow("SELECT level, category, message, user_id, metadata, ip_address, request_url FROM events").
		Scan(&level, &category, &message, &savedUserID, &metadata, &ip, &requestURL)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if level != "info" {
		t.Errorf("level = %q, want %q", level, "info")
	}
	if category != "template" {
		t.Errorf("category = %q, want %q", category, "template")
	}
	if message != "Template visibility changed" {
		t.Errorf("message = %q", message)
	}
	if !savedUserID.Valid || savedUserID.Int64 != 123 {
		t.Errorf("user_id = %v, want 123", savedUserID)
	}
	if metadata != `{"template_id":4}` {
		t.Errorf("metadata = %q, want %q", metadata, `{"template_id":4}`)
	}
	if ip != "192.168.1.100" {
		t.Errorf("ip_address = %q", ip)
	}
	if requestURL != "/api/templates/4/visibility" {
		t.Errorf("request_url = %q, want %q", requestURL, "/api/templates/4/visibility")
	}
}

func TestLogEvent_NilUserIDAndMetadata(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db)

	if err := svc.LogEvent(context.Background(), model.EventLevelWarning, model.EventCategorySystem, "No user", nil, "", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var savedUserID sql.NullInt64
	var metadata, requestURL string
	if err := db.QueryRow("SELECT user_id, metadata, request_url FROM events").Scan(&savedUserID, &metadata, &requestURL); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if savedUserID.Valid {
		t.Error("user_id should be NULL")
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want %q", metadata, "{}")
	}
	if requestURL != "" {
		t.Errorf("request_url = %q, want empty", requestURL)
	}
}

// testEventField tests that a logging function produces the expected field value in the database.
func testEventField(t *testing.T, logFn func(*EventService, context.Context) error, fieldName, expected string) {
	t.Helper()
	db := setupEventTestDB(t)
	svc := NewEventService(db)

	if err := logFn(svc, context.Background()); err != nil {
		t.Fatalf("Log function failed: %v", err)
	}

	var got string
	if err := db.QueryRow("SELECT " + fieldName + " FROM events").Scan(&got); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if got != expected {
		t.Errorf("%s = %q, want %q", fieldName, got, expected)
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(*EventService, context.Context) error
		expected string
	}{
		{"info", func(svc *EventService, ctx context.Context) error {
			return svc.LogInfo(ctx, model.EventCategoryTemplate, "Template shared", nil, "", nil)
		}, "info"},
		{"warning", func(svc *EventService, ctx context.Context) error {
			return svc.LogWarning(ctx, model.EventCategorySystem, "Low disk space", nil, "", nil)
		}, "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEventField(t, tt.logFn, "level", tt.expected)
		})
	}
}

func TestLogCategoryEvents(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(*EventService, context.Context) error
		expected string
	}{
		{"auth", func(svc *EventService, ctx context.Context) error {
			return svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", nil, "", nil)
		}, "auth"},
		{"user", func(svc *EventService, ctx context.Context) error {
			return svc.LogUserEvent(ctx, model.EventLevelInfo, "User role changed", nil, "", nil)
		}, "user"},
		{"template", func(svc *EventService, ctx context.Context) error {
			return svc.LogTemplateEvent(ctx, model.EventLevelInfo, "User added to allow-list", nil, "", nil)
		}, "template"},
		{"crm", func(svc *EventService, ctx context.Context) error {
			return svc.LogCRMEvent(ctx, model.EventLevelInfo, "Salesforce connected", nil, "", nil)
		}, "crm"},
		{"system", func(svc *EventService, ctx context.Context) error {
			return svc.LogSystemEvent(ctx, model.EventLevelInfo, "System started", nil, "", nil)
		}, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEventField(t, tt.logFn, "category", tt.expected)
		})
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return now.Add(-31 * 24 * time.Hour) }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "Old event", nil, "", nil); err != nil {
		t.Fatalf("LogInfo failed: %v", err)
	}
	svc.now = func() time.Time { return now }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "Recent event", nil, "", nil); err != nil {
		t.Fatalf("LogInfo failed: %v", err)
	}

	deleted, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	var message string
	if err := db.QueryRow("SELECT message FROM events").Scan(&message); err != nil {
		t.Fatalf("failed to read remaining event: %v", err)
	}
	if message != "Recent event" {
		t.Errorf("remaining event = %q, want %q", message, "Recent event")
	}
}
