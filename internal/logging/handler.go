// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies WARN and ERROR records
// into the events table, where admins read them as the audit trail.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
)

type ctxKey struct{}

// WithRequestURL stores the request path so records logged with the context
// carry it into the event log.
func WithRequestURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, ctxKey{}, url)
}

// RequestURL returns the path stored by WithRequestURL.
func RequestURL(ctx context.Context) string {
	url, _ := ctx.Value(ctxKey{}).(string)
	return url
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventLogHandler creates a handler forwarding WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler. The attributes also reach the event log.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog stores the record. It uses a background context so that an
// aborted request still leaves its trace.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	e := eventFromRecord(r, h.attrs)
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:      slogLevelToEventLevel(r.Level),
		Category:   e.category,
		Message:    r.Message,
		UserID:     e.userID,
		Metadata:   e.metadata,
		IpAddress:  e.ip,
		RequestUrl: RequestURL(ctx),
		CreatedAt:  r.Time,
	})
}

type recordFields struct {
	category string
	userID   sql.NullInt64
	ip       string
	metadata string
}

// eventFromRecord lifts category, user_id and ip out of the attributes and
// stores the rest as a JSON object.
func eventFromRecord(r slog.Record, extra []slog.Attr) recordFields {
	var f recordFields
	meta := make(map[string]string)

	visit := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			f.category = a.Value.String()
		case "user_id":
			if a.Value.Kind() == slog.KindInt64 && a.Value.Int64() > 0 {
				f.userID = sql.NullInt64{Int64: a.Value.Int64(), Valid: true}
			}
		case "ip":
			f.ip = a.Value.String()
		default:
			meta[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range extra {
		visit(a)
	}
	r.Attrs(visit)

	if f.category == "" {
		f.category = inferCategory(r.Message)
	}

	f.metadata = "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			f.metadata = string(b)
		}
	}
	return f
}

// inferCategory guesses a category from the message when none was given.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "access") || strings.Contains(msg, "denied"):
		return model.EventCategoryAccess
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "token"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "template") || strings.Contains(msg, "question"):
		return model.EventCategoryTemplate
	case strings.Contains(msg, "salesforce") || strings.Contains(msg, "crm"):
		return model.EventCategoryCRM
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

// slogLevelToEventLevel converts a slog.Level to an event level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}
