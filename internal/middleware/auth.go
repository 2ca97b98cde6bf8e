// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authorization, rate
// limiting and request context handling.
package middleware

import (
	"context"
	"net/http"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyPrincipal   ContextKey = "principal"
	ContextKeyRequestPath ContextKey = "request_path"
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// GetPrincipal retrieves the caller resolved by the access pipeline.
// The second result is false on public routes.
func GetPrincipal(r *http.Request) (access.Principal, bool) {
	p, ok := r.Context().Value(ContextKeyPrincipal).(access.Principal)
	return p, ok
}

// GetUserID returns the caller's user ID, or 0 when the route is public.
func GetUserID(r *http.Request) int64 {
	p, _ := GetPrincipal(r)
	return p.ID
}

// GetUserIDPtr returns a pointer to the caller's user ID, or nil when the
// route is public. Event logging takes a pointer.
func GetUserIDPtr(r *http.Request) *int64 {
	p, ok := GetPrincipal(r)
	if !ok || p.ID == 0 {
		return nil
	}
	id := p.ID
	return &id
}

// RequestPath stores the request path in the context so handlers and the
// event log can read it.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		ctx = logging.WithRequestURL(ctx, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath returns the path stored by RequestPath.
func GetRequestPath(r *http.Request) string {
	path, _ := r.Context().Value(ContextKeyRequestPath).(string)
	return path
}
