// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/auth"
	"github.com/Umar7799/course-project/internal/model"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message, reason string) {
	writeErrorResponse(w, statusCode, ErrorResponse{Error: message, Reason: reason})
}

// WriteFieldErrors writes a 400 response listing invalid request fields.
func WriteFieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{Error: message, Reason: "validation_error", Fields: fields})
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteAccessError terminates a request the access pipeline refused. Denials
// are logged at WARN, which also puts them in the event log; store failures
// are logged at ERROR and answered with a generic message.
func WriteAccessError(w http.ResponseWriter, r *http.Request, p access.Principal, err error) {
	ae := access.AsError(err)

	if ae.Kind == access.Internal {
		slog.ErrorContext(r.Context(), "access check failed",
			"category", model.EventCategoryAccess,
			"error", ae.Err,
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", p.ID,
			"ip", getClientIP(r),
		)
	} else {
		slog.WarnContext(r.Context(), "access denied",
			"category", model.EventCategoryAccess,
			"reason", string(ae.Reason),
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", p.ID,
			"role", p.Role,
			"ip", getClientIP(r),
		)
	}

	WriteError(w, ae.Kind.HTTPStatus(), ae.Message, string(ae.Reason))
}

// Authorizer is the single dispatcher that enforces route requirements.
type Authorizer struct {
	guard *access.Guard
}

// NewAuthorizer creates an Authorizer backed by guard.
func NewAuthorizer(guard *access.Guard) *Authorizer {
	return &Authorizer{guard: guard}
}

// Guard returns the underlying guard for checks on resources named in a
// request body.
func (a *Authorizer) Guard() *access.Guard {
	return a.guard
}

// Require returns middleware enforcing req. On success the resolved principal
// is stored in the request context; on failure the request ends here.
func (a *Authorizer) Require(req access.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if req.IsPublic() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// An id that is not a positive number matches no row, so the
			// resolver reports it as not found after the caller is identified.
			var id int64
			if req.TargetsResource() {
				id, _ = strconv.ParseInt(chi.URLParam(r, req.ParamName()), 10, 64)
			}

			token := auth.BearerToken(r.Header.Get("Authorization"))
			p, err := a.guard.Authorize(r.Context(), token, req, id)
			if err != nil {
				WriteAccessError(w, r, p, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
