// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
)

// errLastAdmin is returned when a change would leave no active admin.
var errLastAdmin = errors.New("last active admin")

// UserPage is one page of the user list.
type UserPage struct {
	Users []model.User `json:"users"`
	Meta  Meta         `json:"meta"`
}

// UpdateRoleRequest represents the request body for changing a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// UpdateStatusRequest represents the request body for blocking or unblocking a user.
type UpdateStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// EventResponse represents an audit event in API responses.
type EventResponse struct {
	ID         int64           `json:"id"`
	Level      string          `json:"level"`
	Category   string          `json:"category"`
	Message    string          `json:"message"`
	UserID     *int64          `json:"userId,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	IPAddress  string          `json:"ipAddress,omitempty"`
	RequestURL string          `json:"requestUrl,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// EventPage is one page of the audit log.
type EventPage struct {
	Events []EventResponse `json:"events"`
	Meta   Meta            `json:"meta"`
}

func eventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		IPAddress:  e.IPAddress,
		RequestURL: e.RequestURL,
		CreatedAt:  e.CreatedAt,
	}
	if e.UserID.Valid {
		id := e.UserID.Int64
		resp.UserID = &id
	}
	if json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, perPage := parsePage(r)

	users, err := h.queries.ListUsers(ctx, store.ListUsersParams{
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list users", err)
		return
	}
	total, err := h.queries.CountUsers(ctx)
	if err != nil {
		WriteInternalError(w, r, "failed to count users", err)
		return
	}

	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = model.UserFromStore(u)
	}
	WriteSuccess(w, UserPage{Users: out, Meta: newMeta(total, page, perPage)})
}

// UpdateUserRole handles PATCH /admin/users/{id}/role.
// Demoting the last active admin is refused.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req UpdateRoleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var updated store.User
	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		if req.Role != model.RoleAdmin {
			if err := ensureOtherAdmin(ctx, q, id); err != nil {
				return err
			}
		}
		var err error
		updated, err = q.UpdateUserRole(ctx, id, req.Role, h.now())
		return err
	})
	if !h.writeUserUpdateError(w, r, err) {
		return
	}

	_ = h.events.LogUserEvent(ctx, model.EventLevelInfo, "User role changed", middleware.GetUserIDPtr(r),
		middleware.ClientIP(r), map[string]any{"target_user_id": id, "role": req.Role})

	WriteSuccess(w, model.UserFromStore(updated))
}

// UpdateUserStatus handles PATCH /admin/users/{id}/status.
// A blocked user's tokens stop working on their next request.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !*req.Active && id == middleware.GetUserID(r) {
		WriteBadRequest(w, "You cannot block your own account")
		return
	}

	var updated store.User
	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		if !*req.Active {
			if err := ensureOtherAdmin(ctx, q, id); err != nil {
				return err
			}
		}
		var err error
		updated, err = q.UpdateUserActive(ctx, id, *req.Active, h.now())
		return err
	})
	if !h.writeUserUpdateError(w, r, err) {
		return
	}

	msg := "User unblocked"
	if !*req.Active {
		msg = "User blocked"
	}
	_ = h.events.LogUserEvent(ctx, model.EventLevelInfo, msg, middleware.GetUserIDPtr(r),
		middleware.ClientIP(r), map[string]any{"target_user_id": id})

	WriteSuccess(w, model.UserFromStore(updated))
}

// ensureOtherAdmin fails with errLastAdmin when id is the only active admin.
func ensureOtherAdmin(ctx context.Context, q *store.Queries, id int64) error {
	u, err := q.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role != model.RoleAdmin || !u.IsActive {
		return nil
	}
	n, err := q.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return errLastAdmin
	}
	return nil
}

// writeUserUpdateError writes the response for a failed user update and
// reports whether the update succeeded.
func (h *Handler) writeUserUpdateError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, errLastAdmin):
		WriteBadRequest(w, "At least one active admin is required")
	case errors.Is(err, sql.ErrNoRows):
		WriteNotFound(w, "User not found", string(access.ReasonUserNotFound))
	default:
		WriteInternalError(w, r, "failed to update user", err)
	}
	return false
}

// ListEvents handles GET /admin/events.
// ?level and ?category filter the log.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, perPage := parsePage(r)
	level := r.URL.Query().Get("level")
	category := r.URL.Query().Get("category")

	events, err := h.queries.ListEvents(ctx, store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list events", err)
		return
	}
	total, err := h.queries.CountEvents(ctx, level, category)
	if err != nil {
		WriteInternalError(w, r, "failed to count events", err)
		return
	}

	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = eventToResponse(e)
	}
	WriteSuccess(w, EventPage{Events: out, Meta: newMeta(total, page, perPage)})
}
