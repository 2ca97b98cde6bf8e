// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/service"
	"github.com/Umar7799/course-project/internal/store"
)

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID         int64     `json:"id"`
	TemplateID int64     `json:"templateId"`
	UserID     int64     `json:"userId"`
	UserName   string    `json:"userName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateCommentRequest represents the request body for posting a comment.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// LikeResponse reports the like state of a template for the caller.
type LikeResponse struct {
	TemplateID int64 `json:"templateId"`
	Liked      bool  `json:"liked"`
	LikeCount  int64 `json:"likeCount"`
}

func commentToResponse(c store.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TemplateID: c.TemplateID,
		UserID:     c.UserID,
		UserName:   c.UserName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

// ListComments handles GET /templates/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.queries.ListCommentsByTemplate(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to list comments", err)
		return
	}

	out := make([]CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = commentToResponse(c)
	}
	WriteSuccess(w, out)
}

// CreateComment handles POST /templates/{id}/comments.
// Markup is stripped; comments are stored as plain text.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	content := service.PlainText(req.Content)
	if content == "" {
		middleware.WriteFieldErrors(w, "Validation failed", map[string]string{"content": "is required"})
		return
	}

	c, err := h.queries.CreateComment(r.Context(), routeID(r), middleware.GetUserID(r), content, h.now())
	if err != nil {
		WriteInternalError(w, r, "failed to create comment", err)
		return
	}

	WriteCreated(w, commentToResponse(c))
}

// DeleteComment handles DELETE /comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	n, err := h.queries.DeleteComment(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to delete comment", err)
		return
	}
	if n == 0 {
		WriteMissing(w, r, access.KindComment, sql.ErrNoRows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LikeTemplate handles POST /templates/{id}/likes.
// The unique index decides concurrent likes: exactly one succeeds, the rest get 409.
func (h *Handler) LikeTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	if err := h.queries.CreateLike(ctx, id, middleware.GetUserID(r), h.now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			WriteConflict(w, "You already liked this template")
			return
		}
		WriteInternalError(w, r, "failed to like template", err)
		return
	}

	h.invalidateListings(ctx)
	h.writeLikes(w, r, http.StatusCreated, id, true)
}

// UnlikeTemplate handles DELETE /templates/{id}/likes.
// Removing a like that does not exist succeeds.
func (h *Handler) UnlikeTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	n, err := h.queries.DeleteLike(ctx, id, middleware.GetUserID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to unlike template", err)
		return
	}
	if n > 0 {
		h.invalidateListings(ctx)
	}
	h.writeLikes(w, r, http.StatusOK, id, false)
}

func (h *Handler) writeLikes(w http.ResponseWriter, r *http.Request, status int, templateID int64, liked bool) {
	count, err := h.queries.CountLikes(r.Context(), templateID)
	if err != nil {
		WriteInternalError(w, r, "failed to count likes", err)
		return
	}
	WriteJSON(w, status, LikeResponse{TemplateID: templateID, Liked: liked, LikeCount: count})
}
