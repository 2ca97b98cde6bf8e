// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/service"
	"github.com/Umar7799/course-project/internal/store"
)

// TemplateResponse represents a template in API responses.
type TemplateResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Topic        string    `json:"topic"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	IsPublic     bool      `json:"isPublic"`
	AuthorID     int64     `json:"authorId"`
	AuthorName   string    `json:"authorName,omitempty"`
	Tags         []string  `json:"tags"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	FormCount    int64     `json:"formCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TemplatePage is one page of the public template listing.
type TemplatePage struct {
	Templates []TemplateResponse `json:"templates"`
	Meta      Meta               `json:"meta"`
}

// TemplateFullResponse is a template with everything needed to fill it in.
type TemplateFullResponse struct {
	TemplateResponse
	DescriptionHTML string             `json:"descriptionHtml"`
	Questions       []QuestionResponse `json:"questions"`
	LikedByMe       bool               `json:"likedByMe"`
	CanManage       bool               `json:"canManage"`
}

// TagResponse is a tag with its usage count.
type TagResponse struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// VisibilityResponse is returned by the visibility routes.
type VisibilityResponse struct {
	ID       int64 `json:"id"`
	IsPublic bool  `json:"isPublic"`
}

// AllowedUserResponse is a member of a template's allow-list.
type AllowedUserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SharingResponse reports the result of an allow or disallow call.
type SharingResponse struct {
	TemplateID int64                 `json:"templateId"`
	Email      string                `json:"email"`
	Changed    bool                  `json:"changed"`
	Users      []AllowedUserResponse `json:"users"`
}

// CreateTemplateRequest represents the request body for creating a template.
type CreateTemplateRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Topic       string   `json:"topic" validate:"required,max=100"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url,max=2048"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
	IsPublic    *bool    `json:"isPublic"`
}

// UpdateTemplateRequest represents the request body for updating a template.
// Tags are left unchanged when omitted.
type UpdateTemplateRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=10000"`
	Topic       string    `json:"topic" validate:"required,max=100"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url,max=2048"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// SetVisibilityRequest represents the request body of PUT /templates/{id}/visibility.
type SetVisibilityRequest struct {
	IsPublic *bool `json:"isPublic" validate:"required"`
}

// SharingRequest names the user to add to or remove from an allow-list.
type SharingRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func templateToResponse(t store.TemplateSummary, tags []string) TemplateResponse {
	if tags == nil {
		tags = []string{}
	}
	return TemplateResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Topic:        t.Topic,
		ImageURL:     t.ImageURL,
		IsPublic:     t.IsPublic,
		AuthorID:     t.AuthorID,
		AuthorName:   t.AuthorName,
		Tags:         tags,
		LikeCount:    t.LikeCount,
		CommentCount: t.CommentCount,
		FormCount:    t.FormCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// withTags converts summaries and loads their tags in one query.
func (h *Handler) withTags(ctx context.Context, items []store.TemplateSummary) ([]TemplateResponse, error) {
	ids := make([]int64, len(items))
	for i, t := range items {
		ids[i] = t.ID
	}
	tags, err := h.queries.ListTagsForTemplates(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]TemplateResponse, len(items))
	for i, t := range items {
		out[i] = templateToResponse(t, tags[t.ID])
	}
	return out, nil
}

// normalizeTags lowercases and trims tags, dropping empties and duplicates.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// invalidateListings drops cached public listings after a template change.
func (h *Handler) invalidateListings(ctx context.Context) {
	if err := cache.InvalidateListings(ctx, h.cache); err != nil {
		slog.WarnContext(ctx, "failed to invalidate template listings",
			"category", model.EventCategoryCache,
			"error", err,
		)
	}
}

// ListTemplates handles GET /templates.
// Public: returns public templates filtered by q, topic and tag.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	page, perPage := parsePage(r)
	filter := store.TemplateFilter{
		Query:  strings.TrimSpace(query.Get("q")),
		Topic:  strings.TrimSpace(query.Get("topic")),
		Tag:    strings.ToLower(strings.TrimSpace(query.Get("tag"))),
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	}

	key := cache.TemplateListKey(filter.Query, filter.Topic, filter.Tag, filter.Limit, filter.Offset)
	result, err := h.pages.GetOrSet(ctx, key, func() (TemplatePage, error) {
		items, err := h.queries.ListPublicTemplates(ctx, filter)
		if err != nil {
			return TemplatePage{}, err
		}
		total, err := h.queries.CountPublicTemplates(ctx, filter)
		if err != nil {
			return TemplatePage{}, err
		}
		templates, err := h.withTags(ctx, items)
		if err != nil {
			return TemplatePage{}, err
		}
		return TemplatePage{Templates: templates, Meta: newMeta(total, page, perPage)}, nil
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list templates", err)
		return
	}

	WriteSuccess(w, result)
}

// LatestTemplates handles GET /templates/latest.
func (h *Handler) LatestTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r, 6, 50)

	result, err := h.lists.GetOrSet(ctx, cache.LatestTemplatesKey(limit), func() ([]TemplateResponse, error) {
		items, err := h.queries.ListPublicTemplates(ctx, store.TemplateFilter{Limit: limit})
		if err != nil {
			return nil, err
		}
		return h.withTags(ctx, items)
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list latest templates", err)
		return
	}

	WriteSuccess(w, result)
}

// PopularTemplates handles GET /templates/popular.
func (h *Handler) PopularTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r, 5, 50)

	result, err := h.lists.GetOrSet(ctx, cache.PopularTemplatesKey(limit), func() ([]TemplateResponse, error) {
		items, err := h.queries.ListPopularTemplates(ctx, limit)
		if err != nil {
			return nil, err
		}
		return h.withTags(ctx, items)
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list popular templates", err)
		return
	}

	WriteSuccess(w, result)
}

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r, 30, 100)

	result, err := h.tags.GetOrSet(ctx, cache.TagsKey(limit), func() ([]TagResponse, error) {
		tags, err := h.queries.ListTags(ctx, limit)
		if err != nil {
			return nil, err
		}
		out := make([]TagResponse, len(tags))
		for i, t := range tags {
			out[i] = TagResponse{Tag: t.Tag, Count: t.Count}
		}
		return out, nil
	})
	if err != nil {
		WriteInternalError(w, r, "failed to list tags", err)
		return
	}

	WriteSuccess(w, result)
}

// CreateTemplate handles POST /templates.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	var req CreateTemplateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	var id int64
	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		t, err := q.CreateTemplate(ctx, store.CreateTemplateParams{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Topic:       strings.TrimSpace(req.Topic),
			ImageURL:    req.ImageURL,
			IsPublic:    isPublic,
			AuthorID:    userID,
			CreatedAt:   h.now(),
		})
		if err != nil {
			return err
		}
		id = t.ID
		return q.SetTemplateTags(ctx, t.ID, normalizeTags(req.Tags))
	})
	if err != nil {
		WriteInternalError(w, r, "failed to create template", err)
		return
	}

	resp, err := h.loadTemplate(ctx, id)
	if err != nil {
		WriteInternalError(w, r, "failed to load template", err)
		return
	}

	h.invalidateListings(ctx)
	_ = h.events.LogTemplateEvent(ctx, model.EventLevelInfo, "Template created", &userID,
		middleware.ClientIP(r), map[string]any{"template_id": id, "is_public": isPublic})

	WriteCreated(w, resp)
}

func (h *Handler) loadTemplate(ctx context.Context, id int64) (TemplateResponse, error) {
	t, err := h.queries.GetTemplateSummary(ctx, id)
	if err != nil {
		return TemplateResponse{}, err
	}
	tags, err := h.queries.ListTagsForTemplates(ctx, []int64{id})
	if err != nil {
		return TemplateResponse{}, err
	}
	return templateToResponse(t, tags[id]), nil
}

// MyTemplates handles GET /templates/mine.
// ?public=true|false narrows the result to one visibility.
func (h *Handler) MyTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	var isPublic *bool
	if v := r.URL.Query().Get("public"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteBadRequest(w, "public must be true or false")
			return
		}
		isPublic = &b
	}

	items, err := h.queries.ListTemplatesByAuthor(ctx, userID, isPublic)
	if err != nil {
		WriteInternalError(w, r, "failed to list templates", err)
		return
	}

	// The query already filters on visibility. The filter is applied again
	// here and any row it drops is logged.
	if isPublic != nil {
		kept := items[:0]
		for _, t := range items {
			if t.IsPublic == *isPublic {
				kept = append(kept, t)
				continue
			}
			slog.WarnContext(ctx, "visibility filter of my templates diverged from the store",
				"category", model.EventCategoryTemplate,
				"template_id", t.ID,
				"user_id", userID,
			)
		}
		items = kept
	}

	templates, err := h.withTags(ctx, items)
	if err != nil {
		WriteInternalError(w, r, "failed to load tags", err)
		return
	}
	WriteSuccess(w, templates)
}

// SharedTemplates handles GET /templates/shared.
func (h *Handler) SharedTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.queries.ListTemplatesSharedWith(ctx, middleware.GetUserID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to list shared templates", err)
		return
	}
	templates, err := h.withTags(ctx, items)
	if err != nil {
		WriteInternalError(w, r, "failed to load tags", err)
		return
	}
	WriteSuccess(w, templates)
}

// GetTemplateFull handles GET /templates/{id}/full.
func (h *Handler) GetTemplateFull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)
	p, _ := middleware.GetPrincipal(r)

	t, err := h.loadTemplate(ctx, id)
	if err != nil {
		WriteMissing(w, r, access.KindTemplate, err)
		return
	}

	questions, err := h.queries.ListQuestionsByTemplate(ctx, id)
	if err != nil {
		WriteInternalError(w, r, "failed to list questions", err)
		return
	}
	liked, err := h.queries.HasLiked(ctx, id, p.ID)
	if err != nil {
		WriteInternalError(w, r, "failed to load like", err)
		return
	}
	html, err := service.RenderMarkdown(t.Description)
	if err != nil {
		WriteInternalError(w, r, "failed to render description", err)
		return
	}

	resp := TemplateFullResponse{
		TemplateResponse: t,
		DescriptionHTML:  html,
		Questions:        make([]QuestionResponse, len(questions)),
		LikedByMe:        liked,
		CanManage:        p.ID == t.AuthorID || p.HasRole(h.policy.ManagerRoles()...),
	}
	for i, q := range questions {
		resp.Questions[i] = questionToResponse(q)
	}

	WriteSuccess(w, resp)
}

// UpdateTemplate handles PUT /templates/{id}.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req UpdateTemplateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		if _, err := q.UpdateTemplate(ctx, store.UpdateTemplateParams{
			ID:          id,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Topic:       strings.TrimSpace(req.Topic),
			ImageURL:    req.ImageURL,
			UpdatedAt:   h.now(),
		}); err != nil {
			return err
		}
		if req.Tags != nil {
			return q.SetTemplateTags(ctx, id, normalizeTags(*req.Tags))
		}
		return nil
	})
	if err != nil {
		WriteMissing(w, r, access.KindTemplate, err)
		return
	}

	resp, err := h.loadTemplate(ctx, id)
	if err != nil {
		WriteMissing(w, r, access.KindTemplate, err)
		return
	}

	h.invalidateListings(ctx)
	WriteSuccess(w, resp)
}

// DeleteTemplate handles DELETE /templates/{id}.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	n, err := h.queries.DeleteTemplate(ctx, id)
	if err != nil {
		WriteInternalError(w, r, "failed to delete template", err)
		return
	}
	if n == 0 {
		WriteMissing(w, r, access.KindTemplate, sql.ErrNoRows)
		return
	}

	h.invalidateListings(ctx)
	_ = h.events.LogTemplateEvent(ctx, model.EventLevelInfo, "Template deleted", middleware.GetUserIDPtr(r),
		middleware.ClientIP(r), map[string]any{"template_id": id})

	w.WriteHeader(http.StatusNoContent)
}

// ToggleVisibility handles PATCH /templates/{id}/visibility.
// The flip happens in one statement, so concurrent toggles never lose a write.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	isPublic, err := h.queries.ToggleTemplateVisibility(ctx, id, h.now())
	if err != nil {
		WriteMissing(w, r, access.KindTemplate, err)
		return
	}

	h.afterVisibilityChange(r, id, isPublic)
	WriteSuccess(w, VisibilityResponse{ID: id, IsPublic: isPublic})
}

// SetVisibility handles PUT /templates/{id}/visibility.
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req SetVisibilityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	isPublic, err := h.queries.SetTemplateVisibility(ctx, id, *req.IsPublic, h.now())
	if err != nil {
		WriteMissing(w, r, access.KindTemplate, err)
		return
	}

	h.afterVisibilityChange(r, id, isPublic)
	WriteSuccess(w, VisibilityResponse{ID: id, IsPublic: isPublic})
}

func (h *Handler) afterVisibilityChange(r *http.Request, id int64, isPublic bool) {
	ctx := r.Context()
	h.invalidateListings(ctx)
	_ = h.events.LogTemplateEvent(ctx, model.EventLevelInfo, "Template visibility changed", middleware.GetUserIDPtr(r),
		middleware.ClientIP(r), map[string]any{"template_id": id, "is_public": isPublic})
}

// ListAllowedUsers handles GET /templates/{id}/allowed-users.
func (h *Handler) ListAllowedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.allowedUsers(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to list allowed users", err)
		return
	}
	WriteSuccess(w, users)
}

func (h *Handler) allowedUsers(ctx context.Context, templateID int64) ([]AllowedUserResponse, error) {
	users, err := h.queries.ListAllowedUsers(ctx, templateID)
	if err != nil {
		return nil, err
	}
	out := make([]AllowedUserResponse, len(users))
	for i, u := range users {
		out[i] = AllowedUserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
	}
	return out, nil
}

// AllowUser handles POST /templates/{id}/allow.
// Adding a user already on the list succeeds without changing it.
func (h *Handler) AllowUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req SharingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	user, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found", string(access.ReasonUserNotFound))
			return
		}
		WriteInternalError(w, r, "failed to load user", err)
		return
	}

	added, err := h.queries.AddAllowedUser(ctx, id, user.ID, h.now())
	if err != nil {
		WriteInternalError(w, r, "failed to add allowed user", err)
		return
	}
	if added {
		_ = h.events.LogTemplateEvent(ctx, model.EventLevelInfo, "User added to template allow-list",
			middleware.GetUserIDPtr(r), middleware.ClientIP(r),
			map[string]any{"template_id": id, "allowed_user_id": user.ID})
	}

	h.writeSharing(w, r, id, email, added)
}

// DisallowUser handles POST /templates/{id}/disallow.
// Removing a user that is not on the list, or does not exist, succeeds without
// changing it.
func (h *Handler) DisallowUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req SharingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	removed := false
	user, err := h.queries.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Unknown email: nothing to remove.
	case err != nil:
		WriteInternalError(w, r, "failed to load user", err)
		return
	default:
		removed, err = h.queries.RemoveAllowedUser(ctx, id, user.ID)
		if err != nil {
			WriteInternalError(w, r, "failed to remove allowed user", err)
			return
		}
	}
	if removed {
		_ = h.events.LogTemplateEvent(ctx, model.EventLevelInfo, "User removed from template allow-list",
			middleware.GetUserIDPtr(r), middleware.ClientIP(r),
			map[string]any{"template_id": id, "allowed_user_id": user.ID})
	}

	h.writeSharing(w, r, id, email, removed)
}

func (h *Handler) writeSharing(w http.ResponseWriter, r *http.Request, templateID int64, email string, changed bool) {
	users, err := h.allowedUsers(r.Context(), templateID)
	if err != nil {
		WriteInternalError(w, r, "failed to list allowed users", err)
		return
	}
	WriteSuccess(w, SharingResponse{TemplateID: templateID, Email: email, Changed: changed, Users: users})
}

// ListTemplateForms handles GET /templates/{id}/forms.
func (h *Handler) ListTemplateForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.queries.ListFormsByTemplate(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to list forms", err)
		return
	}
	WriteSuccess(w, formsToResponse(forms))
}
