// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API of the forms service.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/auth"
	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/crm"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/service"
	"github.com/Umar7799/course-project/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config holds the dependencies of the API handlers.
type Config struct {
	DB     *sql.DB
	Guard  *access.Guard
	Tokens *auth.Tokens
	Policy access.Policy
	// Cache backs the public listings and OAuth state.
	Cache    cache.Cacher
	CacheTTL time.Duration
	Events   *service.EventService
	// CRM is nil when Salesforce is not configured.
	CRM         *crm.Client
	FrontendURL string
	// Jobs exposes the scheduler to admins; optional.
	Jobs JobRunner
	// LoginProtection guards register and login. Defaults are used when nil.
	LoginProtection *middleware.LoginProtection
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db          *sql.DB
	queries     *store.Queries
	guard       *access.Guard
	tokens      *auth.Tokens
	policy      access.Policy
	cache       cache.Cacher
	pages       *cache.TypedCache[TemplatePage]
	lists       *cache.TypedCache[[]TemplateResponse]
	tags        *cache.TypedCache[[]TagResponse]
	states      *cache.OAuthStates
	events      *service.EventService
	crm         *crm.Client
	jobs        JobRunner
	login       *middleware.LoginProtection
	validate    *validator.Validate
	frontendURL string
	now         func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	login := cfg.LoginProtection
	if login == nil {
		login = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	events := cfg.Events
	if events == nil {
		events = service.NewEventService(cfg.DB)
	}

	return &Handler{
		db:          cfg.DB,
		queries:     store.New(cfg.DB),
		guard:       cfg.Guard,
		tokens:      cfg.Tokens,
		policy:      cfg.Policy,
		cache:       cfg.Cache,
		pages:       cache.NewTypedCache[TemplatePage](cfg.Cache, cfg.CacheTTL),
		lists:       cache.NewTypedCache[[]TemplateResponse](cfg.Cache, cfg.CacheTTL),
		tags:        cache.NewTypedCache[[]TagResponse](cfg.Cache, cfg.CacheTTL),
		states:      cache.NewOAuthStates(cfg.Cache, cache.DefaultStateTTL),
		events:      events,
		crm:         cfg.CRM,
		jobs:        cfg.Jobs,
		login:       login,
		validate:    newValidator(),
		frontendURL: cfg.FrontendURL,
		now:         time.Now,
	}
}

// Close releases background resources.
func (h *Handler) Close() {
	h.login.Stop()
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteBadRequest writes a 400 response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteError(w, http.StatusBadRequest, message, "bad_request")
}

// WriteNotFound writes a 404 response.
func WriteNotFound(w http.ResponseWriter, message, reason string) {
	middleware.WriteError(w, http.StatusNotFound, message, reason)
}

// WriteConflict writes a 409 response.
func WriteConflict(w http.ResponseWriter, message string) {
	middleware.WriteError(w, http.StatusConflict, message, "conflict")
}

// WriteInternalError logs err and writes a generic 500 response.
func WriteInternalError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	slog.ErrorContext(r.Context(), logMsg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", middleware.GetUserID(r),
	)
	middleware.WriteError(w, http.StatusInternalServerError, "Internal server error", string(access.ReasonInternal))
}

// WriteMissing answers a lookup that came back empty: sql.ErrNoRows becomes a
// 404 for kind, anything else a 500.
func WriteMissing(w http.ResponseWriter, r *http.Request, kind access.Kind, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		ae := access.NotFoundError(kind)
		WriteNotFound(w, ae.Message, string(ae.Reason))
		return
	}
	WriteInternalError(w, r, "failed to load "+kind.String(), err)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure the response has been written and false is returned.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.WriteFieldErrors(w, "Validation failed", fieldErrors(verrs))
			return false
		}
		WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			WriteBadRequest(w, "Request body is required")
		} else {
			WriteBadRequest(w, "Invalid JSON body")
		}
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "email":
			fields[name] = "must be a valid email address"
		case "min":
			fields[name] = "must be at least " + fe.Param() + " characters"
		case "max":
			fields[name] = "must be at most " + fe.Param() + " characters"
		case "oneof":
			fields[name] = "must be one of: " + fe.Param()
		case "url":
			fields[name] = "must be a valid URL"
		default:
			fields[name] = "is invalid"
		}
	}
	return fields
}

// routeID returns the numeric route parameter checked by the access pipeline.
func routeID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(urlParam(r, access.DefaultParam), 10, 64)
	return id
}

// Pagination parameters.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Meta describes a page of results.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Pages   int   `json:"pages"`
}

func newMeta(total int64, page, perPage int) Meta {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	return Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// parsePage reads ?page and ?per_page with defaults and bounds.
func parsePage(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// parseLimit reads ?limit for the short listings.
func parseLimit(r *http.Request, def, maxLimit int64) int64 {
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit < 1 {
		return def
	}
	return min(limit, maxLimit)
}
