// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/auth"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteInternalError(w, r, "failed to hash password", err)
		return
	}

	now := h.now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			WriteConflict(w, "Email is already registered")
			return
		}
		WriteInternalError(w, r, "failed to create user", err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)

	_ = h.events.LogAuthEvent(ctx, model.EventLevelInfo, "User registered", &user.ID,
		middleware.ClientIP(r), clientMetadata(r))
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := middleware.ClientIP(r)

	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	if locked, remaining := h.login.IsAccountLocked(email); locked {
		middleware.WriteError(w, http.StatusTooManyRequests,
			fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Minute)),
			"account_locked")
		return
	}

	user, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			WriteInternalError(w, r, "failed to load user", err)
			return
		}
		auth.CheckPasswordForUnknownUser(req.Password)
		h.loginFailed(w, r, email, nil)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		WriteInternalError(w, r, "failed to verify password", err)
		return
	}
	if !ok {
		h.loginFailed(w, r, email, &user.ID)
		return
	}

	if !user.IsActive {
		slog.WarnContext(ctx, "blocked user tried to log in",
			"category", model.EventCategoryAuth,
			"user_id", user.ID,
			"ip", ip,
		)
		middleware.WriteError(w, http.StatusForbidden, "Account is blocked", string(access.ReasonUserInactive))
		return
	}

	h.login.RecordSuccessfulLogin(email)
	now := h.now()
	if err := h.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to update last login", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	}

	h.respondWithToken(w, r, http.StatusOK, user)

	_ = h.events.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", &user.ID, ip, clientMetadata(r))
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email string, userID *int64) {
	locked, _ := h.login.RecordFailedAttempt(email)

	meta := clientMetadata(r)
	meta["email"] = email
	meta["locked"] = locked
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed login attempt", userID,
		middleware.ClientIP(r), meta)

	middleware.WriteError(w, http.StatusUnauthorized, "Invalid email or password", "invalid_credentials")
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user store.User) {
	token, expiresAt, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		WriteInternalError(w, r, "failed to issue token", err)
		return
	}
	WriteJSON(w, status, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      model.UserFromStore(user),
	})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.queries.GetUserByID(r.Context(), middleware.GetUserID(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found", string(access.ReasonUserNotFound))
			return
		}
		WriteInternalError(w, r, "failed to load user", err)
		return
	}
	WriteSuccess(w, model.UserFromStore(user))
}

// clientMetadata describes the caller's browser for the audit log.
func clientMetadata(r *http.Request) map[string]any {
	ua := useragent.Parse(r.UserAgent())

	device := "desktop"
	switch {
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Bot:
		device = "bot"
	}

	browser, osName := ua.Name, ua.OS
	if browser == "" {
		browser = "Unknown"
	}
	if osName == "" {
		osName = "Unknown"
	}
	return map[string]any{
		"browser": browser,
		"os":      osName,
		"device":  device,
	}
}

// normalizeEmail is the canonical form emails are stored and looked up in.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
