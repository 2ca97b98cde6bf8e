// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/crm"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
)

// ConnectResponse carries the Salesforce consent URL.
type ConnectResponse struct {
	URL string `json:"url"`
}

// SalesforceStatusResponse reports whether the integration is configured and
// whether the caller has connected an org.
type SalesforceStatusResponse struct {
	Enabled bool `json:"enabled"`
	crm.Status
}

// CreateAccountRequest represents the request body for creating a Salesforce account.
type CreateAccountRequest struct {
	Company string `json:"company" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"max=40"`
	Website string `json:"website" validate:"omitempty,url,max=255"`
}

func (h *Handler) requireCRM(w http.ResponseWriter) bool {
	if h.crm == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Salesforce integration is not configured", "crm_disabled")
		return false
	}
	return true
}

// SalesforceConnect handles GET /salesforce/connect.
func (h *Handler) SalesforceConnect(w http.ResponseWriter, r *http.Request) {
	if !h.requireCRM(w) {
		return
	}

	state, err := h.states.Put(r.Context(), middleware.GetUserID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to store oauth state", err)
		return
	}
	WriteSuccess(w, ConnectResponse{URL: h.crm.AuthCodeURL(state)})
}

// SalesforceCallback handles GET /salesforce/callback.
// The route is public; the state parameter identifies the user who started the flow.
func (h *Handler) SalesforceCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCRM(w) {
		return
	}
	query := r.URL.Query()

	userID, err := h.states.Take(ctx, query.Get("state"))
	if err != nil {
		if errors.Is(err, cache.ErrStateInvalid) {
			slog.WarnContext(ctx, "salesforce callback with invalid state",
				"category", model.EventCategoryCRM,
				"ip", middleware.ClientIP(r),
			)
			WriteBadRequest(w, "Invalid or expired state")
			return
		}
		WriteInternalError(w, r, "failed to load oauth state", err)
		return
	}

	if denied := query.Get("error"); denied != "" {
		_ = h.events.LogCRMEvent(ctx, model.EventLevelWarning, "Salesforce authorization declined", &userID,
			middleware.ClientIP(r), map[string]any{"error": denied})
		h.redirectToFrontend(w, r, "error")
		return
	}

	code := query.Get("code")
	if code == "" {
		WriteBadRequest(w, "Missing authorization code")
		return
	}

	if _, err := h.crm.Exchange(ctx, userID, code); err != nil {
		_ = h.events.LogCRMEvent(ctx, model.EventLevelError, "Salesforce token exchange failed", &userID,
			middleware.ClientIP(r), map[string]any{"error": err.Error()})
		h.redirectToFrontend(w, r, "error")
		return
	}

	_ = h.events.LogCRMEvent(ctx, model.EventLevelInfo, "Salesforce connected", &userID, middleware.ClientIP(r), nil)
	h.redirectToFrontend(w, r, "connected")
}

// redirectToFrontend sends the browser back to the SPA with ?salesforce=result.
// Without a frontend URL the result is written as JSON.
func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, result string) {
	if h.frontendURL == "" {
		WriteSuccess(w, map[string]string{"salesforce": result})
		return
	}

	u, err := url.Parse(h.frontendURL)
	if err != nil {
		WriteInternalError(w, r, "invalid frontend url", err)
		return
	}
	q := u.Query()
	q.Set("salesforce", result)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// SalesforceStatus handles GET /salesforce/status.
func (h *Handler) SalesforceStatus(w http.ResponseWriter, r *http.Request) {
	if h.crm == nil {
		WriteSuccess(w, SalesforceStatusResponse{})
		return
	}

	st, err := h.crm.Status(r.Context(), middleware.GetUserID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to load salesforce status", err)
		return
	}
	WriteSuccess(w, SalesforceStatusResponse{Enabled: true, Status: st})
}

// SalesforceCreateAccount handles POST /salesforce/accounts.
// The contact is the calling user.
func (h *Handler) SalesforceCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCRM(w) {
		return
	}
	p, _ := middleware.GetPrincipal(r)

	var req CreateAccountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	first, last := splitName(p.Name)
	res, err := h.crm.CreateAccount(ctx, p.ID, crm.AccountInput{
		Company:   strings.TrimSpace(req.Company),
		Phone:     strings.TrimSpace(req.Phone),
		Website:   strings.TrimSpace(req.Website),
		FirstName: first,
		LastName:  last,
		Email:     p.Email,
	})
	if err != nil {
		var apiErr *crm.APIError
		switch {
		case errors.Is(err, crm.ErrNotConnected):
			middleware.WriteError(w, http.StatusConflict, "Connect Salesforce first", "crm_not_connected")
		case errors.As(err, &apiErr):
			_ = h.events.LogCRMEvent(ctx, model.EventLevelError, "Salesforce rejected account", &p.ID,
				middleware.ClientIP(r), map[string]any{"status": apiErr.StatusCode, "account_id": res.AccountID})
			middleware.WriteError(w, http.StatusBadGateway, "Salesforce rejected the request", "crm_error")
		default:
			WriteInternalError(w, r, "failed to create salesforce account", err)
		}
		return
	}

	_ = h.events.LogCRMEvent(ctx, model.EventLevelInfo, "Salesforce account created", &p.ID,
		middleware.ClientIP(r), map[string]any{"account_id": res.AccountID, "contact_id": res.ContactID})

	WriteCreated(w, res)
}

// splitName splits a display name into Salesforce first and last names.
// LastName is mandatory on Contact, so a single word becomes the last name.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", fields[0]
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
