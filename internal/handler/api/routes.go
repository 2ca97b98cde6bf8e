// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
)

// Messages of the answer routes. Clients match on them.
const (
	msgEditAnswer   = "Unauthorized to edit this answer"
	msgDeleteAnswer = "Unauthorized to delete this answer"
)

// route is one API endpoint and what it demands of its caller.
type route struct {
	method  string
	pattern string
	require access.Requirement
	handler http.HandlerFunc
}

// routes is the API route table. Every route names its requirement here; the
// resource kind of owner-scoped routes is part of the requirement.
func (h *Handler) routes() []route {
	admin := h.policy.ManagerRoles()

	readTemplate := access.OwnerOrRole(access.KindTemplate, access.OpRead, admin...)
	manageTemplate := access.OwnerOrRole(access.KindTemplate, access.OpManage, admin...)
	shareTemplate := access.OwnerOrRole(access.KindTemplate, access.OpManage, h.policy.SharingRoles()...)
	manageQuestion := access.OwnerOrRole(access.KindQuestion, access.OpManage, admin...)
	readForm := access.OwnerOrRole(access.KindForm, access.OpRead, admin...)
	manageForm := access.OwnerOrRole(access.KindForm, access.OpManage, admin...)
	manageComment := access.OwnerOrRole(access.KindComment, access.OpManage, admin...)
	editAnswer := access.OwnerOrRole(access.KindAnswer, access.OpManage, h.policy.AnswerRoles()...).WithDenyMessage(msgEditAnswer)
	deleteAnswer := access.OwnerOrRole(access.KindAnswer, access.OpManage, h.policy.AnswerRoles()...).WithDenyMessage(msgDeleteAnswer)
	adminOnly := access.RoleIn(model.RoleAdmin)

	return []route{
		// Auth
		{http.MethodPost, "/auth/register", access.Public(), h.throttled(h.Register)},
		{http.MethodPost, "/auth/login", access.Public(), h.throttled(h.Login)},
		{http.MethodGet, "/auth/me", access.Authenticated(), h.Me},

		// Public listings
		{http.MethodGet, "/templates", access.Public(), h.ListTemplates},
		{http.MethodGet, "/templates/latest", access.Public(), h.LatestTemplates},
		{http.MethodGet, "/templates/popular", access.Public(), h.PopularTemplates},
		{http.MethodGet, "/tags", access.Public(), h.ListTags},

		// Templates
		{http.MethodPost, "/templates", access.Authenticated(), h.CreateTemplate},
		{http.MethodGet, "/templates/mine", access.Authenticated(), h.MyTemplates},
		{http.MethodGet, "/templates/shared", access.Authenticated(), h.SharedTemplates},
		{http.MethodGet, "/templates/{id}/full", readTemplate, h.GetTemplateFull},
		{http.MethodPut, "/templates/{id}", manageTemplate, h.UpdateTemplate},
		{http.MethodDelete, "/templates/{id}", manageTemplate, h.DeleteTemplate},
		{http.MethodPatch, "/templates/{id}/visibility", manageTemplate, h.ToggleVisibility},
		{http.MethodPut, "/templates/{id}/visibility", manageTemplate, h.SetVisibility},
		{http.MethodGet, "/templates/{id}/allowed-users", shareTemplate, h.ListAllowedUsers},
		{http.MethodPost, "/templates/{id}/allow", shareTemplate, h.AllowUser},
		{http.MethodPost, "/templates/{id}/disallow", shareTemplate, h.DisallowUser},
		{http.MethodGet, "/templates/{id}/forms", manageTemplate, h.ListTemplateForms},

		// Questions
		{http.MethodPost, "/templates/{id}/questions", manageTemplate, h.CreateQuestion},
		{http.MethodPut, "/templates/{id}/questions/order", manageTemplate, h.ReorderQuestions},
		{http.MethodPut, "/questions/{id}", manageQuestion, h.UpdateQuestion},
		{http.MethodDelete, "/questions/{id}", manageQuestion, h.DeleteQuestion},

		// Forms and answers
		{http.MethodPost, "/forms", access.Authenticated(), h.SubmitForm},
		{http.MethodGet, "/forms/mine", access.Authenticated(), h.MyForms},
		{http.MethodGet, "/forms/{id}", readForm, h.GetForm},
		{http.MethodDelete, "/forms/{id}", manageForm, h.DeleteForm},
		{http.MethodPut, "/answers/{id}", editAnswer, h.UpdateAnswer},
		{http.MethodDelete, "/answers/{id}", deleteAnswer, h.DeleteAnswer},

		// Comments and likes
		{http.MethodGet, "/templates/{id}/comments", readTemplate, h.ListComments},
		{http.MethodPost, "/templates/{id}/comments", readTemplate, h.CreateComment},
		{http.MethodDelete, "/comments/{id}", manageComment, h.DeleteComment},
		{http.MethodPost, "/templates/{id}/likes", readTemplate, h.LikeTemplate},
		{http.MethodDelete, "/templates/{id}/likes", access.Authenticated(), h.UnlikeTemplate},

		// Salesforce
		{http.MethodGet, "/salesforce/connect", access.Authenticated(), h.SalesforceConnect},
		{http.MethodGet, "/salesforce/callback", access.Public(), h.SalesforceCallback},
		{http.MethodGet, "/salesforce/status", access.Authenticated(), h.SalesforceStatus},
		{http.MethodPost, "/salesforce/accounts", access.Authenticated(), h.SalesforceCreateAccount},

		// Administration
		{http.MethodGet, "/admin/users", adminOnly, h.ListUsers},
		{http.MethodPatch, "/admin/users/{id}/role", adminOnly, h.UpdateUserRole},
		{http.MethodPatch, "/admin/users/{id}/status", adminOnly, h.UpdateUserStatus},
		{http.MethodGet, "/admin/events", adminOnly, h.ListEvents},
		{http.MethodGet, "/admin/jobs", adminOnly, h.ListJobs},
		{http.MethodPost, "/admin/jobs/{name}/run", adminOnly, h.RunJob},
		{http.MethodGet, "/admin/cache", adminOnly, h.CacheStats},
		{http.MethodPost, "/admin/cache/flush", adminOnly, h.FlushCache},
	}
}

// Mount registers the route table on r, each route behind the authorizer.
func (h *Handler) Mount(r chi.Router, authz *middleware.Authorizer) {
	for _, rt := range h.routes() {
		r.With(authz.Require(rt.require)).Method(rt.method, rt.pattern, rt.handler)
	}
}

// throttled applies the per-IP login rate limit to fn.
func (h *Handler) throttled(fn http.HandlerFunc) http.HandlerFunc {
	return h.login.Middleware()(fn).ServeHTTP
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
