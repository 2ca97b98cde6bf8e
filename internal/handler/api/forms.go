// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
)

const msgFormRequired = "Template ID and answers are required"

// FormResponse represents a submitted form in API responses.
type FormResponse struct {
	ID            int64            `json:"id"`
	TemplateID    int64            `json:"templateId"`
	TemplateTitle string           `json:"templateTitle,omitempty"`
	UserID        int64            `json:"userId"`
	UserName      string           `json:"userName,omitempty"`
	UserEmail     string           `json:"userEmail,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Answers       []AnswerResponse `json:"answers,omitempty"`
}

// AnswerResponse represents an answer in API responses.
type AnswerResponse struct {
	ID         int64     `json:"id"`
	FormID     int64     `json:"formId"`
	QuestionID int64     `json:"questionId"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SubmitFormRequest represents the request body for submitting a form.
type SubmitFormRequest struct {
	TemplateID int64         `json:"templateId"`
	Answers    []AnswerInput `json:"answers"`
}

// AnswerInput is one answer of a submission.
type AnswerInput struct {
	QuestionID int64  `json:"questionId"`
	Value      string `json:"value"`
}

// UpdateAnswerRequest represents the request body for editing an answer.
type UpdateAnswerRequest struct {
	Value *string `json:"value" validate:"required"`
}

func formToResponse(f store.FormSummary) FormResponse {
	return FormResponse{
		ID:            f.ID,
		TemplateID:    f.TemplateID,
		TemplateTitle: f.TemplateTitle,
		UserID:        f.UserID,
		UserName:      f.UserName,
		UserEmail:     f.UserEmail,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func formsToResponse(forms []store.FormSummary) []FormResponse {
	out := make([]FormResponse, len(forms))
	for i, f := range forms {
		out[i] = formToResponse(f)
	}
	return out
}

func answerToResponse(a store.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		FormID:     a.FormID,
		QuestionID: a.QuestionID,
		Value:      a.Value,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func answersToResponse(answers []store.Answer) []AnswerResponse {
	out := make([]AnswerResponse, len(answers))
	for i, a := range answers {
		out[i] = answerToResponse(a)
	}
	return out
}

// SubmitForm handles POST /forms.
// The template comes from the body, so read access is checked here rather
// than by the route.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := middleware.GetPrincipal(r)

	var req SubmitFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TemplateID <= 0 || len(req.Answers) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, msgFormRequired, "validation_error")
		return
	}

	if err := h.guard.Check(ctx, p, access.KindTemplate, access.OpRead, req.TemplateID, h.policy.ManagerRoles()...); err != nil {
		middleware.WriteAccessError(w, r, p, err)
		return
	}

	questions, err := h.queries.ListQuestionsByTemplate(ctx, req.TemplateID)
	if err != nil {
		WriteInternalError(w, r, "failed to list questions", err)
		return
	}
	types := make(map[int64]string, len(questions))
	for _, q := range questions {
		types[q.ID] = q.Type
	}

	values := make([]string, len(req.Answers))
	fields := make(map[string]string)
	seen := make(map[int64]bool, len(req.Answers))
	for i, a := range req.Answers {
		key := fmt.Sprintf("answers[%d]", i)
		qtype, ok := types[a.QuestionID]
		switch {
		case !ok:
			fields[key] = "is not a question of this template"
		case seen[a.QuestionID]:
			fields[key] = "answers the same question twice"
		default:
			v, err := model.NormalizeAnswer(qtype, a.Value)
			if err != nil {
				fields[key] = err.Error()
			}
			values[i] = v
		}
		seen[a.QuestionID] = true
	}
	if len(fields) > 0 {
		middleware.WriteFieldErrors(w, "Invalid answers", fields)
		return
	}

	var formID int64
	err = store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		now := h.now()
		f, err := q.CreateForm(ctx, req.TemplateID, p.ID, now)
		if err != nil {
			return err
		}
		formID = f.ID
		for i, a := range req.Answers {
			if _, err := q.CreateAnswer(ctx, store.CreateAnswerParams{
				FormID:     f.ID,
				QuestionID: a.QuestionID,
				Value:      values[i],
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		WriteInternalError(w, r, "failed to submit form", err)
		return
	}

	// Form counts order the popular listing.
	h.invalidateListings(ctx)

	resp, ok := h.loadForm(w, r, formID)
	if !ok {
		return
	}
	WriteCreated(w, resp)
}

func (h *Handler) loadForm(w http.ResponseWriter, r *http.Request, id int64) (FormResponse, bool) {
	ctx := r.Context()

	f, err := h.queries.GetFormSummary(ctx, id)
	if err != nil {
		WriteMissing(w, r, access.KindForm, err)
		return FormResponse{}, false
	}
	answers, err := h.queries.ListAnswersByForm(ctx, id)
	if err != nil {
		WriteInternalError(w, r, "failed to list answers", err)
		return FormResponse{}, false
	}

	resp := formToResponse(f)
	resp.Answers = answersToResponse(answers)
	return resp, true
}

// MyForms handles GET /forms/mine.
func (h *Handler) MyForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.queries.ListFormsByUser(r.Context(), middleware.GetUserID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to list forms", err)
		return
	}
	WriteSuccess(w, formsToResponse(forms))
}

// GetForm handles GET /forms/{id}.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.loadForm(w, r, routeID(r))
	if !ok {
		return
	}
	WriteSuccess(w, resp)
}

// DeleteForm handles DELETE /forms/{id}.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	n, err := h.queries.DeleteForm(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to delete form", err)
		return
	}
	if n == 0 {
		WriteMissing(w, r, access.KindForm, sql.ErrNoRows)
		return
	}
	h.invalidateListings(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateAnswer handles PUT /answers/{id}.
func (h *Handler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := routeID(r)

	var req UpdateAnswerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var updated store.Answer
	var invalid error
	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		a, err := q.GetAnswer(ctx, id)
		if err != nil {
			return err
		}
		question, err := q.GetQuestion(ctx, a.QuestionID)
		if err != nil {
			return err
		}
		value, err := model.NormalizeAnswer(question.Type, *req.Value)
		if err != nil {
			invalid = err
			return nil
		}

		now := h.now()
		if updated, err = q.UpdateAnswer(ctx, id, value, now); err != nil {
			return err
		}
		return q.TouchForm(ctx, a.FormID, now)
	})
	if err != nil {
		WriteMissing(w, r, access.KindAnswer, err)
		return
	}
	if invalid != nil {
		middleware.WriteFieldErrors(w, "Invalid answer", map[string]string{"value": invalid.Error()})
		return
	}

	WriteSuccess(w, answerToResponse(updated))
}

// DeleteAnswer handles DELETE /answers/{id}.
func (h *Handler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	n, err := h.queries.DeleteAnswer(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to delete answer", err)
		return
	}
	if n == 0 {
		WriteMissing(w, r, access.KindAnswer, sql.ErrNoRows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
