// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/store"
)

// errQuestionSet is returned when a reorder request does not name every
// question of the template exactly once.
var errQuestionSet = errors.New("question ids do not match the template")

// QuestionResponse represents a question in API responses.
type QuestionResponse struct {
	ID          int64     `json:"id"`
	TemplateID  int64     `json:"templateId"`
	Text        string    `json:"text"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	ShowInTable bool      `json:"showInTable"`
	Position    int64     `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// QuestionRequest represents the request body for creating or updating a question.
type QuestionRequest struct {
	Text        string `json:"text" validate:"required,max=500"`
	Description string `json:"description" validate:"max=2000"`
	Type        string `json:"type" validate:"required,oneof=SINGLE_LINE MULTI_LINE INTEGER CHECKBOX"`
	ShowInTable *bool  `json:"showInTable"`
}

// ReorderQuestionsRequest lists every question of a template in its new order.
type ReorderQuestionsRequest struct {
	QuestionIDs []int64 `json:"questionIds" validate:"required,min=1,unique"`
}

func questionToResponse(q store.Question) QuestionResponse {
	return QuestionResponse{
		ID:          q.ID,
		TemplateID:  q.TemplateID,
		Text:        q.Text,
		Description: q.Description.String,
		Type:        q.Type,
		ShowInTable: q.ShowInTable,
		Position:    q.Position,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func (req QuestionRequest) showInTable() bool {
	return req.ShowInTable == nil || *req.ShowInTable
}

// CreateQuestion handles POST /templates/{id}/questions.
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	templateID := routeID(r)

	var req QuestionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.queries.CreateQuestion(ctx, store.CreateQuestionParams{
		TemplateID:  templateID,
		Text:        strings.TrimSpace(req.Text),
		Description: nullString(req.Description),
		Type:        req.Type,
		ShowInTable: req.showInTable(),
		CreatedAt:   h.now(),
	})
	if err != nil {
		WriteInternalError(w, r, "failed to create question", err)
		return
	}

	WriteCreated(w, questionToResponse(q))
}

// UpdateQuestion handles PUT /questions/{id}.
func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.queries.UpdateQuestion(r.Context(), store.UpdateQuestionParams{
		ID:          routeID(r),
		Text:        strings.TrimSpace(req.Text),
		Description: nullString(req.Description),
		Type:        req.Type,
		ShowInTable: req.showInTable(),
		UpdatedAt:   h.now(),
	})
	if err != nil {
		WriteMissing(w, r, access.KindQuestion, err)
		return
	}

	WriteSuccess(w, questionToResponse(q))
}

// DeleteQuestion handles DELETE /questions/{id}.
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	n, err := h.queries.DeleteQuestion(r.Context(), routeID(r))
	if err != nil {
		WriteInternalError(w, r, "failed to delete question", err)
		return
	}
	if n == 0 {
		WriteMissing(w, r, access.KindQuestion, sql.ErrNoRows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderQuestions handles PUT /templates/{id}/questions/order.
func (h *Handler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	templateID := routeID(r)

	var req ReorderQuestionsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var questions []store.Question
	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		current, err := q.ListQuestionsByTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		if len(current) != len(req.QuestionIDs) {
			return errQuestionSet
		}
		existing := make(map[int64]bool, len(current))
		for _, qn := range current {
			existing[qn.ID] = true
		}

		now := h.now()
		for pos, id := range req.QuestionIDs {
			if !existing[id] {
				return errQuestionSet
			}
			if err := q.SetQuestionPosition(ctx, templateID, id, pos, now); err != nil {
				return err
			}
		}

		questions, err = q.ListQuestionsByTemplate(ctx, templateID)
		return err
	})
	if err != nil {
		if errors.Is(err, errQuestionSet) {
			WriteBadRequest(w, "questionIds must list every question of the template exactly once")
			return
		}
		WriteInternalError(w, r, "failed to reorder questions", err)
		return
	}

	out := make([]QuestionResponse, len(questions))
	for i, q := range questions {
		out[i] = questionToResponse(q)
	}
	WriteSuccess(w, out)
}
