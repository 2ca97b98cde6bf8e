// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
	"github.com/Umar7799/course-project/internal/testutil"
)

type formFixture struct {
	e        *testEnv
	author   store.User
	tmpl     store.Template
	name     store.Question
	age      store.Question
	agree    store.Question
	user     store.User
	token    string
	authorTk string
}

func newFormFixture(t *testing.T, public bool) formFixture {
	t.Helper()
	e := newTestEnv(t)
	author, authorToken := e.user("author@example.com", model.RoleUser)
	user, token := e.user("user@example.com", model.RoleUser)
	tmpl := testutil.CreateTemplate(t, e.db, author.ID, public)
	return formFixture{
		e:        e,
		author:   author,
		tmpl:     tmpl,
		name:     testutil.CreateQuestion(t, e.db, tmpl.ID, "Name", model.QuestionTypeSingleLine),
		age:      testutil.CreateQuestion(t, e.db, tmpl.ID, "Age", model.QuestionTypeInteger),
		agree:    testutil.CreateQuestion(t, e.db, tmpl.ID, "Agree?", model.QuestionTypeCheckbox),
		user:     user,
		token:    token,
		authorTk: authorToken,
	}
}

func answer(q store.Question, v string) map[string]any {
	return map[string]any{"questionId": q.ID, "value": v}
}

func TestSubmitForm(t *testing.T) {
	f := newFormFixture(t, true)

	w := f.e.do(http.MethodPost, "/api/forms", f.token, map[string]any{
		"templateId": f.tmpl.ID,
		"answers": []any{
			answer(f.name, " Ada "),
			answer(f.age, "036"),
			answer(f.agree, "yes"),
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[FormResponse](t, w)
	assert.Equal(t, f.user.ID, resp.UserID)
	assert.Equal(t, f.tmpl.ID, resp.TemplateID)
	require.Len(t, resp.Answers, 3)
	assert.Equal(t, "Ada", resp.Answers[0].Value)
	assert.Equal(t, "36", resp.Answers[1].Value)
	assert.Equal(t, "true", resp.Answers[2].Value)

	w = f.e.do(http.MethodGet, "/api/forms/mine", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]FormResponse](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, resp.ID, mine[0].ID)
}

func TestSubmitFormInvalidAnswers(t *testing.T) {
	f := newFormFixture(t, true)
	other := testutil.CreateTemplate(t, f.e.db, f.author.ID, true)
	foreign := testutil.CreateQuestion(t, f.e.db, other.ID, "Elsewhere", model.QuestionTypeSingleLine)

	w := f.e.do(http.MethodPost, "/api/forms", f.token, map[string]any{
		"templateId": f.tmpl.ID,
		"answers": []any{
			answer(f.age, "many"),
			answer(foreign, "x"),
			answer(f.name, "a"),
			answer(f.name, "b"),
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := errorBody(t, w)
	assert.Equal(t, "validation_error", body.Reason)
	assert.Equal(t, "must be a whole number", body.Fields["answers[0]"])
	assert.Equal(t, "is not a question of this template", body.Fields["answers[1]"])
	assert.NotContains(t, body.Fields, "answers[2]")
	assert.Equal(t, "answers the same question twice", body.Fields["answers[3]"])

	w = f.e.do(http.MethodGet, "/api/forms/mine", f.token, nil)
	assert.Empty(t, decode[[]FormResponse](t, w), "nothing is stored when an answer is rejected")
}

func TestSubmitFormToPrivateTemplate(t *testing.T) {
	f := newFormFixture(t, false)
	body := map[string]any{"templateId": f.tmpl.ID, "answers": []any{answer(f.name, "x")}}

	w := f.e.do(http.MethodPost, "/api/forms", f.token, body)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have access to this template", errorBody(t, w).Error)

	w = f.e.do(http.MethodPost, "/api/forms", f.token, map[string]any{
		"templateId": 9999, "answers": []any{answer(f.name, "x")},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.e.do(http.MethodPost, "/api/forms", f.authorTk, body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUpdateAnswerValidatesType(t *testing.T) {
	f := newFormFixture(t, true)
	_, answers := testutil.SubmitForm(t, f.e.db, f.tmpl.ID, f.user.ID, map[int64]string{f.age.ID: "1"})

	w := f.e.do(http.MethodPut, fmt.Sprintf("/api/answers/%d", answers[0].ID), f.token, map[string]string{"value": "old"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a whole number", errorBody(t, w).Fields["value"])

	w = f.e.do(http.MethodPut, fmt.Sprintf("/api/answers/%d", answers[0].ID), f.token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is required", errorBody(t, w).Fields["value"])
}

func TestDeleteFormAndAnswer(t *testing.T) {
	f := newFormFixture(t, true)
	form, answers := testutil.SubmitForm(t, f.e.db, f.tmpl.ID, f.user.ID, map[int64]string{f.name.ID: "x"})

	w := f.e.do(http.MethodDelete, fmt.Sprintf("/api/answers/%d", answers[0].ID), f.token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.e.do(http.MethodGet, fmt.Sprintf("/api/forms/%d", form.ID), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[FormResponse](t, w).Answers)

	w = f.e.do(http.MethodDelete, fmt.Sprintf("/api/forms/%d", form.ID), f.token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.e.do(http.MethodGet, fmt.Sprintf("/api/forms/%d", form.ID), f.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
