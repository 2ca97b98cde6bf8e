// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const formSummarySelect = `SELECT f.id, f.template_id, f.user_id, f.created_at, f.updated_at, t.title, u.name, u.email
FROM forms f
JOIN templates t ON t.id = f.template_id
JOIN users u ON u.id = f.user_id`

func scanFormSummary(row rowScanner) (FormSummary, error) {
	var s FormSummary
	err := row.Scan(&s.ID, &s.TemplateID, &s.UserID, &s.CreatedAt, &s.UpdatedAt,
		&s.TemplateTitle, &s.UserName, &s.UserEmail)
	return s, err
}

const answerColumns = `id, form_id, question_id, value, created_at, updated_at`

func scanAnswer(row rowScanner) (Answer, error) {
	var a Answer
	err := row.Scan(&a.ID, &a.FormID, &a.QuestionID, &a.Value, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) CreateForm(ctx context.Context, templateID, userID int64, now time.Time) (Form, error) {
	var f Form
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO forms (template_id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		 RETURNING id, template_id, user_id, created_at, updated_at`,
		templateID, userID, now, now).Scan(&f.ID, &f.TemplateID, &f.UserID, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

type CreateAnswerParams struct {
	FormID     int64
	QuestionID int64
	Value      string
	CreatedAt  time.Time
}

// CreateAnswer stores one answer. A second answer to the same question of a form yields ErrConflict.
func (q *Queries) CreateAnswer(ctx context.Context, arg CreateAnswerParams) (Answer, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO answers (form_id, question_id, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 RETURNING `+answerColumns,
		arg.FormID, arg.QuestionID, arg.Value, arg.CreatedAt, arg.CreatedAt)
	a, err := scanAnswer(row)
	if isUniqueViolation(err) {
		return Answer{}, ErrConflict
	}
	return a, err
}

func (q *Queries) GetFormSummary(ctx context.Context, id int64) (FormSummary, error) {
	return scanFormSummary(q.db.QueryRowContext(ctx, formSummarySelect+` WHERE f.id = ?`, id))
}

// GetFormOwnership returns the submitter of a form and the author of its template.
func (q *Queries) GetFormOwnership(ctx context.Context, id int64) (FormOwnership, error) {
	var o FormOwnership
	err := q.db.QueryRowContext(ctx,
		`SELECT f.id, f.template_id, f.user_id, t.author_id
		 FROM forms f JOIN templates t ON t.id = f.template_id
		 WHERE f.id = ?`, id).Scan(&o.FormID, &o.TemplateID, &o.UserID, &o.TemplateAuthorID)
	return o, err
}

func (q *Queries) ListFormsByUser(ctx context.Context, userID int64) ([]FormSummary, error) {
	return q.listFormSummaries(ctx, formSummarySelect+` WHERE f.user_id = ? ORDER BY f.created_at DESC, f.id DESC`, userID)
}

func (q *Queries) ListFormsByTemplate(ctx context.Context, templateID int64) ([]FormSummary, error) {
	return q.listFormSummaries(ctx, formSummarySelect+` WHERE f.template_id = ? ORDER BY f.created_at DESC, f.id DESC`, templateID)
}

func (q *Queries) listFormSummaries(ctx context.Context, query string, args ...any) ([]FormSummary, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []FormSummary
	for rows.Next() {
		s, err := scanFormSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteForm(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAnswersByForm returns a form's answers ordered like the template's questions.
func (q *Queries) ListAnswersByForm(ctx context.Context, formID int64) ([]Answer, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT a.id, a.form_id, a.question_id, a.value, a.created_at, a.updated_at
		 FROM answers a JOIN questions qn ON qn.id = a.question_id
		 WHERE a.form_id = ? ORDER BY qn.position, qn.id`, formID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (q *Queries) GetAnswer(ctx context.Context, id int64) (Answer, error) {
	return scanAnswer(q.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id))
}

// GetAnswerOwnership resolves an answer through its form to the submitting user.
func (q *Queries) GetAnswerOwnership(ctx context.Context, id int64) (AnswerOwnership, error) {
	var o AnswerOwnership
	err := q.db.QueryRowContext(ctx,
		`SELECT a.id, a.form_id, a.question_id, f.user_id, t.author_id
		 FROM answers a
		 JOIN forms f ON f.id = a.form_id
		 JOIN templates t ON t.id = f.template_id
		 WHERE a.id = ?`, id).Scan(&o.AnswerID, &o.FormID, &o.QuestionID, &o.UserID, &o.TemplateAuthorID)
	return o, err
}

func (q *Queries) UpdateAnswer(ctx context.Context, id int64, value string, now time.Time) (Answer, error) {
	return scanAnswer(q.db.QueryRowContext(ctx,
		`UPDATE answers SET value = ?, updated_at = ? WHERE id = ? RETURNING `+answerColumns,
		value, now, id))
}

func (q *Queries) DeleteAnswer(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TouchForm bumps a form's updated_at after one of its answers changed.
func (q *Queries) TouchForm(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE forms SET updated_at = ? WHERE id = ?`, now, id)
	return err
}
