// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const questionColumns = `id, template_id, text, description, type, show_in_table, position, created_at, updated_at`

func scanQuestion(row rowScanner) (Question, error) {
	var qn Question
	err := row.Scan(&qn.ID, &qn.TemplateID, &qn.Text, &qn.Description, &qn.Type, &qn.ShowInTable,
		&qn.Position, &qn.CreatedAt, &qn.UpdatedAt)
	return qn, err
}

type CreateQuestionParams struct {
	TemplateID  int64
	Text        string
	Description sql.NullString
	Type        string
	ShowInTable bool
	CreatedAt   time.Time
}

// CreateQuestion appends a question at the end of its template's ordering.
func (q *Queries) CreateQuestion(ctx context.Context, arg CreateQuestionParams) (Question, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO questions (template_id, text, description, type, show_in_table, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM questions WHERE template_id = ?), ?, ?)
		 RETURNING `+questionColumns,
		arg.TemplateID, arg.Text, arg.Description, arg.Type, arg.ShowInTable, arg.TemplateID, arg.CreatedAt, arg.CreatedAt)
	return scanQuestion(row)
}

func (q *Queries) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return scanQuestion(q.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
}

// GetQuestionOwnership resolves a question through its parent template to the template's author.
func (q *Queries) GetQuestionOwnership(ctx context.Context, id int64) (QuestionOwnership, error) {
	var o QuestionOwnership
	err := q.db.QueryRowContext(ctx,
		`SELECT qn.id, qn.template_id, t.author_id
		 FROM questions qn JOIN templates t ON t.id = qn.template_id
		 WHERE qn.id = ?`, id).Scan(&o.QuestionID, &o.TemplateID, &o.AuthorID)
	return o, err
}

// ListQuestionsByTemplate returns the questions of a template in display order.
func (q *Queries) ListQuestionsByTemplate(ctx context.Context, templateID int64) ([]Question, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE template_id = ? ORDER BY position, id`, templateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Question
	for rows.Next() {
		qn, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, qn)
	}
	return items, rows.Err()
}

type UpdateQuestionParams struct {
	ID          int64
	Text        string
	Description sql.NullString
	Type        string
	ShowInTable bool
	UpdatedAt   time.Time
}

func (q *Queries) UpdateQuestion(ctx context.Context, arg UpdateQuestionParams) (Question, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE questions SET text = ?, description = ?, type = ?, show_in_table = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+questionColumns,
		arg.Text, arg.Description, arg.Type, arg.ShowInTable, arg.UpdatedAt, arg.ID)
	return scanQuestion(row)
}

func (q *Queries) DeleteQuestion(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetQuestionPosition moves one question of a template. It only touches rows of that template.
func (q *Queries) SetQuestionPosition(ctx context.Context, templateID, questionID int64, position int, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE questions SET position = ?, updated_at = ? WHERE id = ? AND template_id = ?`,
		position, now, questionID, templateID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %d of template %d: %w", questionID, templateID, sql.ErrNoRows)
	}
	return nil
}
