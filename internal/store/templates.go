// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"
)

const templateColumns = `t.id, t.title, t.description, t.topic, t.image_url, t.is_public, t.author_id, t.created_at, t.updated_at`

// templateReturning lists the same columns unqualified, as RETURNING requires.
const templateReturning = `id, title, description, topic, image_url, is_public, author_id, created_at, updated_at`

const templateSummarySelect = `SELECT ` + templateColumns + `, u.name,
	(SELECT COUNT(*) FROM likes l WHERE l.template_id = t.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.template_id = t.id) AS comment_count,
	(SELECT COUNT(*) FROM forms f WHERE f.template_id = t.id) AS form_count
FROM templates t JOIN users u ON u.id = t.author_id`

func scanTemplate(row rowScanner) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Topic, &t.ImageURL, &t.IsPublic,
		&t.AuthorID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanTemplateSummary(row rowScanner) (TemplateSummary, error) {
	var s TemplateSummary
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Topic, &s.ImageURL, &s.IsPublic,
		&s.AuthorID, &s.CreatedAt, &s.UpdatedAt, &s.AuthorName, &s.LikeCount, &s.CommentCount, &s.FormCount)
	return s, err
}

type CreateTemplateParams struct {
	Title       string
	Description string
	Topic       string
	ImageURL    string
	IsPublic    bool
	AuthorID    int64
	CreatedAt   time.Time
}

// CreateTemplate inserts a template row. Tags are stored separately with SetTemplateTags.
func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO templates (title, description, topic, image_url, is_public, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+templateReturning,
		arg.Title, arg.Description, arg.Topic, arg.ImageURL, arg.IsPublic, arg.AuthorID, arg.CreatedAt, arg.CreatedAt)
	return scanTemplate(row)
}

func (q *Queries) GetTemplate(ctx context.Context, id int64) (Template, error) {
	return scanTemplate(q.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates t WHERE t.id = ?`, id))
}

func (q *Queries) GetTemplateSummary(ctx context.Context, id int64) (TemplateSummary, error) {
	return scanTemplateSummary(q.db.QueryRowContext(ctx, templateSummarySelect+` WHERE t.id = ?`, id))
}

// GetTemplateVisibility returns the ownership projection of a template.
func (q *Queries) GetTemplateVisibility(ctx context.Context, id int64) (TemplateVisibility, error) {
	var v TemplateVisibility
	err := q.db.QueryRowContext(ctx,
		`SELECT id, author_id, is_public FROM templates WHERE id = ?`, id).
		Scan(&v.TemplateID, &v.AuthorID, &v.IsPublic)
	return v, err
}

type UpdateTemplateParams struct {
	ID          int64
	Title       string
	Description string
	Topic       string
	ImageURL    string
	UpdatedAt   time.Time
}

func (q *Queries) UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) (Template, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE templates SET title = ?, description = ?, topic = ?, image_url = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+templateReturning,
		arg.Title, arg.Description, arg.Topic, arg.ImageURL, arg.UpdatedAt, arg.ID)
	return scanTemplate(row)
}

// DeleteTemplate removes a template; questions, forms, comments, likes and
// sharing rows cascade. Returns the number of deleted rows.
func (q *Queries) DeleteTemplate(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ToggleTemplateVisibility flips is_public in a single statement and returns the new value.
// Concurrent toggles serialize on the row; each caller observes the state its own write produced.
func (q *Queries) ToggleTemplateVisibility(ctx context.Context, id int64, now time.Time) (bool, error) {
	var isPublic bool
	err := q.db.QueryRowContext(ctx,
		`UPDATE templates SET is_public = NOT is_public, updated_at = ? WHERE id = ? RETURNING is_public`,
		now, id).Scan(&isPublic)
	return isPublic, err
}

// SetTemplateVisibility sets is_public to an explicit value.
func (q *Queries) SetTemplateVisibility(ctx context.Context, id int64, isPublic bool, now time.Time) (bool, error) {
	var out bool
	err := q.db.QueryRowContext(ctx,
		`UPDATE templates SET is_public = ?, updated_at = ? WHERE id = ? RETURNING is_public`,
		isPublic, now, id).Scan(&out)
	return out, err
}

// SetTemplateTags replaces the ordered tag list of a template. Duplicates keep their first position.
func (q *Queries) SetTemplateTags(ctx context.Context, templateID int64, tags []string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM template_tags WHERE template_id = ?`, templateID); err != nil {
		return err
	}
	for i, tag := range tags {
		_, err := q.db.ExecContext(ctx,
			`INSERT INTO template_tags (template_id, tag, position) VALUES (?, ?, ?)
			 ON CONFLICT (template_id, tag) DO NOTHING`,
			templateID, tag, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListTagsForTemplates loads the ordered tags of many templates at once.
func (q *Queries) ListTagsForTemplates(ctx context.Context, templateIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(templateIDs))
	if len(templateIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(templateIDs))
	for i, id := range templateIDs {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT template_id, tag FROM template_tags WHERE template_id IN (`+placeholders(len(args))+`)
		 ORDER BY template_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

// ListTags returns tags used by public templates, most used first.
func (q *Queries) ListTags(ctx context.Context, limit int64) ([]TagCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT tt.tag, COUNT(*) AS n FROM template_tags tt
		 JOIN templates t ON t.id = tt.template_id
		 WHERE t.is_public = 1
		 GROUP BY tt.tag ORDER BY n DESC, tt.tag LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		items = append(items, tc)
	}
	return items, rows.Err()
}

// TemplateFilter narrows the public template listing.
type TemplateFilter struct {
	Query  string
	Topic  string
	Tag    string
	Limit  int64
	Offset int64
}

func (f TemplateFilter) where() (string, []any) {
	clauses := []string{"t.is_public = 1"}
	var args []any
	if f.Query != "" {
		like := "%" + f.Query + "%"
		clauses = append(clauses, "(t.title LIKE ? OR t.description LIKE ? OR t.topic LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Topic != "" {
		clauses = append(clauses, "t.topic = ?")
		args = append(args, f.Topic)
	}
	if f.Tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM template_tags tt WHERE tt.template_id = t.id AND tt.tag = ?)")
		args = append(args, f.Tag)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListPublicTemplates lists public templates newest first.
func (q *Queries) ListPublicTemplates(ctx context.Context, f TemplateFilter) ([]TemplateSummary, error) {
	where, args := f.where()
	args = append(args, f.Limit, f.Offset)
	return q.listTemplateSummaries(ctx, templateSummarySelect+where+` ORDER BY t.created_at DESC, t.id DESC LIMIT ? OFFSET ?`, args...)
}

func (q *Queries) CountPublicTemplates(ctx context.Context, f TemplateFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates t`+where, args...).Scan(&n)
	return n, err
}

// ListPopularTemplates lists public templates ordered by number of submitted forms.
func (q *Queries) ListPopularTemplates(ctx context.Context, limit int64) ([]TemplateSummary, error) {
	return q.listTemplateSummaries(ctx,
		templateSummarySelect+` WHERE t.is_public = 1 ORDER BY form_count DESC, like_count DESC, t.id DESC LIMIT ?`, limit)
}

// ListTemplatesByAuthor lists an author's templates. When isPublic is non-nil only
// templates with that visibility are returned.
func (q *Queries) ListTemplatesByAuthor(ctx context.Context, authorID int64, isPublic *bool) ([]TemplateSummary, error) {
	query := templateSummarySelect + ` WHERE t.author_id = ?`
	args := []any{authorID}
	if isPublic != nil {
		query += ` AND t.is_public = ?`
		args = append(args, *isPublic)
	}
	return q.listTemplateSummaries(ctx, query+` ORDER BY t.created_at DESC, t.id DESC`, args...)
}

// ListTemplatesSharedWith lists private templates whose allow-list contains userID.
func (q *Queries) ListTemplatesSharedWith(ctx context.Context, userID int64) ([]TemplateSummary, error) {
	return q.listTemplateSummaries(ctx, templateSummarySelect+`
		JOIN template_allowed_users a ON a.template_id = t.id
		WHERE a.user_id = ? AND t.is_public = 0
		ORDER BY t.created_at DESC, t.id DESC`, userID)
}

func (q *Queries) listTemplateSummaries(ctx context.Context, query string, args ...any) ([]TemplateSummary, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TemplateSummary
	for rows.Next() {
		s, err := scanTemplateSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
