// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const commentSelect = `SELECT c.id, c.template_id, c.user_id, u.name, c.content, c.created_at
FROM comments c JOIN users u ON u.id = c.user_id`

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.TemplateID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt)
	return c, err
}

func (q *Queries) CreateComment(ctx context.Context, templateID, userID int64, content string, now time.Time) (Comment, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO comments (template_id, user_id, content, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		templateID, userID, content, now).Scan(&id)
	if err != nil {
		return Comment{}, err
	}
	return q.GetComment(ctx, id)
}

func (q *Queries) GetComment(ctx context.Context, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
}

// GetCommentOwnership returns the author of a comment.
func (q *Queries) GetCommentOwnership(ctx context.Context, id int64) (CommentOwnership, error) {
	var o CommentOwnership
	err := q.db.QueryRowContext(ctx,
		`SELECT id, template_id, user_id FROM comments WHERE id = ?`, id).
		Scan(&o.CommentID, &o.TemplateID, &o.UserID)
	return o, err
}

// ListCommentsByTemplate returns comments oldest first.
func (q *Queries) ListCommentsByTemplate(ctx context.Context, templateID int64) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, commentSelect+` WHERE c.template_id = ? ORDER BY c.created_at, c.id`, templateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteComment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateLike records that userID likes templateID. The unique (template_id, user_id)
// index decides races: the loser gets ErrConflict and no second row exists.
func (q *Queries) CreateLike(ctx context.Context, templateID, userID int64, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO likes (template_id, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (template_id, user_id) DO NOTHING`,
		templateID, userID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteLike removes a like. Removing an absent like is not an error.
func (q *Queries) DeleteLike(ctx context.Context, templateID, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM likes WHERE template_id = ? AND user_id = ?`, templateID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) CountLikes(ctx context.Context, templateID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE template_id = ?`, templateID).Scan(&n)
	return n, err
}

func (q *Queries) HasLiked(ctx context.Context, templateID, userID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE template_id = ? AND user_id = ?`, templateID, userID).Scan(&n)
	return n > 0, err
}
