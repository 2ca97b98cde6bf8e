// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// AddAllowedUser adds userID to a template's allow-list. Adding a present user is a no-op.
// Returns true when a row was inserted.
func (q *Queries) AddAllowedUser(ctx context.Context, templateID, userID int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO template_allowed_users (template_id, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (template_id, user_id) DO NOTHING`,
		templateID, userID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RemoveAllowedUser removes userID from a template's allow-list. Removing an absent
// user is a no-op. Returns true when a row was deleted.
func (q *Queries) RemoveAllowedUser(ctx context.Context, templateID, userID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM template_allowed_users WHERE template_id = ? AND user_id = ?`, templateID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListAllowedUserIDs returns the allow-list of a template.
func (q *Queries) ListAllowedUserIDs(ctx context.Context, templateID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT user_id FROM template_allowed_users WHERE template_id = ? ORDER BY user_id`, templateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAllowedUsers returns the users on a template's allow-list.
func (q *Queries) ListAllowedUsers(ctx context.Context, templateID int64) ([]User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.role, u.is_active, u.created_at, u.updated_at, u.last_login_at
		 FROM template_allowed_users a JOIN users u ON u.id = a.user_id
		 WHERE a.template_id = ? ORDER BY u.email`, templateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
