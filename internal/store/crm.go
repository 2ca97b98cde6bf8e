// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const crmColumns = `user_id, provider, access_token, refresh_token, token_type, expiry, instance_url, created_at, updated_at`

func scanCRMCredential(row rowScanner) (CRMCredential, error) {
	var c CRMCredential
	err := row.Scan(&c.UserID, &c.Provider, &c.AccessToken, &c.RefreshToken, &c.TokenType,
		&c.Expiry, &c.InstanceURL, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type UpsertCRMCredentialParams struct {
	UserID       int64
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       sql.NullTime
	InstanceURL  string
	Now          time.Time
}

// UpsertCRMCredential stores the token set of a user. An empty RefreshToken keeps
// the stored one, since refresh responses usually omit it.
func (q *Queries) UpsertCRMCredential(ctx context.Context, arg UpsertCRMCredentialParams) (CRMCredential, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO crm_credentials (user_id, provider, access_token, refresh_token, token_type, expiry, instance_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   provider = excluded.provider,
		   access_token = excluded.access_token,
		   refresh_token = CASE WHEN excluded.refresh_token = '' THEN crm_credentials.refresh_token ELSE excluded.refresh_token END,
		   token_type = excluded.token_type,
		   expiry = excluded.expiry,
		   instance_url = CASE WHEN excluded.instance_url = '' THEN crm_credentials.instance_url ELSE excluded.instance_url END,
		   updated_at = excluded.updated_at
		 RETURNING `+crmColumns,
		arg.UserID, arg.Provider, arg.AccessToken, arg.RefreshToken, arg.TokenType, arg.Expiry, arg.InstanceURL, arg.Now, arg.Now)
	return scanCRMCredential(row)
}

func (q *Queries) GetCRMCredential(ctx context.Context, userID int64) (CRMCredential, error) {
	return scanCRMCredential(q.db.QueryRowContext(ctx,
		`SELECT `+crmColumns+` FROM crm_credentials WHERE user_id = ?`, userID))
}

// ListCRMCredentialsExpiringBefore returns refreshable credentials whose access token
// expires before t.
func (q *Queries) ListCRMCredentialsExpiringBefore(ctx context.Context, t time.Time) ([]CRMCredential, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+crmColumns+` FROM crm_credentials
		 WHERE refresh_token != '' AND expiry IS NOT NULL AND expiry < ?
		 ORDER BY expiry`, t)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CRMCredential
	for rows.Next() {
		c, err := scanCRMCredential(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteCRMCredential(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM crm_credentials WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
