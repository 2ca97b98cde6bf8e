// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Umar7799/course-project/internal/model"
)

// Job names.
const (
	JobCRMRefresh = "crm_token_refresh"
	JobEventPurge = "event_purge"
)

// CredentialRefresher refreshes stored CRM credentials close to expiry.
type CredentialRefresher interface {
	RefreshExpiring(ctx context.Context, within time.Duration) (int, error)
}

// EventPurger deletes audit events older than a cutoff.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CRMRefreshJob refreshes every credential expiring within window, every five minutes.
func CRMRefreshJob(r CredentialRefresher, window time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:        JobCRMRefresh,
		Description: "Refresh Salesforce credentials that are about to expire",
		Schedule:    "*/5 * * * *",
		Run: func(ctx context.Context) error {
			n, err := r.RefreshExpiring(ctx, window)
			if n > 0 {
				logger.Info("refreshed salesforce credentials", "category", model.EventCategoryCRM, "count", n)
			}
			return err
		},
	}
}

// EventPurgeJob deletes events older than retentionDays once a day.
func EventPurgeJob(p EventPurger, retentionDays int, logger *slog.Logger) Job {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	return Job{
		Name:        JobEventPurge,
		Description: "Delete audit events past the retention period",
		Schedule:    "@daily",
		Run: func(ctx context.Context) error {
			n, err := p.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old events", "category", model.EventCategorySystem, "count", n, "retention_days", retentionDays)
			}
			return nil
		},
	}
}
