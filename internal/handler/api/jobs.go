// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/scheduler"
)

// JobRunner lists and triggers the scheduled maintenance jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(ctx context.Context, name string) error
}

// ListJobs handles GET /admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		WriteSuccess(w, []scheduler.JobInfo{})
		return
	}
	WriteSuccess(w, h.jobs.List())
}

// RunJob handles POST /admin/jobs/{name}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := urlParam(r, "name")
	if h.jobs == nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found", "job_not_found")
		return
	}

	userID := middleware.GetUserID(r)
	err := h.jobs.TriggerNow(ctx, name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Job not found", "job_not_found")
		return
	case err != nil:
		_ = h.events.LogSystemEvent(ctx, model.EventLevelError, "Manual job run failed", &userID,
			middleware.ClientIP(r), map[string]any{"job": name, "error": err.Error()})
		middleware.WriteError(w, http.StatusBadGateway, "Job failed: "+err.Error(), "job_failed")
		return
	}

	_ = h.events.LogSystemEvent(ctx, model.EventLevelInfo, "Job run manually", &userID,
		middleware.ClientIP(r), map[string]any{"job": name})
	WriteSuccess(w, map[string]string{"status": "ok", "job": name})
}
