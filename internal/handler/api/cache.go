// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/model"
)

// CacheStatsResponse reports the hit/miss counters of the shared cache.
type CacheStatsResponse struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hitRate"`
}

func cacheStats(c cache.Cacher) CacheStatsResponse {
	sp, ok := c.(cache.StatsProvider)
	if !ok {
		return CacheStatsResponse{}
	}
	s := sp.Stats()
	return CacheStatsResponse{Hits: s.Hits, Misses: s.Misses, Sets: s.Sets, Items: s.Items, HitRate: s.HitRate}
}

// CacheStats handles GET /admin/cache.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, cacheStats(h.cache))
}

// FlushCache handles POST /admin/cache/flush. It drops every cached listing
// and pending OAuth state, then zeroes the counters.
func (h *Handler) FlushCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cache.Clear(ctx); err != nil {
		WriteInternalError(w, r, "failed to flush cache", err)
		return
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		sp.ResetStats()
	}

	userID := middleware.GetUserID(r)
	_ = h.events.LogSystemEvent(ctx, model.EventLevelInfo, "Cache flushed", &userID,
		middleware.ClientIP(r), nil)
	WriteSuccess(w, cacheStats(h.cache))
}
