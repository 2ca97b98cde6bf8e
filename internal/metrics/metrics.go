// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus counters for HTTP traffic, access
// decisions, the cache and the database pool.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/cache"
)

// Outcome label values of AccessDecisionsTotal.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
)

// Metrics holds all Prometheus metrics of formsd.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// AccessDecisionsTotal counts resource decisions. reason is the granting
	// basis for allows and the denial reason otherwise.
	AccessDecisionsTotal *prometheus.CounterVec

	CRMRequestsTotal *prometheus.CounterVec
	JobRunsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forms_access_decisions_total",
				Help: "Total number of resource access decisions",
			},
			[]string{"kind", "op", "outcome", "reason"},
		),
		CRMRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forms_crm_requests_total",
				Help: "Total number of CRM API calls",
			},
			[]string{"operation", "status"},
		),
		JobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forms_job_runs_total",
				Help: "Total number of scheduled job runs",
			},
			[]string{"job", "status"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDecisionsTotal,
		m.CRMRequestsTotal,
		m.JobRunsTotal,
	)

	return m
}

// ObserveDecision implements access.DecisionObserver.
func (m *Metrics) ObserveDecision(kind access.Kind, op access.Operation, d access.Decision) {
	outcome, reason := OutcomeAllow, string(d.Basis)
	if !d.Allowed {
		outcome, reason = OutcomeDeny, string(d.Reason)
	}
	m.AccessDecisionsTotal.WithLabelValues(kind.String(), op.String(), outcome, reason).Inc()
}

// ObserveCRM counts one CRM API call.
func (m *Metrics) ObserveCRM(operation string, err error) {
	m.CRMRequestsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
}

// ObserveJob counts one scheduled job run.
func (m *Metrics) ObserveJob(job string, err error) {
	m.JobRunsTotal.WithLabelValues(job, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RegisterCache exposes the counters of a cache. name becomes the cache label.
func (m *Metrics) RegisterCache(name string, sp cache.StatsProvider) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "forms_cache_hits_total",
			Help:        "Total number of cache hits",
			ConstLabels: labels,
		}, func() float64 { return float64(sp.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "forms_cache_misses_total",
			Help:        "Total number of cache misses",
			ConstLabels: labels,
		}, func() float64 { return float64(sp.Stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "forms_cache_items",
			Help:        "Number of entries held by the cache",
			ConstLabels: labels,
		}, func() float64 { return float64(sp.Stats().Items) }),
	)
}

// RegisterDB exposes the connection pool of db.
func (m *Metrics) RegisterDB(db *sql.DB) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "forms_db_connections_in_use",
			Help: "Number of database connections in use",
		}, func() float64 { return float64(db.Stats().InUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "forms_db_connections_idle",
			Help: "Number of idle database connections",
		}, func() float64 { return float64(db.Stats().Idle) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "forms_db_connections_wait_total",
			Help: "Total number of connections waited for",
		}, func() float64 { return float64(db.Stats().WaitCount) }),
	)
}

// Middleware records every request under its chi route pattern so that ids in
// the path do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ access.DecisionObserver = (*Metrics)(nil)
