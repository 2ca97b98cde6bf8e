// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/auth"
	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/config"
	"github.com/Umar7799/course-project/internal/crm"
	"github.com/Umar7799/course-project/internal/handler"
	"github.com/Umar7799/course-project/internal/handler/api"
	"github.com/Umar7799/course-project/internal/logging"
	"github.com/Umar7799/course-project/internal/metrics"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/scheduler"
	"github.com/Umar7799/course-project/internal/service"
	"github.com/Umar7799/course-project/internal/store"
	"github.com/Umar7799/course-project/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = ""
	appBuildTime = ""
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "formsd - forms and surveys API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_JWT_SECRET       Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_DB_PATH          SQLite database path (default: ./data/forms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_FRONTEND_URL     Browser client URL, used for CORS and OAuth redirects\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FORMS_REDIS_URL        Redis URL for shared caching (optional)\n")
	}
	flag.Parse()

	version.Current = version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("formsd %s (built: %s)\n", version.Current.Label(), appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	baseHandler := newLogHandler(cfg, logLevel)
	slog.SetDefault(slog.New(baseHandler))

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR records also go to the events table from here on.
	slog.SetDefault(slog.New(logging.NewEventLogHandler(baseHandler, db)))

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.SeedAdmin(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	cacheResult, err := cache.New(cache.Config{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.CacheTTL,
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheResult.Cache.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)
	m.RegisterDB(db)
	if sp, ok := cacheResult.Cache.(cache.StatsProvider); ok {
		m.RegisterCache(string(cacheResult.Backend), sp)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	guard := access.NewGuard(tokens, store.New(db))
	guard.SetObserver(m)

	events := service.NewEventService(db)
	jobs := scheduler.New(slog.Default())
	jobs.SetObserver(m.ObserveJob)
	if err := jobs.Add(scheduler.EventPurgeJob(events, cfg.EventRetentionDays, slog.Default())); err != nil {
		return err
	}

	var crmClient *crm.Client
	if cfg.SalesforceEnabled() {
		crmClient = crm.New(crm.Config{
			ClientID:     cfg.SalesforceClientID,
			ClientSecret: cfg.SalesforceClientSecret,
			RedirectURL:  cfg.SalesforceRedirectURL,
			LoginURL:     cfg.SalesforceLoginURL,
			APIVersion:   cfg.SalesforceAPIVersion,
		}, store.New(db))
		crmClient.SetObserver(m.ObserveCRM)
		if err := jobs.Add(scheduler.CRMRefreshJob(crmClient, cfg.CRMRefreshWindow, slog.Default())); err != nil {
			return err
		}
		slog.Info("salesforce integration enabled", "login_url", cfg.SalesforceLoginURL)
	}

	apiHandler := api.NewHandler(api.Config{
		DB:          db,
		Guard:       guard,
		Tokens:      tokens,
		Policy:      cfg.AccessPolicy(),
		Cache:       cacheResult.Cache,
		CacheTTL:    cfg.CacheTTL,
		Events:      events,
		CRM:         crmClient,
		FrontendURL: cfg.FrontendURL,
		Jobs:        jobs,
	})
	defer apiHandler.Close()

	r := handler.NewRouter(handler.RouterOptions{
		API:            apiHandler,
		Authorizer:     middleware.NewAuthorizer(guard),
		Health:         handler.NewHealthHandler(db, cacheResult.Cache, guard, dataDir),
		Metrics:        m,
		CORSOrigins:    cfg.CORSOrigins,
		IsDev:          cfg.IsDevelopment(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	jobs.Start()
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Current.Label())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newLogHandler writes JSON in production and text in development.
func newLogHandler(cfg *config.Config, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
