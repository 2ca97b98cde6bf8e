// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/Umar7799/course-project/internal/model"
)

// Backend names the store behind a Cacher.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited).
	MaxSize int

	CleanupInterval time.Duration

	// FallbackToMemory uses a memory cache when Redis cannot be reached.
	FallbackToMemory bool
}

// Result is a constructed cache and how it was chosen.
type Result struct {
	Cache      Cacher
	Backend    Backend
	IsFallback bool
}

// New creates the cache described by cfg.
func New(cfg Config) (Result, error) {
	if cfg.RedisURL == "" {
		return Result{Cache: newMemory(cfg), Backend: BackendMemory}, nil
	}

	rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	if err == nil {
		slog.Info("cache backend ready", "category", model.EventCategoryCache,
			"backend", BackendRedis, "url", sanitizeRedisURL(cfg.RedisURL))
		return Result{Cache: rc, Backend: BackendRedis}, nil
	}

	if !cfg.FallbackToMemory {
		return Result{}, fmt.Errorf("connecting to redis at %s: %w", sanitizeRedisURL(cfg.RedisURL), err)
	}

	slog.Warn("redis unavailable, using memory cache",
		"category", model.EventCategoryCache,
		"url", sanitizeRedisURL(cfg.RedisURL),
		"error", err,
	)
	return Result{Cache: newMemory(cfg), Backend: BackendMemory, IsFallback: true}, nil
}

func newMemory(cfg Config) *MemoryCache {
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cleanup,
	})
}

// sanitizeRedisURL hides the password of a Redis URL for logging.
func sanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
