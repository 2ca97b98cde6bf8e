// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newTestMemoryCache returns a cache without background cleanup and a clock
// that tests can move forward.
func newTestMemoryCache(t *testing.T, opts MemoryCacheOptions) (*MemoryCache, *time.Time) {
	t.Helper()
	c := NewMemoryCache(opts)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	t.Cleanup(func() { _ = c.Close() })
	return c, &now
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 100})
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", []byte("value1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := cache.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "value1" {
		t.Errorf("expected value1, got %s", string(val))
	}

	has, err := cache.Has(ctx, "key1")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("expected key1 to exist")
	}

	if err := cache.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "key1"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if got := cache.Stats().Items; got != 0 {
		t.Errorf("Items = %d after delete, want 0", got)
	}
}

func TestMemoryCache_CacheMiss(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	if _, err := cache.Get(ctx, "nonexistent"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	has, err := cache.Has(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache, now := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()

	_ = cache.Set(ctx, "short", []byte("value"), time.Minute)
	_ = cache.Set(ctx, "default", []byte("value"), 0)

	*now = now.Add(2 * time.Minute)

	if _, err := cache.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("expected short TTL key to expire, got %v", err)
	}
	if has, _ := cache.Has(ctx, "short"); has {
		t.Error("Has reported an expired key")
	}
	if _, err := cache.Get(ctx, "default"); err != nil {
		t.Errorf("expected default TTL key to still exist, got %v", err)
	}

	*now = now.Add(time.Hour)
	if _, err := cache.Get(ctx, "default"); err != ErrCacheMiss {
		t.Errorf("expected default TTL key to expire, got %v", err)
	}
	if got := cache.Stats().Items; got != 0 {
		t.Errorf("Items = %d, want 0", got)
	}
}

func TestMemoryCache_DefaultTTL(t *testing.T) {
	cache, now := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"), 0)

	*now = now.Add(4 * time.Minute)
	if _, err := cache.Get(ctx, "k"); err != nil {
		t.Errorf("expected key to live for the 5 minute default, got %v", err)
	}
	*now = now.Add(2 * time.Minute)
	if _, err := cache.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("expected key to expire after the default TTL, got %v", err)
	}
}

func TestMemoryCache_MaxSize(t *testing.T) {
	cache, now := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 2})
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"), time.Minute)
	_ = cache.Set(ctx, "b", []byte("2"), 0)
	_ = cache.Set(ctx, "c", []byte("3"), 0)

	if has, _ := cache.Has(ctx, "c"); has {
		t.Error("expected c to be skipped while the cache is full")
	}

	// Overwriting an existing key is allowed when full.
	_ = cache.Set(ctx, "b", []byte("22"), 0)
	if v, _ := cache.Get(ctx, "b"); string(v) != "22" {
		t.Errorf("b = %q, want 22", v)
	}

	// Once a expires there is room again.
	*now = now.Add(2 * time.Minute)
	_ = cache.Set(ctx, "c", []byte("3"), 0)
	if has, _ := cache.Has(ctx, "c"); !has {
		t.Error("expected c to be stored after expired entries were dropped")
	}
	if got := cache.Stats().Items; got != 2 {
		t.Errorf("Items = %d, want 2", got)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	for _, key := range []string{"key1", "key2", "key3"} {
		_ = cache.Set(ctx, key, []byte("value"), 0)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range []string{"key1", "key2", "key3"} {
		if _, err := cache.Get(ctx, key); err != ErrCacheMiss {
			t.Errorf("expected %s to be cleared", key)
		}
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "prefix:key1", []byte("value1"), 0)
	_ = cache.Set(ctx, "prefix:key2", []byte("value2"), 0)
	_ = cache.Set(ctx, "other:key", []byte("other"), 0)

	if err := cache.DeleteByPrefix(ctx, "prefix:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	for _, key := range []string{"prefix:key1", "prefix:key2"} {
		if _, err := cache.Get(ctx, key); err != ErrCacheMiss {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if _, err := cache.Get(ctx, "other:key"); err != nil {
		t.Error("expected other:key to still exist")
	}
}

func TestMemoryCache_Take(t *testing.T) {
	cache, now := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()

	_ = cache.Set(ctx, "once", []byte("v"), 0)

	v, err := cache.Take(ctx, "once")
	if err != nil || string(v) != "v" {
		t.Fatalf("Take = %q, %v; want v, nil", v, err)
	}
	if _, err := cache.Take(ctx, "once"); err != ErrCacheMiss {
		t.Errorf("second Take error = %v, want ErrCacheMiss", err)
	}

	_ = cache.Set(ctx, "stale", []byte("v"), time.Second)
	*now = now.Add(time.Minute)
	if _, err := cache.Take(ctx, "stale"); err != ErrCacheMiss {
		t.Errorf("Take of expired key error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_TakeConcurrent(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()
	_ = cache.Set(ctx, "once", []byte("v"), 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Take(ctx, "once"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Take succeeded %d times, want 1", wins)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", []byte("value1"), 0)
	_ = cache.Set(ctx, "key2", []byte("value2"), 0)

	_, _ = cache.Get(ctx, "key1")
	_, _ = cache.Get(ctx, "key1")
	_, _ = cache.Get(ctx, "nonexistent")

	stats := cache.Stats()

	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Sets != 2 {
		t.Errorf("expected 2 sets, got %d", stats.Sets)
	}
	if stats.Items != 2 {
		t.Errorf("expected 2 items, got %d", stats.Items)
	}

	expectedHitRate := float64(2) / float64(3) * 100
	if stats.HitRate < expectedHitRate-0.01 || stats.HitRate > expectedHitRate+0.01 {
		t.Errorf("expected hit rate ~%.2f, got %.2f", expectedHitRate, stats.HitRate)
	}

	cache.ResetStats()
	if s := cache.Stats(); s.Hits != 0 || s.Misses != 0 || s.Sets != 0 || s.Items != 2 {
		t.Errorf("after ResetStats = %+v", s)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = cache.Set(ctx, "key", []byte("value"), 0)
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = cache.Get(ctx, "key")
			}
		}()
	}
	wg.Wait()

	if _, err := cache.Get(ctx, "key"); err != nil {
		t.Error("expected key to exist after concurrent access")
	}
	if got := cache.Stats().Items; got != 1 {
		t.Errorf("Items = %d, want 1", got)
	}
}

func TestMemoryCache_ValueCopy(t *testing.T) {
	cache, _ := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	original := []byte("original")
	if err := cache.Set(ctx, "key", original, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	original[0] = 'X'

	val, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "original" {
		t.Errorf("expected original, got %s (cache didn't copy on set)", string(val))
	}

	val[0] = 'Y'
	val2, _ := cache.Get(ctx, "key")
	if string(val2) != "original" {
		t.Errorf("expected original, got %s (cache didn't copy on get)", string(val2))
	}
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Second,
	})
	ctx := context.Background()

	_ = cache.Set(ctx, "key", []byte("value"), 0)

	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := cache.Get(ctx, "key"); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed after close, got %v", err)
	}
	if err := cache.Set(ctx, "key2", []byte("value"), 0); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed on Set after close, got %v", err)
	}
	if err := cache.DeleteByPrefix(ctx, ""); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed on DeleteByPrefix after close, got %v", err)
	}

	if err := cache.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
