// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Umar7799/course-project/internal/access"
	"github.com/Umar7799/course-project/internal/auth"
	"github.com/Umar7799/course-project/internal/cache"
	"github.com/Umar7799/course-project/internal/middleware"
	"github.com/Umar7799/course-project/internal/store"
	"github.com/Umar7799/course-project/internal/testutil"
)

const testSecret = "api-test-secret-with-enough-bytes-00001"

// testEnv is a handler mounted on a router over a migrated database.
type testEnv struct {
	t      *testing.T
	db     *sql.DB
	h      *Handler
	router chi.Router
	tokens *auth.Tokens
	cache  *cache.MemoryCache
}

type envOption func(*Config)

func withPolicy(p access.Policy) envOption {
	return func(c *Config) { c.Policy = p }
}

func withLoginProtection(lp *middleware.LoginProtection) envOption {
	return func(c *Config) { c.LoginProtection = lp }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return newTestEnvWithDB(t, db, opts...)
}

func newTestEnvWithDB(t *testing.T, db *sql.DB, opts ...envOption) *testEnv {
	t.Helper()

	tokens := auth.NewTokens(testSecret, time.Hour)
	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })

	guard := access.NewGuard(tokens, store.New(db))
	cfg := Config{
		DB:       db,
		Guard:    guard,
		Tokens:   tokens,
		Cache:    mc,
		CacheTTL: time.Minute,
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit: 1000,
			IPBurst:     1000,
		}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := NewHandler(cfg)
	t.Cleanup(h.Close)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.Mount(r, middleware.NewAuthorizer(guard))
	})

	return &testEnv{t: t, db: db, h: h, router: r, tokens: tokens, cache: mc}
}

// user creates a user and returns it with a valid token.
func (e *testEnv) user(email, role string) (store.User, string) {
	e.t.Helper()
	u := testutil.CreateUser(e.t, e.db, email, role)
	return u, e.token(u)
}

func (e *testEnv) token(u store.User) string {
	e.t.Helper()
	raw, _, err := e.tokens.Issue(u.ID, u.Email, u.Role)
	require.NoError(e.t, err)
	return raw
}

// do sends a request through the router. body is encoded as JSON unless it is
// a string, which is sent as is.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(e.t, err)
		rd = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// errorBody decodes an error response.
func errorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	return decode[middleware.ErrorResponse](t, w)
}
