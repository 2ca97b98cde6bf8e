// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Umar7799/course-project/internal/service"
	"github.com/Umar7799/course-project/internal/testutil"
)

func TestNew(t *testing.T) {
	logger := slog.Default()

	s := New(logger)
	require.NotNil(t, s)
	assert.NotNil(t, s.cron)
	assert.Same(t, logger, s.logger)
	assert.Empty(t, s.List())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	require.NoError(t, s.Add(Job{Name: "noop", Schedule: "@hourly", Run: func(context.Context) error { return nil }}))

	s.Start()
	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].NextRun.IsZero())
	s.Stop()
}

func TestScheduler_AddValidation(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	run := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Job{Schedule: "@daily", Run: run}), "missing name")
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "@daily"}), "missing run")
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "every now and then", Run: run}), "bad expression")

	require.NoError(t, s.Add(Job{Name: "x", Schedule: "*/5 * * * *", Run: run}))
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "@daily", Run: run}), "duplicate")
}

func TestScheduler_TriggerNow(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	var observed []string
	var mu sync.Mutex
	s.SetObserver(func(job string, err error) {
		mu.Lock()
		defer mu.Unlock()
		status := "ok"
		if err != nil {
			status = "error"
		}
		observed = append(observed, job+":"+status)
	})

	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "good", Schedule: "@daily", Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Add(Job{Name: "bad", Schedule: "@daily", Run: func(context.Context) error { return boom }}))

	require.NoError(t, s.TriggerNow(t.Context(), "good"))
	assert.ErrorIs(t, s.TriggerNow(t.Context(), "bad"), boom)
	assert.ErrorIs(t, s.TriggerNow(t.Context(), "missing"), ErrJobNotFound)

	assert.Equal(t, []string{"good:ok", "bad:error"}, observed)

	jobs := s.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "bad", jobs[0].Name)
	assert.Equal(t, "boom", jobs[0].LastError)
	assert.False(t, jobs[0].LastRun.IsZero())
	assert.Equal(t, "good", jobs[1].Name)
	assert.Empty(t, jobs[1].LastError)
}

type fakeRefresher struct {
	within time.Duration
	n      int
	err    error
}

func (f *fakeRefresher) RefreshExpiring(_ context.Context, within time.Duration) (int, error) {
	f.within = within
	return f.n, f.err
}

func TestCRMRefreshJob(t *testing.T) {
	r := &fakeRefresher{n: 2}
	job := CRMRefreshJob(r, 15*time.Minute, testutil.TestLoggerSilent())

	assert.Equal(t, JobCRMRefresh, job.Name)
	require.NoError(t, job.Run(t.Context()))
	assert.Equal(t, 15*time.Minute, r.within)

	r.err = errors.New("user 3: invalid_grant")
	assert.Error(t, job.Run(t.Context()))
}

func TestEventPurgeJob(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	events := service.NewEventService(db)
	require.NoError(t, events.LogSystemEvent(t.Context(), "info", "recent", nil, "", nil))
	_, err := db.Exec(`INSERT INTO events (level, category, message, metadata, created_at) VALUES ('info', 'system', 'old', '{}', ?)`,
		time.Now().Add(-40*24*time.Hour))
	require.NoError(t, err)

	s := New(testutil.TestLoggerSilent())
	require.NoError(t, s.Add(EventPurgeJob(events, 30, testutil.TestLoggerSilent())))
	require.NoError(t, s.TriggerNow(t.Context(), JobEventPurge))

	var messages []string
	rows, err := db.Query(`SELECT message FROM events ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m string
		require.NoError(t, rows.Scan(&m))
		messages = append(messages, m)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"recent"}, messages)
}
