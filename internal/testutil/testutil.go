// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: loggers, a migrated SQLite
// database, and fixtures for users and templates.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Umar7799/course-project/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "forms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// TestMemoryDB creates an in-memory SQLite database for testing.
// Useful for tests that don't need persistent storage or migrations.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateUser inserts an active user with a throwaway password hash.
func CreateUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()
	now := time.Now()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		Name:         "Test " + email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaA",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// CreateTemplate inserts a template owned by authorID.
func CreateTemplate(t *testing.T, db *sql.DB, authorID int64, isPublic bool) store.Template {
	t.Helper()
	tmpl, err := store.New(db).CreateTemplate(context.Background(), store.CreateTemplateParams{
		Title:       "Customer survey",
		Description: "How did we do?",
		Topic:       "Other",
		IsPublic:    isPublic,
		AuthorID:    authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	return tmpl
}

// CreateQuestion appends a question of the given type to a template.
func CreateQuestion(t *testing.T, db *sql.DB, templateID int64, text, qtype string) store.Question {
	t.Helper()
	qn, err := store.New(db).CreateQuestion(context.Background(), store.CreateQuestionParams{
		TemplateID:  templateID,
		Text:        text,
		Type:        qtype,
		ShowInTable: true,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return qn
}

// SubmitForm stores a form by userID with one answer per value, keyed by question id.
func SubmitForm(t *testing.T, db *sql.DB, templateID, userID int64, values map[int64]string) (store.Form, []store.Answer) {
	t.Helper()
	ctx := context.Background()
	var form store.Form
	var answers []store.Answer
	err := store.RunInTx(ctx, db, func(q *store.Queries) error {
		var err error
		if form, err = q.CreateForm(ctx, templateID, userID, time.Now()); err != nil {
			return err
		}
		for qid, v := range values {
			a, err := q.CreateAnswer(ctx, store.CreateAnswerParams{FormID: form.ID, QuestionID: qid, Value: v, CreatedAt: time.Now()})
			if err != nil {
				return err
			}
			answers = append(answers, a)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	return form, answers
}
