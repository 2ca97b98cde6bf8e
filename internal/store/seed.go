// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Umar7799/course-project/internal/auth"
)

const (
	// DefaultAdminName is the display name of the seeded admin.
	DefaultAdminName = "Administrator"
	roleAdmin        = "ADMIN"
)

// SeedAdmin creates an active admin with the given credentials unless a user
// with that email already exists.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         roleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "category", "user", "id", user.ID, "email", user.Email)
	return nil
}
