// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Umar7799/course-project/internal/store"
)

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{
			name: "admin role",
			role: RoleAdmin,
			want: true,
		},
		{
			name: "user role",
			role: RoleUser,
			want: false,
		},
		{
			name: "empty role",
			role: "",
			want: false,
		},
		{
			name: "lowercase admin",
			role: "admin",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for role, want := range map[string]bool{"USER": true, "ADMIN": true, "EDITOR": false, "": false} {
		if got := IsValidRole(role); got != want {
			t.Errorf("IsValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestUserFromStore(t *testing.T) {
	login := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := UserFromStore(store.User{
		ID:           7,
		Email:        "a@example.com",
		PasswordHash: "secret",
		Role:         RoleUser,
		IsActive:     true,
		LastLoginAt:  sql.NullTime{Time: login, Valid: true},
	})

	if u.ID != 7 || u.Email != "a@example.com" || !u.IsActive {
		t.Errorf("UserFromStore = %+v", u)
	}
	if u.LastLoginAt == nil || !u.LastLoginAt.Equal(login) {
		t.Errorf("LastLoginAt = %v, want %v", u.LastLoginAt, login)
	}

	if UserFromStore(store.User{}).LastLoginAt != nil {
		t.Error("LastLoginAt should be nil when never logged in")
	}
}
