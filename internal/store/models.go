// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

type Template struct {
	ID          int64
	Title       string
	Description string
	Topic       string
	ImageURL    string
	IsPublic    bool
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []string
}

// TemplateSummary is a template row joined with author name and social counters,
// used by the listing endpoints.
type TemplateSummary struct {
	Template
	AuthorName   string
	LikeCount    int64
	CommentCount int64
	FormCount    int64
}

type Question struct {
	ID          int64
	TemplateID  int64
	Text        string
	Description sql.NullString
	Type        string
	ShowInTable bool
	Position    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Form struct {
	ID         int64
	TemplateID int64
	UserID     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FormSummary is a form joined with its template title and submitter.
type FormSummary struct {
	Form
	TemplateTitle string
	UserName      string
	UserEmail     string
}

type Answer struct {
	ID         int64
	FormID     int64
	QuestionID int64
	Value      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Comment struct {
	ID         int64
	TemplateID int64
	UserID     int64
	UserName   string
	Content    string
	CreatedAt  time.Time
}

type Event struct {
	ID         int64
	Level      string
	Category   string
	Message    string
	UserID     sql.NullInt64
	Metadata   string
	IPAddress  string
	RequestURL string
	CreatedAt  time.Time
}

type CRMCredential struct {
	UserID       int64
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       sql.NullTime
	InstanceURL  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TagCount is a tag with the number of public templates carrying it.
type TagCount struct {
	Tag   string
	Count int64
}

// TemplateVisibility is the ownership projection of a template: its owner and
// the sharing state read by the access-control core.
type TemplateVisibility struct {
	TemplateID int64
	AuthorID   int64
	IsPublic   bool
}

// QuestionOwnership resolves a question to its parent template's owner.
type QuestionOwnership struct {
	QuestionID int64
	TemplateID int64
	AuthorID   int64
}

// FormOwnership is the submitter of a form and the owner of its template.
type FormOwnership struct {
	FormID           int64
	TemplateID       int64
	UserID           int64
	TemplateAuthorID int64
}

// AnswerOwnership resolves an answer through its form to the submitting user.
type AnswerOwnership struct {
	AnswerID         int64
	FormID           int64
	QuestionID       int64
	UserID           int64
	TemplateAuthorID int64
}

// CommentOwnership is the author of a comment.
type CommentOwnership struct {
	CommentID  int64
	TemplateID int64
	UserID     int64
}
