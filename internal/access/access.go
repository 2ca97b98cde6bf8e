// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package access decides who may read or manage which resource.
//
// A request passes through a fixed pipeline: the bearer token is verified, its
// subject is resolved to a live user, the route's role set is checked, and when
// the route targets a resource its ownership facts are loaded and handed to the
// decision engine. Every step fails with an *Error that names the reason.
package access

import (
	"slices"

	"github.com/Umar7799/course-project/internal/model"
)

// Kind is the type of resource a route operates on. Routes declare it at
// registration; it is never inferred from the request path.
type Kind uint8

const (
	KindTemplate Kind = iota + 1
	KindQuestion
	KindForm
	KindAnswer
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindQuestion:
		return "question"
	case KindForm:
		return "form"
	case KindAnswer:
		return "answer"
	case KindComment:
		return "comment"
	}
	return "unknown"
}

// Operation is the kind of access requested on a resource.
type Operation uint8

const (
	// OpRead is viewing a resource.
	OpRead Operation = iota + 1
	// OpManage is owner-level access: edits, deletes, and owner-only views such
	// as the submissions of a template.
	OpManage
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpManage:
		return "manage"
	}
	return "unknown"
}

// Principal is the authenticated caller, built from the live user row.
type Principal struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// HasRole reports whether the principal's role is one of roles.
func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

// Resource holds the ownership facts the engine decides on.
type Resource struct {
	Kind Kind
	ID   int64
	// OwnerID is the template author for templates and questions, and the
	// submitting or writing user for forms, answers and comments.
	OwnerID int64
	// TemplateID is the template the resource belongs to (itself for templates).
	TemplateID int64
	// ParentOwnerID is the template author for forms and answers, zero otherwise.
	ParentOwnerID int64
	// IsPublic and AllowedUserIDs are only set for templates.
	IsPublic       bool
	AllowedUserIDs []int64
}
