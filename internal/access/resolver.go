// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Umar7799/course-project/internal/store"
)

// OwnershipStore is the read side of the store the pipeline needs.
// *store.Queries implements it.
type OwnershipStore interface {
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetTemplateVisibility(ctx context.Context, id int64) (store.TemplateVisibility, error)
	ListAllowedUserIDs(ctx context.Context, templateID int64) ([]int64, error)
	GetQuestionOwnership(ctx context.Context, id int64) (store.QuestionOwnership, error)
	GetFormOwnership(ctx context.Context, id int64) (store.FormOwnership, error)
	GetAnswerOwnership(ctx context.Context, id int64) (store.AnswerOwnership, error)
	GetCommentOwnership(ctx context.Context, id int64) (store.CommentOwnership, error)
}

// Resolver loads ownership facts. It makes no decisions.
type Resolver struct {
	store OwnershipStore
}

// NewResolver creates a Resolver over s.
func NewResolver(s OwnershipStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the Resource for (kind, id). The allow-list of a template is
// only loaded for reads of a private template. A missing row yields a NotFound
// *Error; any other store failure an Internal one.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id int64, op Operation) (Resource, error) {
	res := Resource{Kind: kind, ID: id}

	var err error
	switch kind {
	case KindTemplate:
		var v store.TemplateVisibility
		if v, err = r.store.GetTemplateVisibility(ctx, id); err == nil {
			res.OwnerID, res.TemplateID, res.IsPublic = v.AuthorID, v.TemplateID, v.IsPublic
			if op == OpRead && !v.IsPublic {
				res.AllowedUserIDs, err = r.store.ListAllowedUserIDs(ctx, id)
			}
		}
	case KindQuestion:
		var o store.QuestionOwnership
		if o, err = r.store.GetQuestionOwnership(ctx, id); err == nil {
			res.OwnerID, res.TemplateID = o.AuthorID, o.TemplateID
		}
	case KindForm:
		var o store.FormOwnership
		if o, err = r.store.GetFormOwnership(ctx, id); err == nil {
			res.OwnerID, res.TemplateID, res.ParentOwnerID = o.UserID, o.TemplateID, o.TemplateAuthorID
		}
	case KindAnswer:
		var o store.AnswerOwnership
		if o, err = r.store.GetAnswerOwnership(ctx, id); err == nil {
			res.OwnerID, res.ParentOwnerID = o.UserID, o.TemplateAuthorID
		}
	case KindComment:
		var o store.CommentOwnership
		if o, err = r.store.GetCommentOwnership(ctx, id); err == nil {
			res.OwnerID, res.TemplateID = o.UserID, o.TemplateID
		}
	default:
		return Resource{}, internal(fmt.Errorf("unknown resource kind %d", kind))
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resource{}, notFound(kind)
		}
		return Resource{}, internal(fmt.Errorf("resolving %s %d: %w", kind, id, err))
	}
	return res, nil
}
