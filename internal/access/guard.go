// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Umar7799/course-project/internal/auth"
)

// TokenVerifier verifies bearer tokens. *auth.Tokens implements it.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// DecisionObserver is told about every resource decision the engine makes.
type DecisionObserver interface {
	ObserveDecision(kind Kind, op Operation, d Decision)
}

// Guard runs the access pipeline for one request.
type Guard struct {
	tokens   TokenVerifier
	store    OwnershipStore
	resolver *Resolver
	observer DecisionObserver
}

// NewGuard creates a Guard.
func NewGuard(tokens TokenVerifier, s OwnershipStore) *Guard {
	return &Guard{tokens: tokens, store: s, resolver: NewResolver(s)}
}

// SetObserver registers o for resource decisions. Call before serving requests.
func (g *Guard) SetObserver(o DecisionObserver) {
	g.observer = o
}

// Authorize runs the pipeline for req. id is the parsed route parameter and is
// only read when req targets a resource. Public requirements return the zero
// Principal without looking at the token.
func (g *Guard) Authorize(ctx context.Context, rawToken string, req Requirement, id int64) (Principal, error) {
	if req.IsPublic() {
		return Principal{}, nil
	}

	p, err := g.Identify(ctx, rawToken)
	if err != nil {
		return Principal{}, err
	}

	switch req.kind {
	case reqRoleIn:
		if !p.HasRole(req.roles...) {
			return p, req.forbid(ReasonInsufficientRole)
		}
	case reqOwnerOrRole:
		if err := g.check(ctx, p, req, id); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Identify verifies the token and resolves its subject to an active user.
func (g *Guard) Identify(ctx context.Context, rawToken string) (Principal, error) {
	claims, err := g.tokens.Verify(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenMissing):
			return Principal{}, newError(Unauthenticated, ReasonMissingToken)
		case errors.Is(err, auth.ErrTokenExpired):
			return Principal{}, newError(Unauthenticated, ReasonExpiredToken)
		}
		e := newError(Unauthenticated, ReasonInvalidToken)
		e.Err = err
		return Principal{}, e
	}

	u, err := g.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Principal{}, newError(Unauthenticated, ReasonUserNotFound)
		}
		return Principal{}, internal(fmt.Errorf("loading user %d: %w", claims.UserID, err))
	}
	if !u.IsActive {
		return Principal{}, newError(Unauthenticated, ReasonUserInactive)
	}

	// The live role wins over the one in the token so demotions apply at once.
	return Principal{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
}

// Check decides whether p may perform op on the resource (kind, id). Handlers use
// it for resources named in the request body rather than the route.
func (g *Guard) Check(ctx context.Context, p Principal, kind Kind, op Operation, id int64, overrideRoles ...string) error {
	return g.check(ctx, p, OwnerOrRole(kind, op, overrideRoles...), id)
}

func (g *Guard) check(ctx context.Context, p Principal, req Requirement, id int64) error {
	res, err := g.resolver.Resolve(ctx, req.resource, id, req.op)
	if err != nil {
		return err
	}
	d := Decide(p, res, req.op, req.roles)
	if g.observer != nil {
		g.observer.ObserveDecision(req.resource, req.op, d)
	}
	if !d.Allowed {
		return req.forbid(d.Reason)
	}
	return nil
}
