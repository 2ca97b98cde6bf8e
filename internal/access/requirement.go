// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"fmt"
	"slices"
	"strings"
)

type requirementKind uint8

const (
	reqPublic requirementKind = iota
	reqAuthenticated
	reqRoleIn
	reqOwnerOrRole
)

// DefaultParam is the route parameter that carries the target resource id.
const DefaultParam = "id"

// Requirement is what a route demands of its caller. Build one with Public,
// Authenticated, RoleIn or OwnerOrRole.
type Requirement struct {
	kind        requirementKind
	roles       []string
	resource    Kind
	op          Operation
	param       string
	denyMessage string
}

// Public routes skip the pipeline entirely.
func Public() Requirement {
	return Requirement{kind: reqPublic}
}

// Authenticated admits any active user with a valid token.
func Authenticated() Requirement {
	return Requirement{kind: reqAuthenticated}
}

// RoleIn admits active users whose role is one of roles.
func RoleIn(roles ...string) Requirement {
	return Requirement{kind: reqRoleIn, roles: slices.Clone(roles)}
}

// OwnerOrRole admits callers the engine allows for op on the resource of kind
// identified by the route's id parameter. Holders of one of roles bypass ownership.
func OwnerOrRole(kind Kind, op Operation, roles ...string) Requirement {
	return Requirement{
		kind:     reqOwnerOrRole,
		roles:    slices.Clone(roles),
		resource: kind,
		op:       op,
		param:    DefaultParam,
	}
}

// Param returns a copy that reads the resource id from the named route parameter.
func (r Requirement) Param(name string) Requirement {
	r.param = name
	return r
}

// WithDenyMessage returns a copy whose Forbidden errors carry msg.
func (r Requirement) WithDenyMessage(msg string) Requirement {
	r.denyMessage = msg
	return r
}

// IsPublic reports whether the route skips the pipeline.
func (r Requirement) IsPublic() bool { return r.kind == reqPublic }

// TargetsResource reports whether the route needs a resource id.
func (r Requirement) TargetsResource() bool { return r.kind == reqOwnerOrRole }

// Resource returns the declared resource kind, zero unless TargetsResource.
func (r Requirement) Resource() Kind { return r.resource }

// Operation returns the declared operation, zero unless TargetsResource.
func (r Requirement) Operation() Operation { return r.op }

// ParamName returns the route parameter holding the resource id.
func (r Requirement) ParamName() string { return r.param }

// Roles returns the role set of RoleIn and OwnerOrRole requirements.
func (r Requirement) Roles() []string { return slices.Clone(r.roles) }

func (r Requirement) String() string {
	switch r.kind {
	case reqPublic:
		return "Public"
	case reqAuthenticated:
		return "Authenticated"
	case reqRoleIn:
		return fmt.Sprintf("RoleIn(%s)", strings.Join(r.roles, ","))
	case reqOwnerOrRole:
		return fmt.Sprintf("OwnerOrRole(%s:%s;%s)", r.resource, r.op, strings.Join(r.roles, ","))
	}
	return "Unknown"
}

// forbid builds a Forbidden error, applying the route's deny message.
func (r Requirement) forbid(reason Reason) *Error {
	e := newError(Forbidden, reason)
	if r.denyMessage != "" && reason != ReasonInsufficientRole {
		e.Message = r.denyMessage
	}
	return e
}
