// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies pipeline failures.
type ErrorKind uint8

const (
	Unauthenticated ErrorKind = iota + 1
	Forbidden
	NotFound
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// HTTPStatus returns the response status for the kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Reason is the machine-readable cause of a denial, sent to clients as "reason".
type Reason string

const (
	ReasonMissingToken     Reason = "missing_token"
	ReasonExpiredToken     Reason = "expired_token"
	ReasonInvalidToken     Reason = "invalid_token"
	ReasonUserNotFound     Reason = "user_not_found"
	ReasonUserInactive     Reason = "user_inactive"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotVisible       Reason = "not_visible"
	ReasonInternal         Reason = "internal_error"
)

// NotFoundReason returns the reason used when a resource of kind k does not exist.
func NotFoundReason(k Kind) Reason {
	return Reason(k.String() + "_not_found")
}

var defaultMessages = map[Reason]string{
	ReasonMissingToken:     "Authentication required",
	ReasonExpiredToken:     "Token expired",
	ReasonInvalidToken:     "Invalid token",
	ReasonUserNotFound:     "User not found",
	ReasonUserInactive:     "Account is blocked",
	ReasonInsufficientRole: "Insufficient permissions",
	ReasonNotOwner:         "Not authorized",
	ReasonNotVisible:       "You do not have access to this template",
	ReasonInternal:         "Internal server error",
}

// Error is a pipeline failure. Message is safe to show to clients; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    ErrorKind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("access %s (%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("access %s (%s)", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, reason Reason) *Error {
	return &Error{Kind: kind, Reason: reason, Message: defaultMessages[reason]}
}

func notFound(k Kind) *Error {
	return &Error{
		Kind:    NotFound,
		Reason:  NotFoundReason(k),
		Message: capitalize(k.String()) + " not found",
	}
}

// NotFoundError returns the error reported when a resource of kind k does not
// exist. Route ids that are not numbers are reported the same way.
func NotFoundError(k Kind) *Error {
	return notFound(k)
}

func internal(err error) *Error {
	return &Error{Kind: Internal, Reason: ReasonInternal, Message: defaultMessages[ReasonInternal], Err: err}
}

// AsError extracts an *Error from err. Any other non-nil error becomes Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return internal(err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
