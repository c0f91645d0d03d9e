// SPDX-License-Identifier: MIT

// Package core defines the error taxonomy shared by every fallible call
// in the control plane. Callers classify failures by Kind; the HTTP
// adapter maps kinds to status codes through a single table.
package core

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable error class.
type Kind string

const (
	KindInvalidArgument       Kind = "invalid_argument"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindAdmissionDenied       Kind = "admission_denied"
	KindPreconditionFailed    Kind = "precondition_failed"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindTransientIO           Kind = "transient_io"
	// KindInternal marks programmer errors. By contract it is never
	// returned to a caller from a reachable branch.
	KindInternal Kind = "internal"
)

// Error carries a kind, a human-readable message and optional detail
// payload (e.g. admission cap and current count).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is matches two core errors by kind so that errors.Is(err, &Error{Kind: k})
// and the kind sentinels below both work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// reported as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgumentf(format string, args ...any) *Error {
	return newf(KindInvalidArgument, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// AdmissionDenied carries the cap and current count as a hint payload.
func AdmissionDenied(capacity, current int) *Error {
	e := newf(KindAdmissionDenied, "instance limit reached (%d of %d running)", current, capacity)
	e.Details = map[string]any{"max_running_instances": capacity, "current": current}
	return e
}

func PreconditionFailedf(format string, args ...any) *Error {
	return newf(KindPreconditionFailed, format, args...)
}

func DependencyUnavailablef(format string, args ...any) *Error {
	return newf(KindDependencyUnavailable, format, args...)
}

func TransientIOf(format string, args ...any) *Error {
	return newf(KindTransientIO, format, args...)
}

func Internalf(format string, args ...any) *Error {
	return newf(KindInternal, format, args...)
}

// Wrap attaches a cause to a classified error.
func Wrap(k Kind, message string, cause error) *Error {
	return &Error{Kind: k, Message: message, wrapped: cause}
}
