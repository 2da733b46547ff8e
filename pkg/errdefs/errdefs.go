// Package errdefs defines the error taxonomy shared by the service layer.
// Every failure in this core is a local, recoverable outcome reported to the
// caller; nothing here is fatal to the process.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid marks validation failures rejected before any write. Safe
	// to retry after correcting input.
	ErrInvalid = errors.New("invalid")

	// ErrConflict marks state conflicts: duplicate pending requests,
	// transitions from a non-PENDING state, unique-constraint races. Not
	// retriable without re-checking current state.
	ErrConflict = errors.New("conflict")

	// ErrPermissionDenied marks authorization failures, from either the
	// role gate or the resource gate.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound marks references that do not resolve to a row.
	ErrNotFound = errors.New("not found")
)

// Invalidf returns a validation error with a formatted message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrInvalid, args)...)
}

// Conflictf returns a conflict error with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrConflict, args)...)
}

// PermissionDeniedf returns an authorization error with a formatted message.
func PermissionDeniedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrPermissionDenied, args)...)
}

// NotFoundf returns a not-found error with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

func prepend(err error, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, err)
	return append(out, args...)
}

// IsInvalid reports whether err is a validation error.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }

// IsConflict reports whether err is a state-conflict error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsPermissionDenied reports whether err is an authorization error.
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
