// Package errs provides the unified error type used across all of dbfordevs.
//
// Every subsystem (database drivers, connection manager, export store, server)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// driver-specific packages.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.KindQueryFailed, "statement 2 failed", pgErr)
//
//	// In a handler — check error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL, SQLite, MinIO) map their native errors to
// one of these kinds, giving callers a single consistent API.
type Kind int

const (
	KindUnknown             Kind = iota
	KindNotFound                 // no such connection, table, or object
	KindConnectionFailed         // cannot open or use a pool (bad credentials, unreachable host)
	KindTimeout                  // context deadline / cancellation
	KindQueryFailed              // a submitted statement or catalog lookup failed
	KindInvalidConfig            // missing or malformed configuration (e.g. no file path for SQLite)
	KindInvalidInput             // malformed caller input (empty mutation, bad object key)
	KindPermissionDenied         // the backend rejected the credentials for this operation
	KindUnsupportedDialect       // a dialect with no driver implementation
	KindContractViolation        // a pool reference of the wrong dialect was handed to a driver
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConnectionFailed:
		return "connection_failed"
	case KindTimeout:
		return "timeout"
	case KindQueryFailed:
		return "query_failed"
	case KindInvalidConfig:
		return "invalid_config"
	case KindInvalidInput:
		return "invalid_input"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnsupportedDialect:
		return "unsupported_dialect"
	case KindContractViolation:
		return "contract_violation"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbfordevs subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
// The native diagnostic is never discarded — it survives in Cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error // original driver-level error, preserved for diagnosis
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Wrapf creates an *Error with a formatted message and an underlying cause.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a missing connection, table, or object.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == KindConnectionFailed
}

// IsQueryFailed reports whether err is a SQL execution or catalog lookup failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == KindQueryFailed
}

// IsInvalidConfig reports whether err was caused by bad configuration.
func IsInvalidConfig(err error) bool {
	return KindOf(err) == KindInvalidConfig
}

// IsInvalidInput reports whether err was caused by malformed caller input.
func IsInvalidInput(err error) bool {
	return KindOf(err) == KindInvalidInput
}

// IsPermissionDenied reports whether the backend rejected the credentials.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == KindPermissionDenied
}

// IsUnsupportedDialect reports whether err names a dialect with no driver.
func IsUnsupportedDialect(err error) bool {
	return KindOf(err) == KindUnsupportedDialect
}

// IsContractViolation reports whether err was caused by handing a driver a
// pool reference of the wrong dialect.
func IsContractViolation(err error) bool {
	return KindOf(err) == KindContractViolation
}

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
