// Package apperrors defines the error taxonomy shared by the reconciliation
// core. Errors are constructed inside the core with a kind tag and converted
// to transport status codes only at the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary handling.
type Kind string

const (
	// KindValidation marks malformed or missing input. Not retryable
	// without correcting the request.
	KindValidation Kind = "validation"

	// KindConflict marks a duplicate statement for a vendor/period.
	// Carries the id of the already-committed statement.
	KindConflict Kind = "conflict"

	// KindNotFound marks an unknown line or statement.
	KindNotFound Kind = "not_found"

	// KindCollaboratorUnavailable marks a failed or timed-out assisted
	// match call. Line state is unchanged and the call is safe to retry.
	KindCollaboratorUnavailable Kind = "collaborator_unavailable"

	// KindPersistence marks a transaction failure. Ingestion rolls back
	// fully, so the whole import is safe to retry.
	KindPersistence Kind = "persistence"
)

// Error is the tagged error type propagated through the core.
type Error struct {
	Kind Kind
	// Code is a stable machine-readable reason, e.g. "NO_LINES".
	Code    string
	Message string
	// ExistingID is set for conflicts: the id of the statement that
	// already occupies the (vendor, period) key.
	ExistingID int64
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation creates a validation error with a stable reason code.
func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// Conflict creates a duplicate-statement error referencing the committed row.
func Conflict(existingID int64, msg string) *Error {
	return &Error{Kind: KindConflict, Code: "DUPLICATE_STATEMENT", Message: msg, ExistingID: existingID}
}

// NotFound creates an unknown-entity error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: msg}
}

// CollaboratorUnavailable wraps a failed assisted-match call.
func CollaboratorUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindCollaboratorUnavailable, Code: "COLLABORATOR_UNAVAILABLE", Message: msg, cause: cause}
}

// Persistence wraps a storage failure.
func Persistence(msg string, cause error) *Error {
	return &Error{Kind: KindPersistence, Code: "PERSISTENCE", Message: msg, cause: cause}
}

// KindOf extracts the kind from an error chain. Unclassified errors
// report KindPersistence so the boundary treats them as internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindPersistence
}

// As unwraps err to an *Error if one is present in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
