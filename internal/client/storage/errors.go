package storage

import "errors"

// Common client storage errors
var (
	// ErrValidation indicates that a record was rejected before being written.
	// Never retried: the caller must fix the input.
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates an I/O or database failure
	ErrStorage = errors.New("storage failure")

	// ErrSessionNotFound indicates that no session exists (logged out)
	ErrSessionNotFound = errors.New("session not found")

	// ErrViolationNotFound indicates that record was not found
	ErrViolationNotFound = errors.New("violation not found")

	// ErrCredentialNotFound indicates that no offline profile exists for the email
	ErrCredentialNotFound = errors.New("offline credential not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
