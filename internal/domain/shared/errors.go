// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrInvalidFormat   = errors.New("invalid format")

	// Check-in precondition errors
	ErrMembershipExpired   = errors.New("membership expired")
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Concurrency errors
	ErrConflict       = errors.New("transaction conflict")
	ErrOptimisticLock = errors.New("optimistic lock failure")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")

	// Everything else
	ErrInternal = errors.New("internal error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "member", "attendance", "practice"
	Op      string // Operation that failed, e.g., "CheckIn", "Find"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s.%s: %v", e.Domain, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
	}
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an infrastructure error with domain context. The kind of
// a wrapped DomainError is preserved so the classification helpers keep
// matching; anything else is treated as internal.
func WrapError(domain, op string, err error) *DomainError {
	kind := ErrInternal
	var de *DomainError
	if errors.As(err, &de) && de.Kind != nil {
		kind = de.Kind
	}
	return &DomainError{
		Domain: domain,
		Op:     op,
		Kind:   kind,
		Err:    err,
	}
}

// Member domain errors
var (
	ErrMemberNotFound      = NewDomainError("member", "Find", ErrNotFound, "member not found")
	ErrMemberAlreadyExists = NewDomainError("member", "Create", ErrAlreadyExists, "member already exists")
	ErrInvalidMemberID     = NewDomainError("member", "Validate", ErrInvalidID, "invalid member ID")
	ErrInvalidPhoneDigits  = NewDomainError("member", "Lookup", ErrInvalidArgument, "phone lookup requires exactly 4 digits")
	ErrNoCredits           = NewDomainError("member", "CheckIn", ErrInsufficientCredits, "no remaining credits")
)

// Attendance domain errors
var (
	ErrAttendanceNotFound = NewDomainError("attendance", "Find", ErrNotFound, "attendance record not found")
	ErrInvalidBranch      = NewDomainError("attendance", "Validate", ErrEmptyValue, "branch is required")
	ErrInvalidClassTitle  = NewDomainError("attendance", "Validate", ErrEmptyValue, "class title is required")
)

// Practice event domain errors
var (
	ErrPracticeEventNotFound = NewDomainError("practice", "Find", ErrNotFound, "practice event not found")
	ErrUnknownEventType      = NewDomainError("practice", "Validate", ErrInvalidFormat, "unknown practice event type")
)

// Instructor domain errors
var (
	ErrInstructorNotFound = NewDomainError("instructor", "Find", ErrNotFound, "instructor not found")
	ErrInvalidPIN         = NewDomainError("instructor", "Verify", ErrUnauthorized, "name or PIN mismatch")
)

// Notification domain errors
var (
	ErrNotificationFailed   = NewDomainError("notification", "Send", ErrExternalService, "failed to send notification")
	ErrTooManyNotifications = NewDomainError("notification", "Send", ErrRateLimited, "too many notifications")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidArgument checks if the error is a validation error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsDenial checks if the error is a check-in denial (expired membership or
// exhausted credits) rather than a system failure. Denials are still recorded
// in the attendance log.
func IsDenial(err error) bool {
	return errors.Is(err, ErrMembershipExpired) ||
		errors.Is(err, ErrInsufficientCredits)
}

// IsConflict checks if the error is a transaction conflict after retries.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrOptimisticLock)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConflict)
}
