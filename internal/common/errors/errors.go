// Package errors provides the structured error taxonomy for the
// retrieval pipeline. Every failure carries a class that drives the
// fallback decision table and the HTTP status mapping; callers never
// inspect error text.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Error Classes
// ==========================

// ErrorClass partitions failures by how the pipeline reacts to them.
type ErrorClass string

const (
	// ClassValidation: bad caller input. Fatal to the request, no
	// store or network access is attempted.
	ClassValidation ErrorClass = "VALIDATION"

	// ClassRateLimited: provider rejected the request for rate/quota
	// reasons. Retried via fallback; surfaced as try-again-later when
	// attempts are exhausted.
	ClassRateLimited ErrorClass = "RATE_LIMITED"

	// ClassTransient: provider overload / server error / unreachable.
	// Retried via fallback.
	ClassTransient ErrorClass = "TRANSIENT"

	// ClassMalformed: provider returned content that cannot be parsed
	// into the itinerary shape. Never retried, fails the request.
	ClassMalformed ErrorClass = "MALFORMED_RESPONSE"

	// ClassStore: cache or stats store unreachable. Always recovered
	// locally; never surfaced to the caller.
	ClassStore ErrorClass = "STORE_UNAVAILABLE"

	// ClassInternal: anything else.
	ClassInternal ErrorClass = "INTERNAL"
)

// ==========================
// 2. Standard Error Type
// ==========================

// StandardError represents a structured application error.
type StandardError struct {
	Class     ErrorClass `json:"class"`
	Message   string     `json:"message"`
	Details   string     `json:"details,omitempty"`
	Retryable bool       `json:"retryable"`
	Timestamp time.Time  `json:"timestamp"`
	Cause     error      `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Class, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// ==========================
// 3. Constructors
// ==========================

// NewValidationError creates a non-retryable bad-input error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Class:     ClassValidation,
		Message:   "Invalid request input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a retryable rate-limit/quota error.
func NewRateLimitedError(provider string, cause error) *StandardError {
	return &StandardError{
		Class:     ClassRateLimited,
		Message:   fmt.Sprintf("Provider '%s' rate limited", provider),
		Details:   detailOf(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewProviderUnavailableError creates a retryable overload/server error.
func NewProviderUnavailableError(provider string, cause error) *StandardError {
	return &StandardError{
		Class:     ClassTransient,
		Message:   fmt.Sprintf("Provider '%s' unavailable", provider),
		Details:   detailOf(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewMalformedResponseError creates a non-retryable parse failure.
func NewMalformedResponseError(provider string, cause error) *StandardError {
	return &StandardError{
		Class:     ClassMalformed,
		Message:   fmt.Sprintf("Provider '%s' returned an unparsable response", provider),
		Details:   detailOf(cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewStoreUnavailableError creates a store error that is absorbed
// internally and never reaches the caller.
func NewStoreUnavailableError(op string, cause error) *StandardError {
	return &StandardError{
		Class:     ClassStore,
		Message:   fmt.Sprintf("Store operation '%s' failed", op),
		Details:   detailOf(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewInternalError creates a generic non-retryable failure.
func NewInternalError(message string, cause error) *StandardError {
	return &StandardError{
		Class:     ClassInternal,
		Message:   message,
		Details:   detailOf(cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Classification Helpers
// ==========================

// ClassOf returns the class of err, or ClassInternal when err is not a
// StandardError.
func ClassOf(err error) ErrorClass {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Class
	}
	return ClassInternal
}

// IsRetryable reports whether the fallback controller may advance to
// the next provider after err.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// IsRateLimited reports whether err is a rate-limit/quota failure.
func IsRateLimited(err error) bool {
	return ClassOf(err) == ClassRateLimited
}

// IsMalformed reports whether err is an unparsable-response failure.
func IsMalformed(err error) bool {
	return ClassOf(err) == ClassMalformed
}

// IsValidation reports whether err is a bad-input failure.
func IsValidation(err error) bool {
	return ClassOf(err) == ClassValidation
}
