// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested course was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrSourceUnavailable indicates a backing data file is missing or unreadable.
	// Loaders log it and degrade to an empty collection; it is never returned
	// from a query.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates the caller provided an invalid query shape.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError represents input validation failures.
// It wraps ErrInvalidInput so errors.Is(err, ErrInvalidInput) holds.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SourceError describes a failure to read one of the delimited-text or JSON
// sources. Source is the logical name ("evaluation", "catalog", "assessment").
type SourceError struct {
	Source string
	Path   string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error (source=%s, path=%s): %v", e.Source, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new source error.
func NewSourceError(source, path string, err error) *SourceError {
	return &SourceError{
		Source: source,
		Path:   path,
		Err:    err,
	}
}

// OpError records which operation failed and the message a caller may see.
// Op is "<package>/<operation>", e.g. "gems/find_gems" or "datasync/sync".
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WithOp wraps err in an OpError. A nil err stays nil.
func WithOp(op string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Message: message, Err: err}
}

// UserMessage returns text safe to put in an API response. The outermost
// OpError message wins, then a ValidationError message, then a fixed phrase
// per error category. Anything else is "internal error".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var opErr *OpError
	if errors.As(err, &opErr) && opErr.Message != "" {
		return opErr.Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	switch {
	case IsNotFound(err):
		return "course not found"
	case IsRateLimitExceeded(err):
		return ErrRateLimitExceeded.Error()
	case IsInvalidInput(err):
		return ErrInvalidInput.Error()
	case IsSourceUnavailable(err):
		return ErrSourceUnavailable.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request canceled"
	}
	return "internal error"
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSourceUnavailable reports whether err is or wraps ErrSourceUnavailable.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
