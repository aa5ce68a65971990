package types

import (
	"errors"
	"fmt"
)

// ErrorClass buckets every failure the engine can surface. All failures are
// synchronous, named, and leave persisted state untouched; retry policy
// belongs to the caller.
type ErrorClass string

const (
	// ErrClassAuthorization - caller is not permitted to perform the action.
	ErrClassAuthorization ErrorClass = "authorization"
	// ErrClassValidation - malformed or missing input.
	ErrClassValidation ErrorClass = "validation"
	// ErrClassStateConflict - action attempted in the wrong market status.
	ErrClassStateConflict ErrorClass = "state_conflict"
	// ErrClassNotFound - no record for the requested key.
	ErrClassNotFound ErrorClass = "not_found"
	// ErrClassUpstream - a collaborator (oracle) failed to answer.
	ErrClassUpstream ErrorClass = "upstream"
)

// MarketError is a classified failure with a human-readable reason.
type MarketError struct {
	Class  ErrorClass
	Reason string
}

func (e *MarketError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Reason)
}

// ErrUnauthorized creates an authorization error.
func ErrUnauthorized(format string, args ...any) error {
	return &MarketError{Class: ErrClassAuthorization, Reason: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a validation error.
func ErrValidation(format string, args ...any) error {
	return &MarketError{Class: ErrClassValidation, Reason: fmt.Sprintf(format, args...)}
}

// ErrStateConflict creates a state-conflict error.
func ErrStateConflict(format string, args ...any) error {
	return &MarketError{Class: ErrClassStateConflict, Reason: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a not-found error.
func ErrNotFound(format string, args ...any) error {
	return &MarketError{Class: ErrClassNotFound, Reason: fmt.Sprintf(format, args...)}
}

// ErrUpstream creates an upstream-failure error.
func ErrUpstream(format string, args ...any) error {
	return &MarketError{Class: ErrClassUpstream, Reason: fmt.Sprintf(format, args...)}
}

// ClassOf extracts the ErrorClass from err, unwrapping as needed.
// Returns an empty class for unclassified errors.
func ClassOf(err error) ErrorClass {
	var me *MarketError
	if errors.As(err, &me) {
		return me.Class
	}
	return ""
}
