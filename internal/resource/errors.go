package resource

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes load errors.
type ErrorCode string

const (
	// CodeUnknownResource indicates an id with no registered resolver.
	// Unknown resources are a programming error: they are never retried
	// and never substituted with a fallback.
	CodeUnknownResource ErrorCode = "UNKNOWN_RESOURCE"

	// CodeResolverFailure indicates a resolver that returned an error.
	// Resolver failures are transient from the orchestrator's point of
	// view and are subject to fallback substitution or bounded retry.
	CodeResolverFailure ErrorCode = "RESOLVER_FAILURE"
)

// LoadError is a structured load failure with enough context for
// diagnostics. Resolver errors themselves are propagated unwrapped so
// upstream error reporting sees the true root cause; LoadError is used
// where this package is the origin of the failure.
type LoadError struct {
	Code     ErrorCode
	Kind     Kind
	Resource string
	Err      error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %q: %v", e.Code, e.Kind, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s: %s %q", e.Code, e.Kind, e.Resource)
}

// Unwrap exposes the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewUnknownResource creates a LoadError for an id with no resolver.
func NewUnknownResource(kind Kind, id string) *LoadError {
	return &LoadError{Code: CodeUnknownResource, Kind: kind, Resource: id}
}

// IsUnknownResource reports whether err is an unknown-resource failure.
// Uses errors.As to handle wrapped errors.
func IsUnknownResource(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == CodeUnknownResource
	}
	return false
}
