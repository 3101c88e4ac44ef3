package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors shared across services. Handlers map these onto HTTP codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrDuplicateReview = errors.New("you have already reviewed this title")
	ErrScoreTooLow     = errors.New("score must be at least 1")
	ErrScoreTooHigh    = errors.New("score must be at most 10")
	ErrInvalidCode     = errors.New("invalid confirmation code")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMailDelivery    = errors.New("failed to deliver confirmation email")
)

// ValidationError aggregates field-level failures so a reply can report every
// invalid field at once instead of stopping at the first one.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a failure message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
