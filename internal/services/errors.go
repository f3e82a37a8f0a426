package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fintelis/fintelis-api/internal/repository"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state transition")
	ErrDuplicate    = errors.New("duplicate record")
	ErrSystem       = errors.New("internal error")
)

// ValidationError carries every violated field, not just the first one
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Invalid creates a ValidationError for a single field
func Invalid(field, reason string) *ValidationError {
	v := NewValidationError()
	v.Add(field, reason)
	return v
}

// Add records a violation on field
func (e *ValidationError) Add(field, reason string) {
	e.Fields[field] = append(e.Fields[field], reason)
}

// HasErrors reports whether any field was added
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it has violations, nil otherwise
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the entity that does not exist or is not visible
type NotFoundError struct {
	Entity string
	Field  string
}

func (e *NotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s not found (%s)", e.Entity, e.Field)
	}
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports a violated uniqueness rule
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrDuplicate
}

// SystemError wraps storage and lock failures. Its message is safe to show.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return e.Op + ": " + ErrSystem.Error()
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

func (e *SystemError) Is(target error) bool {
	return target == ErrSystem
}

// StateError reports an operation not allowed in the entity's current state
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// notFound builds a NotFoundError
func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// classify turns a storage error into the service taxonomy. Errors that
// already belong to it pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDuplicate), errors.Is(err, ErrInvalidState), errors.Is(err, ErrSystem):
		return err
	case repository.IsNotFound(err):
		return &NotFoundError{Entity: op}
	case repository.IsDuplicateKeyError(err):
		return &ConflictError{Message: op + ": record already exists", Err: err}
	default:
		return &SystemError{Op: op, Err: err}
	}
}
