package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInputInvalid           = errors.New("input invalid")
	ErrNameCollision          = errors.New("name collision")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrEmbeddingUnavailable   = errors.New("embedding unavailable")
	ErrRetrievalUnavailable   = errors.New("retrieval unavailable")
	ErrGenerationUnavailable  = errors.New("generation unavailable")
	ErrAnalysisUnavailable    = errors.New("analysis unavailable")
	ErrAnalysisMalformed      = errors.New("analysis malformed")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

// ValidationError reports a rejected input field. It matches ErrInputInvalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool { return target == ErrInputInvalid }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// StoreErrorKind distinguishes remediation paths for store failures.
type StoreErrorKind string

const (
	StoreOffline          StoreErrorKind = "offline"
	StorePermissionDenied StoreErrorKind = "permission"
	StoreNotProvisioned   StoreErrorKind = "not_provisioned"
)

// StoreError wraps a backend failure. It matches ErrStoreUnavailable.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// NewStoreError creates a store error of the given kind.
func NewStoreError(kind StoreErrorKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// StoreErrorKindOf returns the kind of a wrapped StoreError, or "" when err is not one.
func StoreErrorKindOf(err error) StoreErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsFatal reports errors that must abort the current operation and never be degraded.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNameCollision) || errors.Is(err, ErrConcurrentModification)
}
