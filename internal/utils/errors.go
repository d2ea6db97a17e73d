package utils

import (
	"errors"
	"fmt"
)

// ValidationError represents an error occurring during data validation.
// It always rejects the single request that carried the bad input.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FetchError represents a network or remote failure while pulling content
// from a source or data provider. Fetch errors are recorded per source in
// the run summary and never abort a batch.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps a remote failure with the source it came from.
func NewFetchError(source string, err error) error {
	return &FetchError{Source: source, Err: err}
}

// IsFetchError reports whether err is a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ExtractionError represents the analysis capability being unreachable or
// returning unparseable output. Treated as "zero signals from this item".
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError wraps an analysis-capability failure.
func NewExtractionError(err error) error {
	return &ExtractionError{Err: err}
}

// IsExtractionError reports whether err is an ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// NotFoundError represents an operation on an unknown id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError for a resource/id pair.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// ConflictError is reserved for uniqueness constraints. Source names are
// deliberately not unique today, so this only fires on duplicate series ids.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictErrorf creates a ConflictError with a formatted message.
func NewConflictErrorf(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsConflictError reports whether err is a ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
