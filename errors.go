package boxrate

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("boxrate: not found")
	ErrAlreadyExists = errors.New("boxrate: already exists")
	ErrInvalidInput  = errors.New("boxrate: invalid input")

	// Rate errors
	ErrRateVersionNotFound     = errors.New("boxrate: rate version not found")
	ErrNoRateEffective         = errors.New("boxrate: no rate version effective on date")
	ErrVersionInPast           = errors.New("boxrate: rate version starts in the past")
	ErrVersionAlreadyEffective = errors.New("boxrate: rate version already effective")
	ErrVersionOverlap          = errors.New("boxrate: rate version overlaps another version")

	// Account errors
	ErrAccountNotFound   = errors.New("boxrate: account not found")
	ErrRecipientNotFound = errors.New("boxrate: recipient not found")
	ErrInvalidPeriod     = errors.New("boxrate: invalid renewal period")

	// Store errors
	ErrRepositoryUnavailable = errors.New("boxrate: repository unavailable")
	ErrStoreClosed           = errors.New("boxrate: store is closed")
	ErrMigrationFailed       = errors.New("boxrate: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("boxrate: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "boxrate: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("boxrate: %d errors occurred (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the wrapped errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns e if it holds any errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRateVersionNotFound) ||
		errors.Is(err, ErrNoRateEffective) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRecipientNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRepositoryUnavailable)
}

// unavailable wraps a store failure as ErrRepositoryUnavailable, keeping the
// cause in the chain. Not-found errors are returned as is.
func unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrRepositoryUnavailable) || IsNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrRepositoryUnavailable, op, err)
}
