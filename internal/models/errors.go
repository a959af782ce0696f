// -----------------------------------------------------------------------
// Domain errors - error taxonomy shared by the orchestration services
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrJobNotFound is returned when a job ID is unknown to the engine.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTypeNotFound is returned when a job type has no discovered definition.
	ErrJobTypeNotFound = errors.New("job type not found")

	// ErrTemplateNotFound is returned when a template ID does not resolve to a
	// job carrying the template label.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrParameterSetNotFound is returned when an external parameter set is missing.
	ErrParameterSetNotFound = errors.New("parameter set not found")

	// ErrProgressTimeout is returned when batch progress aggregation exceeds its
	// time box. Callers must treat this as "progress temporarily unknown".
	ErrProgressTimeout = errors.New("batch progress timed out")
)

// StorageUnavailableError indicates a job type requires external parameter
// storage but none is configured. This is a configuration error and is never
// retried.
type StorageUnavailableError struct {
	JobType string
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("job type '%s' requires external parameter storage, but no parameter store is configured", e.JobType)
}

// ValidationError aggregates all failing parameter fields so a caller can fix
// every issue in one round trip.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "parameter validation failed: " + strings.Join(e.Errors, "; ")
}

// NewValidationError creates a validation error from field messages.
func NewValidationError(errs ...string) *ValidationError {
	return &ValidationError{Errors: errs}
}

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrJobTypeNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrParameterSetNotFound)
}
