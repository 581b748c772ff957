package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrTransientDependency = errors.New("transient dependency failure")
	ErrPrereqNotMet        = errors.New("prerequisite not met")
	ErrEmptyBatch          = errors.New("batch has no uploads")
	ErrNoValidUploads      = errors.New("batch has no valid uploads")
	ErrAllOrNothing        = errors.New("batch promotion rolled back")
)

// Retryable reports whether a task that failed with err should be attempted again.
// Missing inputs, invalid data and unmet preconditions never heal on their own.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrPrereqNotMet),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrNoValidUploads):
		return false
	}
	return true
}
