package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Configuration errors
	ErrUnknownFunction = errors.New("unknown function")
	ErrInvalidFactor   = errors.New("filtering factor must be positive")

	// Schema errors
	ErrColumnNotFound = errors.New("column not found")
	ErrNonNumeric     = errors.New("non-numeric value")
	ErrLengthMismatch = errors.New("length mismatch")
)

// NewUnknownFunctionError reports an unrecognized statistic selector,
// naming the offending value.
func NewUnknownFunctionError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}

// NewNotFoundError builds a not-found error with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownFunction) ||
		errors.Is(err, ErrInvalidFactor)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrNonNumeric) ||
		errors.Is(err, ErrLengthMismatch)
}
