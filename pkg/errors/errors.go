package errors

import (
	"errors"
	"fmt"
)

// Generic error kinds

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrNotImplemented indicates a capability the backend does not offer
	ErrNotImplemented = errors.New("not implemented")
)

// Agent pipeline error kinds

var (
	// ErrGeneration indicates the text generation gateway failed (transport, status or empty reply)
	ErrGeneration = errors.New("generation failed")

	// ErrEmptyResponse indicates the gateway answered with nothing but whitespace
	ErrEmptyResponse = errors.New("empty response from generation gateway")

	// ErrParse indicates a reply that is not valid JSON or violates the result schema
	ErrParse = errors.New("response parse failed")

	// ErrComputation indicates local arithmetic or analysis failed; always absorbed
	ErrComputation = errors.New("computation failed")

	// ErrRateLimitExceeded indicates the local generation rate limiter refused to wait
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation error: field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MissingField is shorthand for the most common validation failure
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "missing required field"}
}

// ParseError reports a reply that could not be turned into a valid result
type ParseError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Field != "" {
		msg = fmt.Sprintf("parse error: field '%s'", e.Field)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the ErrParse kind and the underlying cause
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// NewParseError creates a parse error for a field
func NewParseError(field, message string) *ParseError {
	return &ParseError{Field: field, Message: message}
}

// GenerationError wraps a gateway failure with the provider that produced it
type GenerationError struct {
	Provider string
	Err      error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: generation failed", e.Provider)
	}
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

// Unwrap exposes both the ErrGeneration kind and the underlying cause
func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeneration}
	}
	return []error{ErrGeneration, e.Err}
}

// NewGenerationError creates a generation error for a provider
func NewGenerationError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Err: err}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Mark tags err with a sentinel kind while keeping its own chain
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
