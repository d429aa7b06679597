package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies an AppError; the HTTP layer maps it to a status.
type ErrorType string

const (
	// ErrorTypeValidation: the submission was rejected before the pipeline ran.
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound: an unknown or expired session.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeUnavailable: a collaborator is not configured or not reachable.
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// ErrorTypeExternal: a collaborator answered with an error.
	ErrorTypeExternal ErrorType = "EXTERNAL"

	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError is an error with a type and a message safe to show the respondent.
type AppError struct {
	Type    ErrorType
	Message string
	// Problems lists each rejected field for validation errors.
	Problems []string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports every problem found in one submission.
func NewValidationError(problems ...string) *AppError {
	return &AppError{
		Type:     ErrorTypeValidation,
		Message:  strings.Join(problems, "; "),
		Problems: problems,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewUnavailableError creates an error for a collaborator that cannot serve the request
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeUnavailable, Message: message, Err: err}
}

// NewExternalError wraps an error returned by a store or narrative provider.
func NewExternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeExternal, Message: message, Err: err}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
