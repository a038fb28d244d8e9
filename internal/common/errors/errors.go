package errors

import (
	"fmt"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, errors.ErrInvalidGrade) against a freshly built error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common error codes
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInternalError = "INTERNAL_ERROR"
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnprocessable = "UNPROCESSABLE_ENTITY"

	// Scheduling core codes
	CodeInvalidContext = "INVALID_CONTEXT"
	CodeInvalidGrade   = "INVALID_GRADE"
	CodeMalformedState = "MALFORMED_STATE"
)

// Sentinels for errors.Is checks.
var (
	ErrNotFound       = &AppError{Code: CodeNotFound}
	ErrValidation     = &AppError{Code: CodeValidation}
	ErrConflict       = &AppError{Code: CodeConflict}
	ErrBadRequest     = &AppError{Code: CodeBadRequest}
	ErrUnprocessable  = &AppError{Code: CodeUnprocessable}
	ErrInternal       = &AppError{Code: CodeInternalError}
	ErrInvalidContext = &AppError{Code: CodeInvalidContext}
	ErrInvalidGrade   = &AppError{Code: CodeInvalidGrade}
	ErrMalformedState = &AppError{Code: CodeMalformedState}
)

// Error constructors
func Validation(message string, details string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
		Status:  400,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  404,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  409,
	}
}

func Internal(message string, details string) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Details: details,
		Status:  500,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  400,
	}
}

func Unprocessable(message string, details string) *AppError {
	return &AppError{
		Code:    CodeUnprocessable,
		Message: message,
		Details: details,
		Status:  422,
	}
}

// InvalidContext reports an attempt recorded under an unknown context type.
func InvalidContext(context string) *AppError {
	return &AppError{
		Code:    CodeInvalidContext,
		Message: "unknown attempt context",
		Details: context,
		Status:  400,
	}
}

// InvalidGrade reports a review grade outside 1..4.
func InvalidGrade(grade int) *AppError {
	return &AppError{
		Code:    CodeInvalidGrade,
		Message: "grade must be between 1 (again) and 4 (easy)",
		Details: fmt.Sprintf("got %d", grade),
		Status:  400,
	}
}

// MalformedState reports scheduler input that violates the item invariants.
func MalformedState(details string) *AppError {
	return &AppError{
		Code:    CodeMalformedState,
		Message: "malformed scheduling state",
		Details: details,
		Status:  422,
	}
}
