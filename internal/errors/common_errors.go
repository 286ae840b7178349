package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeMalformedInput ErrorType = "MALFORMED_INPUT"
	ErrTypeExternalTool   ErrorType = "EXTERNAL_TOOL"
	ErrTypeEnrichment     ErrorType = "ENRICHMENT"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewNotFoundError creates a not found error naming the exact missing path
func NewNotFoundError(what, path string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found: %s", what, path), nil).
		WithContext("path", path)
}

// NewMalformedInputError creates an error for a source row that cannot be summarised
func NewMalformedInputError(workoutID, message string) *AppError {
	return NewAppError(ErrTypeMalformedInput, message, nil).
		WithContext("workout_id", workoutID)
}

// NewExternalToolError creates an error for a failed conversion tool run
func NewExternalToolError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExternalTool, message, cause)
}

// NewEnrichmentError creates an error for a failed coordinate lookup
func NewEnrichmentError(latitude, longitude float64, cause error) *AppError {
	return NewAppError(ErrTypeEnrichment, fmt.Sprintf("no place for (%.6f, %.6f)", latitude, longitude), cause).
		WithContext("latitude", latitude).
		WithContext("longitude", longitude)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
