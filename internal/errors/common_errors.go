package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceUnreadable ErrorType = "SOURCE_UNREADABLE"
	ErrTypeSchema           ErrorType = "SCHEMA"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeUnavailable      ErrorType = "UNAVAILABLE"
	ErrTypeConfig           ErrorType = "CONFIG"
)

// Sentinels for errors.Is. They match any AppError of the same type.
var (
	ErrSourceUnreadable = &AppError{Type: ErrTypeSourceUnreadable}
	ErrSchema           = &AppError{Type: ErrTypeSchema}
	ErrStorage          = &AppError{Type: ErrTypeStorage}
	ErrNotFound         = &AppError{Type: ErrTypeNotFound}
	ErrUnavailable      = &AppError{Type: ErrTypeUnavailable}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
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

// Is matches another AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
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

// TypeOf returns the type of the first AppError in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// NewSourceUnreadableError reports a workbook that exists but cannot be opened
func NewSourceUnreadableError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnreadable, "workbook cannot be read", cause).
		WithContext("path", path)
}

// NewSchemaError reports an invalid column schema
func NewSchemaError(message string) *AppError {
	return NewAppError(ErrTypeSchema, message, nil)
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

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewUnavailableError reports a dependency that is switched off or absent
func NewUnavailableError(message string) *AppError {
	return NewAppError(ErrTypeUnavailable, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
