package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Library errors
	ErrLibraryMissing ErrorCode = "LIBRARY_MISSING"

	// Index errors
	ErrIndexOpen    ErrorCode = "INDEX_OPEN"
	ErrIndexQuery   ErrorCode = "INDEX_QUERY"
	ErrIndexCorrupt ErrorCode = "INDEX_CORRUPT"

	// Copy errors
	ErrCopyFailed ErrorCode = "COPY_FAILED"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// MdriveError represents a structured error with code and details
type MdriveError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *MdriveError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *MdriveError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *MdriveError) Is(target error) bool {
	var targetErr *MdriveError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new MdriveError with the given code and message
func New(code ErrorCode, message string) *MdriveError {
	return &MdriveError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new MdriveError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *MdriveError {
	return &MdriveError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a MdriveError
func Wrap(err error, code ErrorCode, message string) *MdriveError {
	if err == nil {
		return nil
	}
	return &MdriveError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *MdriveError {
	if err == nil {
		return nil
	}
	return &MdriveError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *MdriveError) WithDetail(key string, value interface{}) *MdriveError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var mdriveErr *MdriveError
	if errors.As(err, &mdriveErr) {
		return mdriveErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a MdriveError
func GetErrorCode(err error) ErrorCode {
	var mdriveErr *MdriveError
	if errors.As(err, &mdriveErr) {
		return mdriveErr.Code
	}
	return ErrUnknown
}

// IsFatal reports whether an error should abort the whole run.
// Per-file copy failures are recovered locally; everything else is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return GetErrorCode(err) != ErrCopyFailed
}
