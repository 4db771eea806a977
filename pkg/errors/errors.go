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
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Read errors
	ErrSizeExceeded    ErrorCode = "SIZE_EXCEEDED"
	ErrMalformedLegacy ErrorCode = "MALFORMED_LEGACY"
	ErrUnparseable     ErrorCode = "UNPARSEABLE"

	// Write errors
	ErrBridgeUnavailable   ErrorCode = "BRIDGE_UNAVAILABLE"
	ErrAtomicReplaceFailed ErrorCode = "ATOMIC_REPLACE_FAILED"

	// Bridge errors
	ErrBridgeTimeout           ErrorCode = "BRIDGE_TIMEOUT"
	ErrBridgeProcessFailed     ErrorCode = "BRIDGE_PROCESS_FAILED"
	ErrBridgeMissingExecutable ErrorCode = "BRIDGE_MISSING_EXECUTABLE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
)

// RepoError represents a structured error with code and details
type RepoError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *RepoError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RepoError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *RepoError) Is(target error) bool {
	var targetErr *RepoError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new RepoError with the given code and message
func New(code ErrorCode, message string) *RepoError {
	return &RepoError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new RepoError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *RepoError {
	return &RepoError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a RepoError
func Wrap(err error, code ErrorCode, message string) *RepoError {
	if err == nil {
		return nil
	}
	return &RepoError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *RepoError {
	if err == nil {
		return nil
	}
	return &RepoError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *RepoError) WithDetail(key string, value interface{}) *RepoError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var repoErr *RepoError
	if errors.As(err, &repoErr) {
		return repoErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a RepoError
func GetErrorCode(err error) ErrorCode {
	var repoErr *RepoError
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a RepoError
func GetErrorDetails(err error) map[string]interface{} {
	var repoErr *RepoError
	if errors.As(err, &repoErr) {
		return repoErr.Details
	}
	return nil
}
