// Package errors defines stable error codes for pescan's failure modes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// FetchFailed indicates the reference source was unreachable,
	// timed out, or returned a non-success status
	FetchFailed ErrorCode = "FETCH_FAILED"
	// ParseFailed indicates the reference document no longer matches
	// the expected category/table schema
	ParseFailed ErrorCode = "PARSE_FAILED"
	// CacheInvalid indicates the persisted store is missing, corrupt,
	// or written under a different format version
	CacheInvalid ErrorCode = "CACHE_INVALID"
	// SampleInvalid indicates the input file is not a PE binary
	SampleInvalid ErrorCode = "SAMPLE_INVALID"
	// SampleUnreadable indicates the input file could not be read
	SampleUnreadable ErrorCode = "SAMPLE_UNREADABLE"
	// RulesInvalid indicates a local rules file could not be decoded
	RulesInvalid ErrorCode = "RULES_INVALID"
	// OutputFailed indicates the report could not be written
	OutputFailed ErrorCode = "OUTPUT_FAILED"
)

// ScanError represents a pescan error with a stable code and message
type ScanError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error     // Underlying error (not exported to JSON)
}

// New creates a new ScanError
func New(code ErrorCode, message string, cause error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new ScanError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *ScanError {
	return &ScanError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ScanError) Unwrap() error {
	return e.cause
}

// CodeOf returns the error code carried by err, or "" if err is not a ScanError
func CodeOf(err error) ErrorCode {
	var se *ScanError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
