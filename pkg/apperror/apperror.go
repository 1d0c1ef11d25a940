package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an error for retry and propagation decisions.
type Code string

const (
	// TransientProvider marks provider failures worth retrying: timeouts,
	// rate limits, 5xx responses.
	TransientProvider Code = "TRANSIENT_PROVIDER"
	// PermanentProvider marks provider failures that retrying cannot fix:
	// unknown symbol, auth failure, malformed request.
	PermanentProvider Code = "PERMANENT_PROVIDER"
	// Validation marks records that failed sanity checks. They are skipped,
	// never retried.
	Validation Code = "VALIDATION"
	// Persistence marks unexpected database failures for a record.
	Persistence Code = "PERSISTENCE"
	// Configuration marks missing or invalid startup settings. Fatal.
	Configuration Code = "CONFIGURATION"
)

// AppError carries a classification code alongside the message.
type AppError struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an existing error, preserving the chain.
func Wrap(code Code, err error, message string) *AppError {
	return &AppError{code: code, message: message, cause: err}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Code() Code    { return e.code }
func (e *AppError) Unwrap() error { return e.cause }

// CodeOf extracts the classification of err, or Persistence when the error
// carries no AppError in its chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.code
	}
	return Persistence
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.code == TransientProvider
	}
	return false
}

// IsValidation reports whether err marks a skipped record.
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.code == Validation
	}
	return false
}
