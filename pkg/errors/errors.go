// Package errors provides the typed application errors shared by the store,
// service and HTTP layers.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	// ErrCodeNotFound unknown short code.
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict duplicate short code on insert.
	ErrCodeConflict = "CONFLICT"
	// ErrCodeInvalidInput malformed request.
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeInternal everything else, e.g. storage unavailable.
	ErrCodeInternal = "INTERNAL_ERROR"
)

// AppError is an error carrying a machine readable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError with the same code and message.
// Use IsNotFound, IsConflict or IsInvalidInput to match on the code alone.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates an AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps err with a code and message.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Internal wraps err as an INTERNAL_ERROR. An err that already carries a
// code is returned unchanged.
func Internal(err error, message string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrCodeInternal, message)
}

// WithDetails returns a copy of e with details attached.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Predefined errors.
var (
	ErrURLNotFound        = New(ErrCodeNotFound, "URL not found")
	ErrShortCodeExists    = New(ErrCodeConflict, "short code already exists")
	ErrInvalidURL         = New(ErrCodeInvalidInput, "url is required")
	ErrInvalidBody        = New(ErrCodeInvalidInput, "invalid request body")
	ErrCodeSpaceExhausted = New(ErrCodeInternal, "could not find a free short code")
)

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConflict reports whether err is a CONFLICT error.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsInvalidInput reports whether err is an INVALID_INPUT error.
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrCodeInvalidInput)
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
