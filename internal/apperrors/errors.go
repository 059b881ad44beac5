package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for every failure an errand operation can report
const (
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeNotFound          = "NOT_FOUND"
	CodeOtpMismatch       = "OTP_MISMATCH"
	CodeAlreadyDelivered  = "ALREADY_DELIVERED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeIDExhausted       = "ID_EXHAUSTED"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Recoverable reports whether the caller can correct or retry the operation.
// SchemaMismatch is the only fatal error.
func (e *AppError) Recoverable() bool {
	return e.Code != CodeSchemaMismatch
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// InvalidArgument reports malformed or missing command parameters.
// The message should carry the expected usage.
func InvalidArgument(message string) *AppError {
	return NewAppError(CodeInvalidArgument, message, http.StatusBadRequest, nil)
}

// NotFound reports an unknown errand identifier
func NotFound(id string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("errand %s not found", id), http.StatusNotFound, nil)
}

// OtpMismatch reports a supplied code that differs from the stored one
func OtpMismatch(id string) *AppError {
	return NewAppError(CodeOtpMismatch, fmt.Sprintf("OTP did not match for errand %s", id), http.StatusUnprocessableEntity, nil)
}

// AlreadyDelivered reports a confirmation against a delivered errand
func AlreadyDelivered(id string) *AppError {
	return NewAppError(CodeAlreadyDelivered, fmt.Sprintf("errand %s is already delivered", id), http.StatusConflict, nil)
}

// InvalidTransition reports a status change the state machine refuses
func InvalidTransition(id, from, operation string) *AppError {
	return NewAppError(CodeInvalidTransition,
		fmt.Sprintf("cannot %s errand %s while it is %s", operation, id, from),
		http.StatusConflict, nil)
}

// IDExhausted reports that no free errand id was found within the attempt budget
func IDExhausted(attempts int) *AppError {
	return NewAppError(CodeIDExhausted,
		fmt.Sprintf("could not allocate a unique errand id after %d attempts", attempts),
		http.StatusConflict, nil)
}

// StoreUnavailable wraps a failed call to the backing table
func StoreUnavailable(err error) *AppError {
	return NewAppError(CodeStoreUnavailable, "errand log is unavailable", http.StatusServiceUnavailable, err)
}

// SchemaMismatch reports a header row that does not match the expected columns
func SchemaMismatch(message string) *AppError {
	return NewAppError(CodeSchemaMismatch, message, http.StatusServiceUnavailable, nil)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, http.StatusInternalServerError, err)
}

// Sentinels for errors.Is checks
var (
	ErrInvalidArgument   = &AppError{Code: CodeInvalidArgument}
	ErrNotFound          = &AppError{Code: CodeNotFound}
	ErrOtpMismatch       = &AppError{Code: CodeOtpMismatch}
	ErrAlreadyDelivered  = &AppError{Code: CodeAlreadyDelivered}
	ErrInvalidTransition = &AppError{Code: CodeInvalidTransition}
	ErrIDExhausted       = &AppError{Code: CodeIDExhausted}
	ErrStoreUnavailable  = &AppError{Code: CodeStoreUnavailable}
	ErrSchemaMismatch    = &AppError{Code: CodeSchemaMismatch}
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
