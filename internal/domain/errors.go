package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"-"`
	Cause   error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails attaches diagnostic fields that are safe to serialize in the
// HTTP error body (roundId, secToClose, retryAfterSec and the like).
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrInsufficientBalance(balance, required int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient balance",
		Status:  409,
		Details: map[string]any{"balance": balance, "required": required},
	}
}

func ErrTooManyRequests(retryAfterSec int64) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: "too many attempts",
		Status:  429,
		Details: map[string]any{"retryAfterSec": retryAfterSec},
	}
}

// ErrConfig reports a server-side misconfiguration (missing or weak secret
// seed). Surfaces as a 500 without leaking the underlying setting.
func ErrConfig(msg string) *AppError {
	return &AppError{Code: "CONFIG_ERROR", Message: msg, Status: 500}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
