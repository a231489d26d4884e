package utils

import (
	"fmt"
	"net/http"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewNotFoundError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// Security specific errors

// NewOTPError returns an error for a failed OTP send or verification.
func NewOTPError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnprocessableEntity,
		Message: "OTP verification failed",
		Detail:  detail,
	}
}

// NewPolicyError returns an error for operations disallowed by account policy,
// e.g. SSO accounts attempting a local credential change.
func NewPolicyError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusForbidden,
		Message: "Operation not permitted for this account",
		Detail:  detail,
	}
}

// NewRateLimitError returns an error when OTP sends are requested too often.
func NewRateLimitError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusTooManyRequests,
		Message: "Too many requests",
		Detail:  detail,
	}
}
