package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound record not found
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput invalid input data
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInvalidPlanType plan identifier outside the closed set
	ErrInvalidPlanType = errors.New("invalid subscription plan type")

	// ErrUnsupportedCurrency currency outside the allow-list
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidAmount amount does not match any plan price
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrPaymentNotCompleted gateway did not report a succeeded, paid payment.
	// Surfaced to the caller, never retried automatically.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrPaymentAlreadyProcessed the payment has already produced a
	// subscription window
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")

	// ErrTimeoutExceeded gateway call exceeded its fixed budget
	ErrTimeoutExceeded = errors.New("timeout exceeded")

	// ErrUnauthorized caller is not authorized
	ErrUnauthorized = errors.New("unauthorized")
)

// GatewayError represents a non-2xx response from the payment provider.
// The provider error body is carried along for the caller.
type GatewayError struct {
	Operation   string
	Code        string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("gateway error [%s] during %s: %s: %v", e.Code, e.Operation, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("gateway error [%s] during %s: %s", e.Code, e.Operation, e.Message)
}

// Unwrap returns the original error
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// NewGatewayError creates a new payment gateway error
func NewGatewayError(operation, code, message string, statusCode int, err error) *GatewayError {
	return &GatewayError{
		Operation:   operation,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors represents a set of validation failures rejected before
// any network call is made
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return fmt.Sprintf("validation failed: %s - %s", e[0].Field, e[0].Message)
	}
	return fmt.Sprintf("validation failed: %d errors", len(e))
}

// Add appends a validation failure
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any failure was recorded
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}
