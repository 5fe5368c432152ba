package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidOperation indicates a business rule violation: inactive
// card, ownership mismatch, overdue debts, missing linked resource, or
// an attempt to change an immutable field.
type ErrInvalidOperation struct {
	Reason string
}

func (e *ErrInvalidOperation) Error() string {
	return e.Reason
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInsufficientFunds indicates no associated account could cover the
// requested amount.
type ErrInsufficientFunds struct {
	Required float64
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds in all associated accounts: required=%.2f", e.Required)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrServiceUnavailable is the fallback result of a protected
// operation whose remote dependency failed or timed out.
type ErrServiceUnavailable struct {
	Operation string
}

func (e *ErrServiceUnavailable) Error() string {
	return fmt.Sprintf("service unavailable: %s", e.Operation)
}
