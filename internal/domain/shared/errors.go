package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is works against the
// sentinels below regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common domain errors
var (
	ErrNotFound                  = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists             = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput              = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict       = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidQuantity           = NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero")
	ErrInsufficientStock         = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrLotUnavailable            = NewDomainError("LOT_UNAVAILABLE", "Lot is not available for consumption")
	ErrProductNotFound           = NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrWarehouseNotFound         = NewDomainError("WAREHOUSE_NOT_FOUND", "Warehouse not found")
	ErrInvalidMovementTransition = NewDomainError("INVALID_MOVEMENT_TRANSITION", "Movement state transition not allowed")
	ErrStorage                   = NewDomainError("STORAGE_ERROR", "Storage operation failed")
)
