package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrDuplicateLotNumber  = NewDomainError("DUPLICATE_LOT_NUMBER", "Lot number already exists for this product")
	ErrInvalidQuantity     = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrLotNotFound         = NewDomainError("LOT_NOT_FOUND", "Lot not found")
)
