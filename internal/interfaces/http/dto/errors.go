package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when lock acquisition or optimistic
	// concurrency checks fail
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeLotNotFound is used when a referenced lot does not exist
	ErrCodeLotNotFound = "ERR_LOT_NOT_FOUND"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInsufficientStock is used when on-hand stock cannot cover a request
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeDuplicateLotNumber is used when a lot number is reused for a product
	ErrCodeDuplicateLotNumber = "ERR_DUPLICATE_LOT_NUMBER"
	// ErrCodeInvalidQuantity is used when a quantity violates business rules
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeLotNotFound:         http.StatusNotFound,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:    http.StatusUnprocessableEntity,
	ErrCodeDuplicateLotNumber: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain-layer error codes to transport codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"DUPLICATE_LOT_NUMBER": ErrCodeDuplicateLotNumber,
	"INVALID_QUANTITY":     ErrCodeInvalidQuantity,
	"LOT_NOT_FOUND":        ErrCodeLotNotFound,
}

// NormalizeErrorCode converts a domain error code to the transport format
// If the code is already in the transport format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
