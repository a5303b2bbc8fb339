package stock

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes for the stock domain
const (
	ErrCodeDuplicateLotNumber  = "DUPLICATE_LOT_NUMBER"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeLotNotFound         = "LOT_NOT_FOUND"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// ErrDuplicateLotNumber reports a receipt reusing a lot number already
// present for the same product
func ErrDuplicateLotNumber(productID uuid.UUID, lotNumber string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeDuplicateLotNumber,
		fmt.Sprintf("lot number %q already exists for product %s", lotNumber, productID))
}

// ErrInvalidQuantity reports a non-positive or negative-result quantity
func ErrInvalidQuantity(quantity decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidQuantity,
		fmt.Sprintf("invalid quantity %s", quantity))
}

// ErrInsufficientStock reports a consumption request exceeding the
// total active quantity, including what is actually available
func ErrInsufficientStock(requested, available decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInsufficientStock,
		fmt.Sprintf("requested %s but only %s available", requested, available))
}

// ErrLotNotFound reports a reference to a lot that does not exist
func ErrLotNotFound(lotID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(ErrCodeLotNotFound,
		fmt.Sprintf("lot %s not found", lotID))
}

// IsDomainErrorCode reports whether err is a DomainError with the given code
func IsDomainErrorCode(err error, code string) bool {
	domainErr, ok := err.(*shared.DomainError)
	return ok && domainErr.Code == code
}
