package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Lot represents a discrete receipt of stock for one product, carrying
// its own unit cost and expiry date. Lots are append-only: two receipts
// are never merged, and an exhausted lot is deactivated, never deleted.
type Lot struct {
	shared.BaseEntity
	ProductID      uuid.UUID
	LotNumber      string // Human-readable lot number, unique per product
	QuantityOnHand decimal.Decimal
	ExpiryDate     time.Time
	ReceivedDate   time.Time
	UnitCost       decimal.Decimal // Cost per unit for this lot
	Active         bool
}

// TableName specifies the database table name
func (Lot) TableName() string {
	return "lots"
}

// NewLot creates a new lot from a goods receipt.
// Quantity must be positive and unit cost non-negative.
func NewLot(
	productID uuid.UUID,
	lotNumber string,
	quantity decimal.Decimal,
	expiryDate, receivedDate time.Time,
	unitCost decimal.Decimal,
) (*Lot, error) {
	if lotNumber == "" {
		return nil, shared.ErrInvalidInput
	}
	if !quantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return nil, shared.ErrInvalidQuantity
	}
	if expiryDate.Before(receivedDate) {
		return nil, shared.ErrInvalidInput
	}
	return &Lot{
		BaseEntity:     shared.NewBaseEntity(),
		ProductID:      productID,
		LotNumber:      lotNumber,
		QuantityOnHand: quantity,
		ExpiryDate:     expiryDate,
		ReceivedDate:   receivedDate,
		UnitCost:       unitCost,
		Active:         true,
	}, nil
}

// Take reduces the lot quantity by up to the requested amount and
// returns the quantity actually taken. The lot is deactivated when it
// reaches zero.
func (l *Lot) Take(requested decimal.Decimal) decimal.Decimal {
	taken := decimal.Min(requested, l.QuantityOnHand)
	l.QuantityOnHand = l.QuantityOnHand.Sub(taken)
	if l.QuantityOnHand.IsZero() {
		l.Active = false
	}
	l.Touch()
	return taken
}

// Restore adds quantity back to the lot, reactivating it if it was
// exhausted. This is the only path by which a lot becomes active again.
func (l *Lot) Restore(quantity decimal.Decimal) {
	l.QuantityOnHand = l.QuantityOnHand.Add(quantity)
	if !l.Active && l.QuantityOnHand.IsPositive() {
		l.Active = true
	}
	l.Touch()
}

// HasStock returns true if the lot has available quantity
func (l *Lot) HasStock() bool {
	return l.Active && l.QuantityOnHand.IsPositive()
}

// IsExpired returns true if the lot has passed its expiry date as of the given time
func (l *Lot) IsExpired(asOf time.Time) bool {
	return DaysToExpire(l.ExpiryDate, asOf) < 0
}

// TotalValue returns the on-hand value of this lot
func (l *Lot) TotalValue() decimal.Decimal {
	return l.QuantityOnHand.Mul(l.UnitCost)
}
