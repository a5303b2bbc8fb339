package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotRepository defines the persistence interface for lots
type LotRepository interface {
	// Create persists a new lot. Returns a DUPLICATE_LOT_NUMBER error
	// when (productID, lotNumber) already exists.
	Create(ctx context.Context, lot *Lot) error

	// FindByID returns the lot with the given ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)

	// FindActiveByProduct returns the active lots of a product with
	// positive on-hand quantity, ordered by the FIFO consumption key
	// (expiryDate asc, receivedDate asc, id asc).
	FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error)

	// FindByProduct returns all lots of a product, exhausted ones
	// included, in FIFO order
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error)

	// AdjustQuantity atomically applies delta to a lot's on-hand
	// quantity. Fails with INVALID_QUANTITY when the result would be
	// negative and with LOT_NOT_FOUND when the lot does not exist.
	// A lot reaching zero is deactivated; a positive result on an
	// inactive lot reactivates it.
	AdjustQuantity(ctx context.Context, lotID uuid.UUID, delta decimal.Decimal) error
}

// AllocationRecordRepository defines the persistence interface for
// allocation records
type AllocationRecordRepository interface {
	// Create persists an allocation record with its lines
	Create(ctx context.Context, record *AllocationRecord) error

	// FindByID returns the allocation record with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*AllocationRecord, error)

	// FindByProduct returns the allocation records of a product,
	// newest first
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*AllocationRecord, error)

	// MarkReleased stamps a record as released at the given time
	MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) error
}
