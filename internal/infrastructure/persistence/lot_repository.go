package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder is the deterministic consumption order for lots
const fifoOrder = "expiry_date ASC, received_date ASC, id ASC"

// GormLotRepository implements stock.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Create persists a new lot. The unique index on (product_id,
// lot_number) arbitrates concurrent receipts: the insert that loses
// the race affects no rows and surfaces as DUPLICATE_LOT_NUMBER.
func (r *GormLotRepository) Create(ctx context.Context, lot *stock.Lot) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "lot_number"}},
			DoNothing: true,
		}).
		Create(lot)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return stock.ErrDuplicateLotNumber(lot.ProductID, lot.LotNumber)
	}
	return nil
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Lot, error) {
	var lot stock.Lot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrLotNotFound(id)
		}
		return nil, err
	}
	return &lot, nil
}

// FindActiveByProduct returns the active lots of a product with
// positive quantity, in FIFO consumption order
func (r *GormLotRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*stock.Lot, error) {
	var lots []*stock.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND active = ? AND quantity_on_hand > 0", productID, true).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByProduct returns all lots of a product, exhausted ones included
func (r *GormLotRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*stock.Lot, error) {
	var lots []*stock.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// AdjustQuantity atomically applies delta to a lot's on-hand quantity
// in a single guarded UPDATE. The WHERE clause rejects a mutation that
// would drive the quantity negative, and the active flag is derived
// from the resulting quantity in the same statement, so concurrent
// callers on the same lot can never produce a negative balance.
func (r *GormLotRepository) AdjustQuantity(ctx context.Context, lotID uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&stock.Lot{}).
		Where("id = ? AND quantity_on_hand + ? >= 0", lotID, delta).
		Updates(map[string]interface{}{
			"quantity_on_hand": gorm.Expr("quantity_on_hand + ?", delta),
			"active":           gorm.Expr("quantity_on_hand + ? > 0", delta),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the lot does not exist or the delta would go negative
		var count int64
		if err := r.db.WithContext(ctx).Model(&stock.Lot{}).
			Where("id = ?", lotID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return stock.ErrLotNotFound(lotID)
		}
		return stock.ErrInvalidQuantity(delta)
	}
	return nil
}

// GormAllocationRecordRepository implements
// stock.AllocationRecordRepository using GORM
type GormAllocationRecordRepository struct {
	db *gorm.DB
}

// NewGormAllocationRecordRepository creates a new GormAllocationRecordRepository
func NewGormAllocationRecordRepository(db *gorm.DB) *GormAllocationRecordRepository {
	return &GormAllocationRecordRepository{db: db}
}

// Create persists an allocation record with its lines
func (r *GormAllocationRecordRepository) Create(ctx context.Context, record *stock.AllocationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID returns the allocation record with its lines in
// consumption order
func (r *GormAllocationRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.AllocationRecord, error) {
	var record stock.AllocationRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProduct returns the allocation records of a product, newest first
func (r *GormAllocationRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*stock.AllocationRecord, error) {
	var records []*stock.AllocationRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkReleased stamps a record as released at the given time
func (r *GormAllocationRecordRepository) MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&stock.AllocationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      stock.AllocationStatusReleased,
			"released_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
