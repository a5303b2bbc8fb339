package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// memLotRepository is an in-memory LotRepository with the same
// semantics as the GORM implementation: duplicate detection on
// (product, lot number), FIFO-ordered reads, and atomic guarded
// quantity adjustment.
type memLotRepository struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*stock.Lot
}

func newMemLotRepository() *memLotRepository {
	return &memLotRepository{lots: make(map[uuid.UUID]*stock.Lot)}
}

func (r *memLotRepository) Create(_ context.Context, lot *stock.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.lots {
		if existing.ProductID == lot.ProductID && existing.LotNumber == lot.LotNumber {
			return stock.ErrDuplicateLotNumber(lot.ProductID, lot.LotNumber)
		}
	}
	copied := *lot
	r.lots[lot.ID] = &copied
	return nil
}

func (r *memLotRepository) FindByID(_ context.Context, id uuid.UUID) (*stock.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, stock.ErrLotNotFound(id)
	}
	copied := *lot
	return &copied, nil
}

func (r *memLotRepository) FindActiveByProduct(_ context.Context, productID uuid.UUID) ([]*stock.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*stock.Lot
	for _, lot := range r.lots {
		if lot.ProductID == productID && lot.Active && lot.QuantityOnHand.IsPositive() {
			copied := *lot
			result = append(result, &copied)
		}
	}
	stock.SortFIFO(result)
	return result, nil
}

func (r *memLotRepository) FindByProduct(_ context.Context, productID uuid.UUID) ([]*stock.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*stock.Lot
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			copied := *lot
			result = append(result, &copied)
		}
	}
	stock.SortFIFO(result)
	return result, nil
}

func (r *memLotRepository) AdjustQuantity(_ context.Context, lotID uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return stock.ErrLotNotFound(lotID)
	}
	if delta.IsNegative() {
		need := delta.Neg()
		if lot.QuantityOnHand.LessThan(need) {
			return stock.ErrInvalidQuantity(delta)
		}
		lot.Take(need)
		return nil
	}
	lot.Restore(delta)
	return nil
}

// snapshot returns a copy of every stored lot keyed by ID, for
// comparing state before and after an operation
func (r *memLotRepository) snapshot() map[uuid.UUID]stock.Lot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]stock.Lot, len(r.lots))
	for id, lot := range r.lots {
		out[id] = *lot
	}
	return out
}

// memAllocationRepository is an in-memory AllocationRecordRepository
type memAllocationRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*stock.AllocationRecord
}

func newMemAllocationRepository() *memAllocationRepository {
	return &memAllocationRepository{records: make(map[uuid.UUID]*stock.AllocationRecord)}
}

func (r *memAllocationRepository) Create(_ context.Context, record *stock.AllocationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	copied.Lines = append([]stock.AllocationLine(nil), record.Lines...)
	r.records[record.ID] = &copied
	return nil
}

func (r *memAllocationRepository) FindByID(_ context.Context, id uuid.UUID) (*stock.AllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *record
	copied.Lines = append([]stock.AllocationLine(nil), record.Lines...)
	return &copied, nil
}

func (r *memAllocationRepository) FindByProduct(_ context.Context, productID uuid.UUID) ([]*stock.AllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*stock.AllocationRecord
	for _, record := range r.records {
		if record.ProductID == productID {
			copied := *record
			copied.Lines = append([]stock.AllocationLine(nil), record.Lines...)
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memAllocationRepository) MarkReleased(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	record.MarkReleased(at)
	return nil
}

// serialLocker serializes every acquisition behind one mutex. Stricter
// than per-product locking, which is fine for tests.
type serialLocker struct {
	mu sync.Mutex
}

func (l *serialLocker) Acquire(_ context.Context, _ uuid.UUID) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// conflictLocker fails a fixed number of acquisitions with a
// concurrency conflict before delegating to a serialLocker
type conflictLocker struct {
	mu       sync.Mutex
	failures int
	inner    serialLocker
}

func (l *conflictLocker) Acquire(ctx context.Context, productID uuid.UUID) (func(), error) {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return nil, shared.ErrConcurrencyConflict
	}
	l.mu.Unlock()
	return l.inner.Acquire(ctx, productID)
}

type engineFixture struct {
	lotRepo        *memLotRepository
	allocationRepo *memAllocationRepository
	engine         *AllocationEngine
}

func newEngineFixture(locker ProductLocker) *engineFixture {
	lotRepo := newMemLotRepository()
	allocationRepo := newMemAllocationRepository()
	scope := NewNoOpTransactionScope(lotRepo, allocationRepo)
	if locker == nil {
		locker = &serialLocker{}
	}
	return &engineFixture{
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
		engine:         NewAllocationEngine(scope, allocationRepo, locker, nil, 3, time.Millisecond),
	}
}

func (f *engineFixture) addLot(productID uuid.UUID, lotNumber string, qty int64, expiry time.Time, unitCost float64) *stock.Lot {
	lot, err := stock.NewLot(productID, lotNumber, decimal.NewFromInt(qty),
		expiry, expiry.AddDate(0, -6, 0), decimal.NewFromFloat(unitCost))
	if err != nil {
		panic(err)
	}
	if err := f.lotRepo.Create(context.Background(), lot); err != nil {
		panic(err)
	}
	return lot
}
