package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// ProductLocker serializes stock writes per product. Consume and
// release for one product are mutually exclusive; writes to different
// products never block each other.
type ProductLocker interface {
	// Acquire blocks until the product lock is held, the acquisition
	// timeout elapses, or ctx is done. On success it returns a release
	// function that must be called exactly once. Timeout and ctx
	// cancellation surface as a CONCURRENCY_CONFLICT error.
	Acquire(ctx context.Context, productID uuid.UUID) (release func(), err error)
}

// AllocationEngine consumes stock from lots in FIFO order and releases
// prior allocations. Each consume is all-or-nothing: the FIFO walk and
// the allocation record are committed in one transaction under the
// product lock, so a failure mid-walk leaves no lot touched.
type AllocationEngine struct {
	scope          TransactionScope
	allocationRepo stock.AllocationRecordRepository
	locker         ProductLocker
	logger         *zap.Logger
	retryAttempts  int
	retryBackoff   time.Duration
}

// NewAllocationEngine creates a new AllocationEngine. retryAttempts
// bounds how often a CONCURRENCY_CONFLICT is retried before it is
// surfaced to the caller; retryBackoff is the base delay between
// attempts.
func NewAllocationEngine(
	scope TransactionScope,
	allocationRepo stock.AllocationRecordRepository,
	locker ProductLocker,
	logger *zap.Logger,
	retryAttempts int,
	retryBackoff time.Duration,
) *AllocationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationEngine{
		scope:          scope,
		allocationRepo: allocationRepo,
		locker:         locker,
		logger:         logger.Named("allocation"),
		retryAttempts:  retryAttempts,
		retryBackoff:   retryBackoff,
	}
}

// Consume draws the requested quantity from the product's active lots
// in FIFO order and persists the resulting allocation record. A
// request exceeding the total active quantity fails with
// INSUFFICIENT_STOCK and mutates nothing. A zero request returns an
// empty allocation without persisting anything.
func (e *AllocationEngine) Consume(ctx context.Context, req ConsumeRequest) (*AllocationResponse, error) {
	if req.Quantity.IsNegative() {
		return nil, stock.ErrInvalidQuantity(req.Quantity)
	}
	if req.Quantity.IsZero() {
		empty := stock.NewAllocationRecord(req.ProductID, nil)
		empty.SetSource(req.SourceType, req.SourceID)
		response := ToAllocationResponse(empty)
		return &response, nil
	}

	var record *stock.AllocationRecord
	err := e.withRetry(ctx, "consume", func() error {
		release, err := e.locker.Acquire(ctx, req.ProductID)
		if err != nil {
			return err
		}
		defer release()

		return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			lots, err := repos.LotRepo().FindActiveByProduct(ctx, req.ProductID)
			if err != nil {
				return err
			}

			lines, err := stock.PlanConsumption(lots, req.Quantity)
			if err != nil {
				return err
			}

			for _, line := range lines {
				if err := repos.LotRepo().AdjustQuantity(ctx, line.LotID, line.Quantity.Neg()); err != nil {
					// The plan was computed under the product lock, so a
					// negative-result rejection means the snapshot raced
					// with an unserialized writer. Retryable.
					if stock.IsDomainErrorCode(err, stock.ErrCodeInvalidQuantity) {
						return shared.ErrConcurrencyConflict
					}
					return err
				}
			}

			record = stock.NewAllocationRecord(req.ProductID, lines)
			record.SetSource(req.SourceType, req.SourceID)
			return repos.AllocationRepo().Create(ctx, record)
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("stock consumed",
		zap.String("allocation_id", record.ID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", record.TotalQuantity.String()),
		zap.Int("lots", len(record.Lines)),
	)

	response := ToAllocationResponse(record)
	return &response, nil
}

// Release restores the quantities taken by a prior allocation, lot by
// lot, reactivating any lot that was exhausted. Releasing the same
// record twice is a caller error and is not guarded here; callers must
// track release-once semantics in their own state machine.
func (e *AllocationEngine) Release(ctx context.Context, req ReleaseRequest) (*AllocationResponse, error) {
	record, err := e.allocationRepo.FindByID(ctx, req.AllocationID)
	if err != nil {
		return nil, err
	}

	if record.IsReleased() {
		e.logger.Warn("releasing an already released allocation",
			zap.String("allocation_id", record.ID.String()),
		)
	}

	now := time.Now()
	err = e.withRetry(ctx, "release", func() error {
		release, err := e.locker.Acquire(ctx, record.ProductID)
		if err != nil {
			return err
		}
		defer release()

		return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, line := range record.Lines {
				if err := repos.LotRepo().AdjustQuantity(ctx, line.LotID, line.Quantity); err != nil {
					return err
				}
			}
			return repos.AllocationRepo().MarkReleased(ctx, record.ID, now)
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("allocation released",
		zap.String("allocation_id", record.ID.String()),
		zap.String("product_id", record.ProductID.String()),
		zap.String("quantity", record.TotalQuantity.String()),
	)

	record.MarkReleased(now)
	response := ToAllocationResponse(record)
	return &response, nil
}

// withRetry retries fn with bounded backoff while it fails with a
// CONCURRENCY_CONFLICT. Domain errors are never retried.
func (e *AllocationEngine) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.retryAttempts; attempt++ {
		if attempt > 0 {
			e.logger.Warn("retrying after concurrency conflict",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
			select {
			case <-time.After(e.retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return shared.ErrConcurrencyConflict
			}
		}
		err = fn()
		if err == nil || !stock.IsDomainErrorCode(err, stock.ErrCodeConcurrencyConflict) {
			return err
		}
	}
	return err
}
