package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// StockQueryService serves read-only stock projections. It never
// mutates lots and is safe to run concurrently with in-flight
// consume/release calls; results reflect a read-committed snapshot
// that may lag slightly behind the write path.
type StockQueryService struct {
	lotRepo        stock.LotRepository
	allocationRepo stock.AllocationRecordRepository
}

// NewStockQueryService creates a new StockQueryService
func NewStockQueryService(
	lotRepo stock.LotRepository,
	allocationRepo stock.AllocationRecordRepository,
) *StockQueryService {
	return &StockQueryService{
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
	}
}

// GetStockSummary returns the total on-hand quantity and value, lot
// count, and next expiry among a product's active lots
func (s *StockQueryService) GetStockSummary(ctx context.Context, productID uuid.UUID) (*StockSummaryResponse, error) {
	lots, err := s.lotRepo.FindActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	totalValue := decimal.Zero
	for _, lot := range lots {
		totalValue = totalValue.Add(lot.TotalValue())
	}

	summary := &StockSummaryResponse{
		ProductID:     productID,
		TotalQuantity: stock.TotalOnHand(lots),
		TotalValue:    totalValue,
		LotCount:      len(lots),
	}
	if len(lots) > 0 {
		// Lots arrive in FIFO order, so the first expiry is the minimum
		next := lots[0].ExpiryDate
		summary.NextExpiry = &next
	}
	return summary, nil
}

// LotListFilter narrows the lot listing. AsOf shifts the reference
// time for classification; WithinDays keeps only lots expiring within
// that many days (expired lots included).
type LotListFilter struct {
	AsOf       *time.Time
	WithinDays *int
}

// ListLots returns every lot of a product, exhausted ones included,
// each enriched with its expiry classification and share of the
// active total
func (s *StockQueryService) ListLots(ctx context.Context, productID uuid.UUID, filter LotListFilter) ([]LotListItemResponse, error) {
	lots, err := s.lotRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, lot := range lots {
		if lot.Active {
			total = total.Add(lot.QuantityOnHand)
		}
	}

	asOf := time.Now()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}

	items := make([]LotListItemResponse, 0, len(lots))
	for _, lot := range lots {
		days := stock.DaysToExpire(lot.ExpiryDate, asOf)
		if filter.WithinDays != nil && days > *filter.WithinDays {
			continue
		}
		percent := decimal.Zero
		if total.IsPositive() && lot.Active {
			percent = lot.QuantityOnHand.Div(total).Mul(oneHundred).Round(2)
		}
		items = append(items, LotListItemResponse{
			LotResponse:    ToLotResponse(lot),
			Classification: stock.Classify(lot, asOf),
			DaysToExpire:   days,
			PercentOfTotal: percent,
		})
	}
	return items, nil
}

// CheckAvailability reports whether the requested quantity can be
// consumed from the product's active lots
func (s *StockQueryService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResponse, error) {
	if req.Quantity.IsNegative() {
		return nil, stock.ErrInvalidQuantity(req.Quantity)
	}

	lots, err := s.lotRepo.FindActiveByProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	available := stock.TotalOnHand(lots)
	return &AvailabilityResponse{
		ProductID:  req.ProductID,
		Requested:  req.Quantity,
		Available:  available,
		Sufficient: available.GreaterThanOrEqual(req.Quantity),
	}, nil
}

// GetAllocation retrieves an allocation record by ID
func (s *StockQueryService) GetAllocation(ctx context.Context, id uuid.UUID) (*AllocationResponse, error) {
	record, err := s.allocationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAllocationResponse(record)
	return &response, nil
}

// ListAllocations returns a product's allocation records, newest first
func (s *StockQueryService) ListAllocations(ctx context.Context, productID uuid.UUID) ([]AllocationResponse, error) {
	records, err := s.allocationRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	responses := make([]AllocationResponse, len(records))
	for i, record := range records {
		responses[i] = ToAllocationResponse(record)
	}
	return responses, nil
}
