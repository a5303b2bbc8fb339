package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// CreateLotRequest is the request to register a goods receipt
type CreateLotRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	LotNumber    string          `json:"lot_number" binding:"required,max=64"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	ExpiryDate   time.Time       `json:"expiry_date" binding:"required"`
	ReceivedDate time.Time       `json:"received_date"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// LotResponse is the API representation of a lot
type LotResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	LotNumber      string          `json:"lot_number"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	ExpiryDate     time.Time       `json:"expiry_date"`
	ReceivedDate   time.Time       `json:"received_date"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LotListItemResponse is a lot enriched with its expiry classification
// and share of the product's total on-hand quantity
type LotListItemResponse struct {
	LotResponse
	Classification stock.ExpiryStatus `json:"classification"`
	DaysToExpire   int                `json:"days_to_expire"`
	PercentOfTotal decimal.Decimal    `json:"percent_of_total"`
}

// StockSummaryResponse is the rollup of a product's on-hand stock
type StockSummaryResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LotCount      int             `json:"lot_count"`
	NextExpiry    *time.Time      `json:"next_expiry,omitempty"`
}

// AvailabilityRequest asks whether a quantity can be consumed
type AvailabilityRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// AvailabilityResponse reports whether the requested quantity fits
type AvailabilityResponse struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Requested  decimal.Decimal `json:"requested"`
	Available  decimal.Decimal `json:"available"`
	Sufficient bool            `json:"sufficient"`
}

// ConsumeRequest is the request to consume stock, typically issued
// when a sale line is finalized. SourceType/SourceID optionally tie
// the allocation to its triggering document for audit.
type ConsumeRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	SourceType string          `json:"source_type" binding:"omitempty,max=32"`
	SourceID   *uuid.UUID      `json:"source_id"`
}

// ReleaseRequest restores a previous allocation, typically issued when
// a sale is cancelled
type ReleaseRequest struct {
	AllocationID uuid.UUID `json:"allocation_id" binding:"required"`
}

// AllocationLineResponse is one lot's contribution to an allocation
type AllocationLineResponse struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// AllocationResponse is the API representation of an allocation record
type AllocationResponse struct {
	ID            uuid.UUID                `json:"id"`
	ProductID     uuid.UUID                `json:"product_id"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	TotalCost     decimal.Decimal          `json:"total_cost"`
	AvgUnitCost   decimal.Decimal          `json:"avg_unit_cost"`
	Status        stock.AllocationStatus   `json:"status"`
	SourceType    string                   `json:"source_type,omitempty"`
	SourceID      *uuid.UUID               `json:"source_id,omitempty"`
	ReleasedAt    *time.Time               `json:"released_at,omitempty"`
	Lines         []AllocationLineResponse `json:"lines"`
	CreatedAt     time.Time                `json:"created_at"`
}

// ToLotResponse converts a domain lot to its API representation
func ToLotResponse(lot *stock.Lot) LotResponse {
	return LotResponse{
		ID:             lot.ID,
		ProductID:      lot.ProductID,
		LotNumber:      lot.LotNumber,
		QuantityOnHand: lot.QuantityOnHand,
		ExpiryDate:     lot.ExpiryDate,
		ReceivedDate:   lot.ReceivedDate,
		UnitCost:       lot.UnitCost,
		Active:         lot.Active,
		CreatedAt:      lot.CreatedAt,
		UpdatedAt:      lot.UpdatedAt,
	}
}

// ToAllocationResponse converts a domain allocation record to its API representation
func ToAllocationResponse(record *stock.AllocationRecord) AllocationResponse {
	lines := make([]AllocationLineResponse, len(record.Lines))
	for i, line := range record.Lines {
		lines[i] = AllocationLineResponse{
			LotID:    line.LotID,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
		}
	}
	return AllocationResponse{
		ID:            record.ID,
		ProductID:     record.ProductID,
		TotalQuantity: record.TotalQuantity,
		TotalCost:     record.TotalCost(),
		AvgUnitCost:   record.AverageUnitCost(),
		Status:        record.Status,
		SourceType:    record.SourceType,
		SourceID:      record.SourceID,
		ReleasedAt:    record.ReleasedAt,
		Lines:         lines,
		CreatedAt:     record.CreatedAt,
	}
}
