package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationStatus tracks whether an allocation is still held or was
// returned to stock
type AllocationStatus string

const (
	AllocationStatusActive   AllocationStatus = "active"
	AllocationStatusReleased AllocationStatus = "released"
)

// AllocationLine records quantity taken from one lot at the unit cost
// in effect at allocation time
type AllocationLine struct {
	shared.BaseEntity
	AllocationID uuid.UUID
	LotID        uuid.UUID
	Position     int // Consumption order within the allocation
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal // Unit cost at allocation time
}

// TableName specifies the database table name
func (AllocationLine) TableName() string {
	return "allocation_lines"
}

// LineCost returns the cost contribution of this line
func (l *AllocationLine) LineCost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// AllocationRecord is the durable result of one consumption event: the
// ordered mapping of the requested quantity onto specific lots. It is
// persisted alongside the triggering sale line for audit and reversal.
type AllocationRecord struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	TotalQuantity decimal.Decimal
	Status        AllocationStatus
	SourceType    string // Triggering document kind, e.g. "sale_order"
	SourceID      *uuid.UUID
	ReleasedAt    *time.Time
	Lines         []AllocationLine `gorm:"foreignKey:AllocationID"`
}

// TableName specifies the database table name
func (AllocationRecord) TableName() string {
	return "allocation_records"
}

// NewAllocationRecord creates an allocation record from planned lines,
// stamping each line with its parent allocation ID
func NewAllocationRecord(productID uuid.UUID, lines []AllocationLine) *AllocationRecord {
	record := &AllocationRecord{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Status:     AllocationStatusActive,
	}
	total := decimal.Zero
	record.Lines = make([]AllocationLine, len(lines))
	for i, line := range lines {
		line.BaseEntity = shared.NewBaseEntity()
		line.AllocationID = record.ID
		line.Position = i
		record.Lines[i] = line
		total = total.Add(line.Quantity)
	}
	record.TotalQuantity = total
	return record
}

// SetSource attaches the triggering document reference for audit
func (r *AllocationRecord) SetSource(sourceType string, sourceID *uuid.UUID) {
	r.SourceType = sourceType
	r.SourceID = sourceID
}

// TotalCost returns the cost of goods for this allocation, derived
// from the per-line unit costs captured at allocation time
func (r *AllocationRecord) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Lines {
		total = total.Add(r.Lines[i].LineCost())
	}
	return total
}

// AverageUnitCost returns the quantity-weighted unit cost of the
// allocation, used for COGS. Zero for an empty allocation.
func (r *AllocationRecord) AverageUnitCost() decimal.Decimal {
	if r.TotalQuantity.IsZero() {
		return decimal.Zero
	}
	return r.TotalCost().Div(r.TotalQuantity)
}

// IsReleased returns true if the allocation was returned to stock
func (r *AllocationRecord) IsReleased() bool {
	return r.Status == AllocationStatusReleased
}

// MarkReleased stamps the record as released at the given time
func (r *AllocationRecord) MarkReleased(at time.Time) {
	r.Status = AllocationStatusReleased
	r.ReleasedAt = &at
	r.Touch()
}
