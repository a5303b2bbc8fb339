package stock

import (
	"bytes"
	"sort"

	"github.com/shopspring/decimal"
)

// FIFOLess reports whether lot a is consumed before lot b. The ordering
// key is (expiryDate asc, receivedDate asc, id asc) and is fully
// deterministic: no two lots ever compare equal.
func FIFOLess(a, b *Lot) bool {
	if !a.ExpiryDate.Equal(b.ExpiryDate) {
		return a.ExpiryDate.Before(b.ExpiryDate)
	}
	if !a.ReceivedDate.Equal(b.ReceivedDate) {
		return a.ReceivedDate.Before(b.ReceivedDate)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// SortFIFO sorts lots in place into consumption order
func SortFIFO(lots []*Lot) {
	sort.Slice(lots, func(i, j int) bool {
		return FIFOLess(lots[i], lots[j])
	})
}

// TotalOnHand sums the on-hand quantity of the given lots
func TotalOnHand(lots []*Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.QuantityOnHand)
	}
	return total
}

// PlanConsumption walks active lots in FIFO order and plans how the
// requested quantity is drawn from them. It does not mutate the lots.
// Returns ErrInvalidQuantity for a negative request, an empty plan for
// a zero request, and ErrInsufficientStock when the lots cannot cover
// the request in full.
func PlanConsumption(lots []*Lot, requested decimal.Decimal) ([]AllocationLine, error) {
	if requested.IsNegative() {
		return nil, ErrInvalidQuantity(requested)
	}
	if requested.IsZero() {
		return []AllocationLine{}, nil
	}

	available := TotalOnHand(lots)
	if available.LessThan(requested) {
		return nil, ErrInsufficientStock(requested, available)
	}

	ordered := make([]*Lot, len(lots))
	copy(ordered, lots)
	SortFIFO(ordered)

	lines := make([]AllocationLine, 0, len(ordered))
	remaining := requested
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		if !lot.QuantityOnHand.IsPositive() {
			continue
		}
		taken := decimal.Min(remaining, lot.QuantityOnHand)
		lines = append(lines, AllocationLine{
			LotID:    lot.ID,
			Quantity: taken,
			UnitCost: lot.UnitCost,
		})
		remaining = remaining.Sub(taken)
	}
	return lines, nil
}
