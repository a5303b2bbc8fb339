package stock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLot(t *testing.T, productID uuid.UUID, lotNumber string, qty int64, expiry, received time.Time) *Lot {
	t.Helper()
	lot, err := NewLot(productID, lotNumber, decimal.NewFromInt(qty), expiry, received, decimal.NewFromFloat(2.50))
	require.NoError(t, err)
	return lot
}

func TestSortFIFO(t *testing.T) {
	productID := uuid.New()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("earliest expiry first", func(t *testing.T) {
		late := makeLot(t, productID, "L-2", 10, day.AddDate(0, 2, 0), day)
		early := makeLot(t, productID, "L-1", 10, day.AddDate(0, 1, 0), day)

		lots := []*Lot{late, early}
		SortFIFO(lots)

		assert.Equal(t, early.ID, lots[0].ID)
		assert.Equal(t, late.ID, lots[1].ID)
	})

	t.Run("received date breaks expiry ties", func(t *testing.T) {
		expiry := day.AddDate(0, 1, 0)
		newer := makeLot(t, productID, "L-2", 10, expiry, day.AddDate(0, 0, 5))
		older := makeLot(t, productID, "L-1", 10, expiry, day)

		lots := []*Lot{newer, older}
		SortFIFO(lots)

		assert.Equal(t, older.ID, lots[0].ID)
	})

	t.Run("id breaks full ties deterministically", func(t *testing.T) {
		expiry := day.AddDate(0, 1, 0)
		a := makeLot(t, productID, "L-1", 10, expiry, day)
		b := makeLot(t, productID, "L-2", 10, expiry, day)

		forward := []*Lot{a, b}
		reverse := []*Lot{b, a}
		SortFIFO(forward)
		SortFIFO(reverse)

		assert.Equal(t, forward[0].ID, reverse[0].ID)
		assert.Equal(t, forward[1].ID, reverse[1].ID)
		assert.True(t, FIFOLess(forward[0], forward[1]))
		assert.False(t, FIFOLess(forward[1], forward[0]))
	})
}

func TestPlanConsumption(t *testing.T) {
	productID := uuid.New()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("spans lots in expiry order", func(t *testing.T) {
		received := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
		a := makeLot(t, productID, "A", 5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), received)
		b := makeLot(t, productID, "B", 5, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), received)

		lines, err := PlanConsumption([]*Lot{b, a}, decimal.NewFromInt(7))
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.Equal(t, a.ID, lines[0].LotID)
		assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, b.ID, lines[1].LotID)
		assert.True(t, lines[1].Quantity.Equal(decimal.NewFromInt(2)))
	})

	t.Run("captures unit cost per lot", func(t *testing.T) {
		lot, err := NewLot(productID, "C", decimal.NewFromInt(4),
			day.AddDate(0, 6, 0), day, decimal.NewFromFloat(3.75))
		require.NoError(t, err)

		lines, err := PlanConsumption([]*Lot{lot}, decimal.NewFromInt(4))
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.True(t, lines[0].UnitCost.Equal(decimal.NewFromFloat(3.75)))
	})

	t.Run("does not mutate lots", func(t *testing.T) {
		lot := makeLot(t, productID, "D", 8, day.AddDate(0, 6, 0), day)

		_, err := PlanConsumption([]*Lot{lot}, decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(8)))
	})

	t.Run("zero request yields empty plan", func(t *testing.T) {
		lot := makeLot(t, productID, "E", 8, day.AddDate(0, 6, 0), day)

		lines, err := PlanConsumption([]*Lot{lot}, decimal.Zero)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("negative request is rejected", func(t *testing.T) {
		lot := makeLot(t, productID, "F", 8, day.AddDate(0, 6, 0), day)

		_, err := PlanConsumption([]*Lot{lot}, decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.True(t, IsDomainErrorCode(err, ErrCodeInvalidQuantity))
	})

	t.Run("insufficient stock when request exceeds total", func(t *testing.T) {
		lot := makeLot(t, productID, "G", 8, day.AddDate(0, 6, 0), day)

		_, err := PlanConsumption([]*Lot{lot}, decimal.NewFromInt(9))
		require.Error(t, err)
		assert.True(t, IsDomainErrorCode(err, ErrCodeInsufficientStock))
	})
}
