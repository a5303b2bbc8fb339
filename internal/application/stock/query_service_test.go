package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addQueryLot(t *testing.T, repo *memLotRepository, productID uuid.UUID, lotNumber string, qty int64, expiry time.Time) *stock.Lot {
	t.Helper()
	lot, err := stock.NewLot(productID, lotNumber, decimal.NewFromInt(qty),
		expiry, expiry.AddDate(0, -6, 0), decimal.NewFromFloat(2.00))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), lot))
	return lot
}

func TestGetStockSummary(t *testing.T) {
	ctx := context.Background()
	day := time.Now()

	t.Run("sums active lots and reports next expiry", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		earliest := day.AddDate(0, 1, 0)
		addQueryLot(t, repo, productID, "A", 5, day.AddDate(0, 3, 0))
		addQueryLot(t, repo, productID, "B", 7, earliest)

		summary, err := svc.GetStockSummary(ctx, productID)
		require.NoError(t, err)
		assert.True(t, summary.TotalQuantity.Equal(decimal.NewFromInt(12)))
		// 12 units at 2.00
		assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(24)))
		assert.Equal(t, 2, summary.LotCount)
		require.NotNil(t, summary.NextExpiry)
		assert.True(t, summary.NextExpiry.Equal(earliest))
	})

	t.Run("exhausted lots are excluded", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		lot := addQueryLot(t, repo, productID, "A", 5, day.AddDate(0, 1, 0))
		require.NoError(t, repo.AdjustQuantity(ctx, lot.ID, decimal.NewFromInt(-5)))
		addQueryLot(t, repo, productID, "B", 4, day.AddDate(0, 2, 0))

		summary, err := svc.GetStockSummary(ctx, productID)
		require.NoError(t, err)
		assert.True(t, summary.TotalQuantity.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, 1, summary.LotCount)
	})

	t.Run("empty product has no next expiry", func(t *testing.T) {
		svc := NewStockQueryService(newMemLotRepository(), newMemAllocationRepository())

		summary, err := svc.GetStockSummary(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, summary.TotalQuantity.IsZero())
		assert.Equal(t, 0, summary.LotCount)
		assert.Nil(t, summary.NextExpiry)
	})
}

func TestListLots(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("classifies and apportions lots", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		addQueryLot(t, repo, productID, "SOON", 3, now.AddDate(0, 0, 5))
		addQueryLot(t, repo, productID, "LATER", 9, now.AddDate(1, 0, 0))

		items, err := svc.ListLots(ctx, productID, LotListFilter{})
		require.NoError(t, err)
		require.Len(t, items, 2)

		// FIFO order: the soon-expiring lot comes first
		assert.Equal(t, "SOON", items[0].LotNumber)
		assert.Equal(t, stock.ExpiryStatusCritical, items[0].Classification)
		assert.True(t, items[0].PercentOfTotal.Equal(decimal.NewFromInt(25)))

		assert.Equal(t, stock.ExpiryStatusOK, items[1].Classification)
		assert.True(t, items[1].PercentOfTotal.Equal(decimal.NewFromInt(75)))
	})

	t.Run("exhausted lots appear with zero share", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		lot := addQueryLot(t, repo, productID, "DONE", 5, now.AddDate(0, 2, 0))
		require.NoError(t, repo.AdjustQuantity(ctx, lot.ID, decimal.NewFromInt(-5)))
		addQueryLot(t, repo, productID, "LIVE", 5, now.AddDate(0, 3, 0))

		items, err := svc.ListLots(ctx, productID, LotListFilter{})
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.False(t, items[0].Active)
		assert.True(t, items[0].PercentOfTotal.IsZero())
		assert.True(t, items[1].PercentOfTotal.Equal(decimal.NewFromInt(100)))
	})

	t.Run("within_days keeps only expiring lots", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		addQueryLot(t, repo, productID, "SOON", 4, now.AddDate(0, 0, 10))
		addQueryLot(t, repo, productID, "LATER", 4, now.AddDate(0, 6, 0))

		days := 30
		items, err := svc.ListLots(ctx, productID, LotListFilter{WithinDays: &days})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "SOON", items[0].LotNumber)
		// The share is still computed against the full active total
		assert.True(t, items[0].PercentOfTotal.Equal(decimal.NewFromInt(50)))
	})

	t.Run("as_of shifts the classification reference", func(t *testing.T) {
		repo := newMemLotRepository()
		svc := NewStockQueryService(repo, newMemAllocationRepository())
		productID := uuid.New()

		addQueryLot(t, repo, productID, "A", 4, now.AddDate(0, 2, 0))

		asOf := now.AddDate(0, 3, 0)
		items, err := svc.ListLots(ctx, productID, LotListFilter{AsOf: &asOf})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, stock.ExpiryStatusExpired, items[0].Classification)
	})
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	day := time.Now()

	repo := newMemLotRepository()
	svc := NewStockQueryService(repo, newMemAllocationRepository())
	productID := uuid.New()
	addQueryLot(t, repo, productID, "A", 8, day.AddDate(0, 2, 0))

	t.Run("sufficient", func(t *testing.T) {
		resp, err := svc.CheckAvailability(ctx, AvailabilityRequest{ProductID: productID, Quantity: decimal.NewFromInt(8)})
		require.NoError(t, err)
		assert.True(t, resp.Sufficient)
		assert.True(t, resp.Available.Equal(decimal.NewFromInt(8)))
	})

	t.Run("insufficient reports available quantity", func(t *testing.T) {
		resp, err := svc.CheckAvailability(ctx, AvailabilityRequest{ProductID: productID, Quantity: decimal.NewFromInt(9)})
		require.NoError(t, err)
		assert.False(t, resp.Sufficient)
		assert.True(t, resp.Available.Equal(decimal.NewFromInt(8)))
	})

	t.Run("negative request is rejected", func(t *testing.T) {
		_, err := svc.CheckAvailability(ctx, AvailabilityRequest{ProductID: productID, Quantity: decimal.NewFromInt(-2)})
		require.Error(t, err)
		assert.True(t, stock.IsDomainErrorCode(err, stock.ErrCodeInvalidQuantity))
	})
}

func TestGetAllocation(t *testing.T) {
	ctx := context.Background()

	allocationRepo := newMemAllocationRepository()
	svc := NewStockQueryService(newMemLotRepository(), allocationRepo)

	record := stock.NewAllocationRecord(uuid.New(), []stock.AllocationLine{
		{LotID: uuid.New(), Quantity: decimal.NewFromInt(4), UnitCost: decimal.NewFromFloat(1.25)},
	})
	require.NoError(t, allocationRepo.Create(ctx, record))

	resp, err := svc.GetAllocation(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, resp.ID)
	assert.True(t, resp.TotalCost.Equal(decimal.NewFromInt(5)))

	_, err = svc.GetAllocation(ctx, uuid.New())
	assert.Error(t, err)
}
