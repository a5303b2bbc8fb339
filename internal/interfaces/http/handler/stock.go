package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	stockapp "github.com/retail/backend/internal/application/stock"
	"github.com/retail/backend/internal/interfaces/http/dto"
	"github.com/retail/backend/internal/interfaces/http/middleware"
)

// StockHandler handles lot and allocation API endpoints
type StockHandler struct {
	BaseHandler
	receivingService *stockapp.ReceivingService
	allocationEngine *stockapp.AllocationEngine
	queryService     *stockapp.StockQueryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	receivingService *stockapp.ReceivingService,
	allocationEngine *stockapp.AllocationEngine,
	queryService *stockapp.StockQueryService,
) *StockHandler {
	return &StockHandler{
		receivingService: receivingService,
		allocationEngine: allocationEngine,
		queryService:     queryService,
	}
}

// bindJSON binds the request body, translating validator failures into
// per-field details
func (h *StockHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			middleware.HandleValidationError(c, err)
			return false
		}
		h.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// CreateLot registers a goods receipt as a new lot
func (h *StockHandler) CreateLot(c *gin.Context) {
	var req stockapp.CreateLotRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lot, err := h.receivingService.CreateLot(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, lot)
}

// GetLot retrieves a single lot by ID
func (h *StockHandler) GetLot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	lot, err := h.receivingService.GetLot(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// ListLots lists a product's lots with expiry classification.
// Supports `within_days` to keep only lots expiring within that many
// days, and `as_of` (RFC 3339) to shift the classification reference.
func (h *StockHandler) ListLots(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var filter stockapp.LotListFilter
	if raw := c.Query("within_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid within_days value")
			return
		}
		filter.WithinDays = &days
	}
	if raw := c.Query("as_of"); raw != "" {
		asOf, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid as_of timestamp, expected RFC 3339")
			return
		}
		filter.AsOf = &asOf
	}

	lots, err := h.queryService.ListLots(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lots)
}

// GetStockSummary returns the on-hand rollup for a product
func (h *StockHandler) GetStockSummary(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	summary, err := h.queryService.GetStockSummary(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// CheckAvailability reports whether a quantity can be consumed
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req stockapp.AvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.queryService.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Consume allocates stock against a product's lots in expiry order
func (h *StockHandler) Consume(c *gin.Context) {
	var req stockapp.ConsumeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allocation, err := h.allocationEngine.Consume(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, allocation)
}

// Release restores a previous allocation back to its lots
func (h *StockHandler) Release(c *gin.Context) {
	var req stockapp.ReleaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allocation, err := h.allocationEngine.Release(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, allocation)
}

// GetAllocation retrieves an allocation record by ID
func (h *StockHandler) GetAllocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID format")
		return
	}

	allocation, err := h.queryService.GetAllocation(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, allocation)
}

// ListAllocations lists allocation records for a product, newest
// first, paginated via `page` and `page_size`
func (h *StockHandler) ListAllocations(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid pagination parameters")
		return
	}

	allocations, err := h.queryService.ListAllocations(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	total := int64(len(allocations))
	start := (listReq.Page - 1) * listReq.PageSize
	if start > len(allocations) {
		start = len(allocations)
	}
	end := start + listReq.PageSize
	if end > len(allocations) {
		end = len(allocations)
	}

	h.SuccessWithMeta(c, allocations[start:end], total, listReq.Page, listReq.PageSize)
}
