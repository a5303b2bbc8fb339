package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// ReceivingService creates lots from goods receipts. Every receipt
// becomes its own lot: receipts with identical cost and expiry are
// never merged.
type ReceivingService struct {
	lotRepo stock.LotRepository
	logger  *zap.Logger
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(lotRepo stock.LotRepository, logger *zap.Logger) *ReceivingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivingService{
		lotRepo: lotRepo,
		logger:  logger.Named("receiving"),
	}
}

// CreateLot registers a goods receipt as a new active lot
func (s *ReceivingService) CreateLot(ctx context.Context, req CreateLotRequest) (*LotResponse, error) {
	receivedDate := req.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}

	lot, err := stock.NewLot(req.ProductID, req.LotNumber, req.Quantity, req.ExpiryDate, receivedDate, req.UnitCost)
	if err != nil {
		return nil, err
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	s.logger.Info("lot created",
		zap.String("lot_id", lot.ID.String()),
		zap.String("product_id", lot.ProductID.String()),
		zap.String("lot_number", lot.LotNumber),
		zap.String("quantity", lot.QuantityOnHand.String()),
	)

	response := ToLotResponse(lot)
	return &response, nil
}

// GetLot retrieves a single lot by ID
func (s *ReceivingService) GetLot(ctx context.Context, id uuid.UUID) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToLotResponse(lot)
	return &response, nil
}
